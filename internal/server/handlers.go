package server

import (
	"errors"
	"net/http"
	"time"

	"BiasBoard/internal/bias"
	"BiasBoard/internal/market"
	"BiasBoard/internal/model"
	"BiasBoard/internal/schedule"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

type marketsResponse struct {
	Markets []model.Quote `json:"markets"`
}

func (s *Server) handleMarkets(c echo.Context) error {
	quotes, err := s.svc.FetchAll(c.Request().Context())
	if err != nil {
		if errors.Is(err, market.ErrAllSourcesFailed) {
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to fetch all market data"})
		}
		s.log.Error().Err(err).Msg("markets handler")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, marketsResponse{Markets: quotes})
}

func (s *Server) handleMarket(c echo.Context) error {
	key := c.Param("symbol")
	rec, err := s.svc.FetchOne(c.Request().Context(), key)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", key).Msg("single market fetch failed")
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to fetch market data for " + key})
	}
	return c.JSON(http.StatusOK, model.Quote{Data: rec, Bias: bias.Compute(rec)})
}

// handleRefresh is the manual user-triggered fetch cycle. It shares the
// orchestrator's cache semantics with the nightly cron task.
func (s *Server) handleRefresh(c echo.Context) error {
	quotes, err := s.svc.FetchAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "refresh failed"})
	}
	return c.JSON(http.StatusOK, marketsResponse{Markets: quotes})
}

type scheduleResponse struct {
	schedule.State
	UKTime string `json:"ukTime"`
}

func (s *Server) handleSchedule(c echo.Context) error {
	st := schedule.Evaluate(time.Now(), s.loc)
	return c.JSON(http.StatusOK, scheduleResponse{
		State:  st,
		UKTime: st.NowLocal.Format("Monday, 2 January 2006, 15:04:05"),
	})
}
