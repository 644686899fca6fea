package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BiasBoard/internal/collector"
	"BiasBoard/internal/market"
	"BiasBoard/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingFetcher struct{}

func (f *failingFetcher) Name() string { return "yahoo" }
func (f *failingFetcher) Fetch(context.Context, string, string) (*model.OHLCRecord, error) {
	return nil, errors.New("down")
}

func testServer(t *testing.T, f collector.Fetcher) *Server {
	t.Helper()
	symbols := []model.SymbolInfo{
		{Key: "SP500", YahooTicker: "^GSPC", Name: "S&P 500"},
		{Key: "NASDAQ", YahooTicker: "^NDX", Name: "NASDAQ 100"},
	}
	svc := market.NewService(symbols, f, zerolog.Nop(), market.WithFallbacks(nil))
	return New(0, svc, nil, time.UTC, zerolog.Nop())
}

func TestHandleMarkets(t *testing.T) {
	s := testServer(t, &collector.MockFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Markets []model.Quote `json:"markets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Markets, 2)
	assert.NotEmpty(t, resp.Markets[0].Bias.Type)
}

func TestHandleMarkets_AllFailed(t *testing.T) {
	s := testServer(t, &failingFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSingleMarket(t *testing.T) {
	s := testServer(t, &collector.MockFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/markets/SP500", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var q model.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "S&P 500", q.Data.Name)

	req = httptest.NewRequest(http.MethodGet, "/api/markets/UNKNOWN", nil)
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSchedule(t *testing.T) {
	s := testServer(t, &collector.MockFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Visible        bool   `json:"visible"`
		NextTradingDay string `json:"nextTradingDay"`
		UKTime         string `json:"ukTime"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, resp.NextTradingDay)
	assert.NotEmpty(t, resp.UKTime)
}

func TestHandleRefresh(t *testing.T) {
	mock := &collector.MockFetcher{}
	s := testServer(t, mock)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, mock.Calls.Load())
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &collector.MockFetcher{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
