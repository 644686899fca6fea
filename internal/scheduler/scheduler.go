// Package scheduler arms the recurring fetch cycle. One cron entry fires at
// 23:01 UK local time daily; cron recomputes the next instant after each run,
// which covers daylight-saving transitions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"BiasBoard/internal/market"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRefreshSpec fires at 23:01:00 local time every day (seconds field first).
const DefaultRefreshSpec = "0 1 23 * * *"

// Scheduler manages the nightly refresh task.
type Scheduler struct {
	cron   *cron.Cron
	svc    *market.Service
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler whose cron specs are interpreted in loc.
func New(ctx context.Context, svc *market.Service, loc *time.Location, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		svc:    svc,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds the nightly refresh entry.
func (s *Scheduler) Register(refreshSpec string) error {
	if refreshSpec == "" {
		refreshSpec = DefaultRefreshSpec
	}
	if _, err := s.cron.AddFunc(refreshSpec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop cancels in-loop work and stops the cron loop.
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the refresh immediately (startup warm-up, manual trigger).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.ctx.Err() != nil {
		return
	}
	s.log.Info().Msg("running scheduled market refresh")

	quotes, err := s.svc.FetchAll(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled refresh failed")
		return
	}
	s.log.Info().
		Int("symbols", len(s.svc.Symbols())).
		Int("fetched", len(quotes)).
		Msg("scheduled refresh complete")
}
