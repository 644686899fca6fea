package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BiasBoard/internal/collector"
	"BiasBoard/internal/config"
	"BiasBoard/internal/market"
	"BiasBoard/internal/metrics"
	"BiasBoard/internal/schedule"
	"BiasBoard/internal/scheduler"
	"BiasBoard/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info().Msg("BiasBoard starting...")

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("tz", cfg.Schedule.Timezone).Msg("timezone load failed, using default")
		loc = schedule.Location()
	}

	// Init fetchers
	yahoo := collector.NewYahooFetcher(cfg.Data.YahooBaseURL, cfg.Proxy)
	opts := []market.Option{
		market.WithCacheTTL(cfg.Data.CacheTTL),
		market.WithMetrics(metrics.New()),
	}
	if cfg.Data.AlphaAPIKey != "" {
		opts = append(opts, market.WithAlphaFetcher(
			collector.NewAlphaFetcher(cfg.Data.AlphaBaseURL, cfg.Data.AlphaAPIKey, cfg.Proxy)))
	}

	// Init orchestrator
	svc := market.NewService(cfg.Symbols, yahoo, logger, opts...)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler: nightly refresh at 23:01 UK time
	sched := scheduler.New(ctx, svc, loc, logger)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the cache on startup
	go sched.RunNow()

	// Init HTTP surface (consumer API + provider proxies)
	proxy := server.NewProxy(cfg.Data.YahooBaseURL, cfg.Data.AlphaBaseURL, cfg.Data.AlphaAPIKey, cfg.Proxy, logger)
	srv := server.New(cfg.Server.Port, svc, proxy, loc, logger)
	srv.Start()

	logger.Info().Int("port", cfg.Server.Port).Msg("BiasBoard is running")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("BiasBoard stopped")
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
