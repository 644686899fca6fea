// Package market orchestrates per-symbol fetches: caching, fallback policy and
// partial-failure aggregation for the full symbol set.
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BiasBoard/internal/bias"
	"BiasBoard/internal/collector"
	"BiasBoard/internal/metrics"
	"BiasBoard/internal/model"

	"github.com/rs/zerolog"
)

// ErrAllSourcesFailed means no symbol in the batch produced a record.
var ErrAllSourcesFailed = errors.New("market: all sources failed")

// DefaultCacheTTL bounds how long a fetched record is served without a refresh.
const DefaultCacheTTL = 60 * time.Second

// SpotGoldSource tags records produced by the gold spot fallback.
const SpotGoldSource = "yahoo-spot"

// Fallback names an alternate Yahoo ticker tried when a symbol's primary fetch fails.
type Fallback struct {
	Ticker string
	Source string
}

// DefaultFallbacks is the per-symbol fallback policy. Only GOLD has one: the
// futures ticker is occasionally blocked, spot gold rarely is.
func DefaultFallbacks() map[string]Fallback {
	return map[string]Fallback{
		"GOLD": {Ticker: "XAUUSD=X", Source: SpotGoldSource},
	}
}

type cacheEntry struct {
	record    *model.OHLCRecord
	fetchedAt time.Time
}

// Service drives the fetchers for a fixed symbol set. The cache is owned here;
// there is no ambient state. Two concurrent fetches for the same symbol may
// race to store; last write wins and both records are same-day equivalents, so
// only map access itself is guarded.
type Service struct {
	symbols   []model.SymbolInfo
	yahoo     collector.Fetcher
	alpha     collector.Fetcher
	fallbacks map[string]Fallback
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	log zerolog.Logger
	met *metrics.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithAlphaFetcher enables the Alpha Vantage path for symbols configured with
// an Alpha function name.
func WithAlphaFetcher(f collector.Fetcher) Option {
	return func(s *Service) { s.alpha = f }
}

// WithCacheTTL overrides the record TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFallbacks replaces the per-symbol fallback policy.
func WithFallbacks(fb map[string]Fallback) Option {
	return func(s *Service) { s.fallbacks = fb }
}

// WithMetrics attaches a Prometheus recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.met = m }
}

// NewService creates the orchestrator for the given symbol set.
func NewService(symbols []model.SymbolInfo, yahoo collector.Fetcher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		symbols:   symbols,
		yahoo:     yahoo,
		fallbacks: DefaultFallbacks(),
		ttl:       DefaultCacheTTL,
		cache:     make(map[string]cacheEntry),
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Symbols returns the configured symbol set.
func (s *Service) Symbols() []model.SymbolInfo { return s.symbols }

// FetchOne returns the record for one symbol, serving from cache while the
// entry is younger than the TTL and refreshing synchronously otherwise.
func (s *Service) FetchOne(ctx context.Context, key string) (*model.OHLCRecord, error) {
	if rec := s.cached(key); rec != nil {
		s.met.RecordCacheHit(key)
		return rec, nil
	}

	info, ok := s.lookup(key)
	if !ok {
		return nil, fmt.Errorf("market: unknown symbol %q", key)
	}

	rec, err := s.fetchPrimary(ctx, info)
	if err != nil {
		fb, hasFallback := s.fallbacks[key]
		if !hasFallback {
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}
		s.log.Warn().Err(err).Str("symbol", key).Str("fallback", fb.Ticker).
			Msg("primary fetch failed, trying fallback source")

		rec, err = s.fetchFallback(ctx, info, fb)
		if err != nil {
			return nil, fmt.Errorf("fetch %s (fallback included): %w", key, err)
		}
	}

	s.store(key, rec)
	s.met.RecordLastPrice(key, rec.Close)
	return rec, nil
}

// FetchAll fetches every configured symbol concurrently, waits for all to
// settle and keeps the successes. A single misbehaving upstream must not blank
// the whole result set; only an empty success set is an error.
func (s *Service) FetchAll(ctx context.Context) ([]model.Quote, error) {
	type settled struct {
		key string
		rec *model.OHLCRecord
		err error
	}

	results := make([]settled, len(s.symbols))
	var wg sync.WaitGroup
	for i, sym := range s.symbols {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			rec, err := s.FetchOne(ctx, key)
			results[i] = settled{key: key, rec: rec, err: err}
		}(i, sym.Key)
	}
	wg.Wait()

	quotes := make([]model.Quote, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			s.log.Error().Err(r.err).Str("symbol", r.key).Msg("symbol fetch failed")
			continue
		}
		quotes = append(quotes, model.Quote{Data: r.rec, Bias: bias.Compute(r.rec)})
	}
	if len(quotes) == 0 {
		return nil, ErrAllSourcesFailed
	}
	return quotes, nil
}

func (s *Service) fetchPrimary(ctx context.Context, info model.SymbolInfo) (*model.OHLCRecord, error) {
	if info.AlphaFunction != "" && s.alpha != nil {
		rec, err := s.timedFetch(ctx, s.alpha, info.AlphaFunction, info.Name)
		s.met.RecordFetch(info.Key, s.alpha.Name(), outcome(err))
		return rec, err
	}
	rec, err := s.timedFetch(ctx, s.yahoo, info.YahooTicker, info.Name)
	s.met.RecordFetch(info.Key, s.yahoo.Name(), outcome(err))
	return rec, err
}

func (s *Service) fetchFallback(ctx context.Context, info model.SymbolInfo, fb Fallback) (*model.OHLCRecord, error) {
	rec, err := s.timedFetch(ctx, s.yahoo, fb.Ticker, info.Name)
	s.met.RecordFetch(info.Key, fb.Source, outcome(err))
	if err != nil {
		return nil, err
	}
	rec.Source = fb.Source
	rec.IsFallback = true
	return rec, nil
}

func (s *Service) timedFetch(ctx context.Context, f collector.Fetcher, ticker, name string) (*model.OHLCRecord, error) {
	start := time.Now()
	rec, err := f.Fetch(ctx, ticker, name)
	s.met.RecordDuration(f.Name(), time.Since(start).Seconds())
	return rec, err
}

func (s *Service) lookup(key string) (model.SymbolInfo, bool) {
	for _, sym := range s.symbols {
		if sym.Key == key {
			return sym, true
		}
	}
	return model.SymbolInfo{}, false
}

func (s *Service) cached(key string) *model.OHLCRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[key]
	if !ok || time.Since(e.fetchedAt) >= s.ttl {
		return nil
	}
	return e.record
}

func (s *Service) store(key string, rec *model.OHLCRecord) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{record: rec, fetchedAt: time.Now()}
	s.mu.Unlock()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
