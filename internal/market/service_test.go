package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BiasBoard/internal/collector"
	"BiasBoard/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher answers per ticker and counts calls.
type scriptedFetcher struct {
	name string
	mu   sync.Mutex
	recs map[string]*model.OHLCRecord
	errs map[string]error
	hits map[string]int
}

func newScripted(name string) *scriptedFetcher {
	return &scriptedFetcher{
		name: name,
		recs: map[string]*model.OHLCRecord{},
		errs: map[string]error{},
		hits: map[string]int{},
	}
}

func (f *scriptedFetcher) Name() string { return f.name }

func (f *scriptedFetcher) Fetch(_ context.Context, ticker, name string) (*model.OHLCRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[ticker]++
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	if rec, ok := f.recs[ticker]; ok {
		cp := *rec
		return &cp, nil
	}
	return &model.OHLCRecord{
		Symbol: ticker, Name: name,
		Open: 99, High: 101, Low: 98, Close: 100, Price: 100,
		Source: f.name,
	}, nil
}

func (f *scriptedFetcher) calls(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[ticker]
}

func testSymbols() []model.SymbolInfo {
	return []model.SymbolInfo{
		{Key: "NASDAQ", YahooTicker: "^NDX", Name: "NASDAQ 100"},
		{Key: "SP500", YahooTicker: "^GSPC", Name: "S&P 500"},
		{Key: "DOW", YahooTicker: "^DJI", Name: "Dow Jones"},
		{Key: "CRUDE", YahooTicker: "CL=F", Name: "Crude Oil"},
		{Key: "GOLD", YahooTicker: "GC=F", Name: "Gold"},
	}
}

func TestFetchOne_CacheWithinTTL(t *testing.T) {
	mock := &collector.MockFetcher{}
	svc := NewService(testSymbols(), mock, zerolog.Nop())

	first, err := svc.FetchOne(context.Background(), "SP500")
	require.NoError(t, err)
	second, err := svc.FetchOne(context.Background(), "SP500")
	require.NoError(t, err)

	assert.Same(t, first, second, "cached record must be returned as-is")
	assert.EqualValues(t, 1, mock.Calls.Load(), "second call must not hit the fetcher")
}

func TestFetchOne_ExpiredEntryRefreshes(t *testing.T) {
	mock := &collector.MockFetcher{}
	svc := NewService(testSymbols(), mock, zerolog.Nop(), WithCacheTTL(time.Nanosecond))

	_, err := svc.FetchOne(context.Background(), "SP500")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = svc.FetchOne(context.Background(), "SP500")
	require.NoError(t, err)

	assert.EqualValues(t, 2, mock.Calls.Load())
}

func TestFetchOne_GoldFallsBackToSpot(t *testing.T) {
	yahoo := newScripted("yahoo")
	yahoo.errs["GC=F"] = &collector.UpstreamError{Source: "yahoo", Status: 403}
	svc := NewService(testSymbols(), yahoo, zerolog.Nop())

	rec, err := svc.FetchOne(context.Background(), "GOLD")
	require.NoError(t, err)
	assert.Equal(t, SpotGoldSource, rec.Source)
	assert.True(t, rec.IsFallback)
	assert.Equal(t, "Gold", rec.Name)
	assert.Equal(t, 1, yahoo.calls("GC=F"))
	assert.Equal(t, 1, yahoo.calls("XAUUSD=X"))
}

func TestFetchOne_NonGoldFailurePropagates(t *testing.T) {
	yahoo := newScripted("yahoo")
	upstream := &collector.UpstreamError{Source: "yahoo", Status: 500}
	yahoo.errs["^GSPC"] = upstream
	svc := NewService(testSymbols(), yahoo, zerolog.Nop())

	_, err := svc.FetchOne(context.Background(), "SP500")
	var ue *collector.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 500, ue.Status)
	assert.Equal(t, 0, yahoo.calls("XAUUSD=X"), "no fallback for non-gold symbols")
}

func TestFetchOne_UnknownSymbol(t *testing.T) {
	svc := NewService(testSymbols(), newScripted("yahoo"), zerolog.Nop())
	_, err := svc.FetchOne(context.Background(), "BITCOIN")
	assert.Error(t, err)
}

func TestFetchOne_RoutesAlphaSymbols(t *testing.T) {
	yahoo := newScripted("yahoo")
	alpha := newScripted("alpha")
	symbols := []model.SymbolInfo{
		{Key: "CRUDE", YahooTicker: "CL=F", AlphaFunction: "WTI", Name: "Crude Oil"},
	}
	svc := NewService(symbols, yahoo, zerolog.Nop(), WithAlphaFetcher(alpha))

	rec, err := svc.FetchOne(context.Background(), "CRUDE")
	require.NoError(t, err)
	assert.Equal(t, "alpha", rec.Source)
	assert.Equal(t, 1, alpha.calls("WTI"))
	assert.Equal(t, 0, yahoo.calls("CL=F"))
}

func TestFetchAll_KeepsPartialResults(t *testing.T) {
	yahoo := newScripted("yahoo")
	yahoo.errs["^GSPC"] = errors.New("boom")
	yahoo.errs["^DJI"] = errors.New("boom")
	svc := NewService(testSymbols(), yahoo, zerolog.Nop())

	quotes, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, quotes, 3)
	for _, q := range quotes {
		assert.NotNil(t, q.Data)
		assert.NotEmpty(t, q.Bias.Type)
	}
}

func TestFetchAll_AllFailed(t *testing.T) {
	yahoo := newScripted("yahoo")
	for _, sym := range testSymbols() {
		yahoo.errs[sym.YahooTicker] = errors.New("boom")
	}
	yahoo.errs["XAUUSD=X"] = errors.New("boom") // gold fallback too
	svc := NewService(testSymbols(), yahoo, zerolog.Nop())

	quotes, err := svc.FetchAll(context.Background())
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Empty(t, quotes)
}

func TestFetchAll_BiasAttachedPerRecord(t *testing.T) {
	yahoo := newScripted("yahoo")
	ph, pl := 110.0, 90.0
	yahoo.recs["^NDX"] = &model.OHLCRecord{
		Symbol: "^NDX", Name: "NASDAQ 100",
		Open: 100, High: 105, Low: 95, Close: 96,
		PreviousHigh: &ph, PreviousLow: &pl,
		Source: "yahoo",
	}
	svc := NewService(testSymbols()[:1], yahoo, zerolog.Nop())

	quotes, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, model.BiasNeutral, quotes[0].Bias.Type)
	assert.True(t, quotes[0].Bias.IsInsideBar)
}
