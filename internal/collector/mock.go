package collector

import (
	"context"
	"sync/atomic"

	"BiasBoard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Record *model.OHLCRecord
	Err    error
	Calls  atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, ticker, name string) (*model.OHLCRecord, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Record != nil {
		rec := *m.Record
		if rec.Symbol == "" {
			rec.Symbol = ticker
		}
		if rec.Name == "" {
			rec.Name = name
		}
		return &rec, nil
	}
	return &model.OHLCRecord{
		Symbol: ticker,
		Name:   name,
		Price:  100, Open: 99, High: 101, Low: 98, Close: 100,
		Source: m.Name(),
	}, nil
}
