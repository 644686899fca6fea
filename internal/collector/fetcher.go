package collector

import (
	"context"
	"errors"
	"fmt"

	"BiasBoard/internal/model"
)

// Fetcher retrieves one normalized daily bar for a provider ticker.
// Implementations do not retry; fallback policy lives in the orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, ticker, name string) (*model.OHLCRecord, error)
	Name() string
}

// ErrMalformedResponse means the upstream answered 2xx but the expected series
// container was absent from the payload.
var ErrMalformedResponse = errors.New("collector: malformed upstream response")

// UpstreamError is a non-success HTTP-level response from a provider.
type UpstreamError struct {
	Source string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Source, e.Status)
}

// changePercent guards against a zero prior close; 0 is a policy choice here,
// never NaN or Inf.
func changePercent(change, priorClose float64) float64 {
	if priorClose == 0 {
		return 0
	}
	return change / priorClose * 100
}
