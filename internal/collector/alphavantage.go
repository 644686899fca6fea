package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"BiasBoard/internal/model"
	"BiasBoard/internal/series"
)

const DefaultAlphaBaseURL = "https://www.alphavantage.co"

// AlphaFetcher pulls a single-value-per-day commodity series from the Alpha
// Vantage commodities API (function-style endpoint, e.g. WTI or GOLD).
type AlphaFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaFetcher creates an Alpha Vantage fetcher with optional outbound proxy support.
func NewAlphaFetcher(baseURL, apiKey, proxyURL string) *AlphaFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlphaFetcher) Name() string { return "alpha" }

// alphaSeries is the commodity response shape. Values arrive as strings
// (sometimes "." for missing days), hence the loose typing.
type alphaSeries struct {
	Data []struct {
		Date  string `json:"date"`
		Value any    `json:"value"`
	} `json:"data"`
}

// Fetch returns an approximated daily bar built from the last two valid points.
// Only one price per day exists upstream, so open is assumed equal to the prior
// close and high/low are the max/min of open and close. This approximation is
// intentional; bias computation downstream depends on it.
func (f *AlphaFetcher) Fetch(ctx context.Context, function, name string) (*model.OHLCRecord, error) {
	u := fmt.Sprintf("%s/query?function=%s&interval=Daily&datatype=json&apikey=%s",
		f.BaseURL, url.QueryEscape(function), url.QueryEscape(f.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha fetch %s: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alpha read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Source: f.Name(), Status: resp.StatusCode}
	}

	var payload alphaSeries
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("alpha decode: %w", err)
	}
	if payload.Data == nil {
		return nil, ErrMalformedResponse
	}

	raw := make([]series.RawPoint, len(payload.Data))
	for i, p := range payload.Data {
		raw[i] = series.RawPoint{Date: p.Date, Value: p.Value}
	}
	pts, err := series.CleanPoints(raw)
	if err != nil {
		return nil, err
	}

	last := pts[len(pts)-1]
	prev := last
	if len(pts) >= 2 {
		prev = pts[len(pts)-2]
	}

	closePrice := last.Value
	priorClose := prev.Value
	open := priorClose
	high := math.Max(open, closePrice)
	low := math.Min(open, closePrice)
	change := closePrice - priorClose

	return &model.OHLCRecord{
		Symbol:        function,
		Name:          name,
		Price:         closePrice,
		Change:        change,
		ChangePercent: changePercent(change, priorClose),
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		PreviousHigh:  &priorClose,
		PreviousLow:   &priorClose,
		LastUpdated:   time.Now(),
		Source:        f.Name(),
		IsFallback:    false,
	}, nil
}
