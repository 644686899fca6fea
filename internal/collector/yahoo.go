package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"BiasBoard/internal/model"
	"BiasBoard/internal/series"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher pulls a multi-day OHLC series from the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a Yahoo chart fetcher with optional outbound proxy support.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo chart API. Quote arrays
// carry JSON nulls for holidays and half-days, hence the pointer slices.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns the last complete daily bar for ticker plus previous-day context.
func (f *YahooFetcher) Fetch(ctx context.Context, ticker, name string) (*model.OHLCRecord, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=10d&interval=1d&includePrePost=false",
		f.BaseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Source: f.Name(), Status: resp.StatusCode}
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error %s: %w", chart.Chart.Error.Code, ErrMalformedResponse)
	}
	if len(chart.Chart.Result) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 ||
		len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, ErrMalformedResponse
	}

	quote := chart.Chart.Result[0].Indicators.Quote[0]

	lastIdx, prevIdx, err := series.LastValidClose(quote.Close)
	if err != nil {
		return nil, err
	}

	close := deref(quote.Close[lastIdx])
	open := deref(at(quote.Open, lastIdx))
	high := deref(at(quote.High, lastIdx))
	low := deref(at(quote.Low, lastIdx))

	priorClose := close
	var prevHigh, prevLow *float64
	if prevIdx >= 0 {
		if c := at(quote.Close, prevIdx); series.Finite(c) {
			priorClose = *c
		}
		if h := at(quote.High, prevIdx); series.Finite(h) {
			prevHigh = h
		}
		if l := at(quote.Low, prevIdx); series.Finite(l) {
			prevLow = l
		}
	}

	change := close - priorClose
	return &model.OHLCRecord{
		Symbol:        ticker,
		Name:          name,
		Price:         close,
		Change:        change,
		ChangePercent: changePercent(change, priorClose),
		Open:          open,
		High:          high,
		Low:           low,
		Close:         close,
		PreviousHigh:  prevHigh,
		PreviousLow:   prevLow,
		LastUpdated:   time.Now(),
		Source:        f.Name(),
		IsFallback:    false,
	}, nil
}

// at guards against quote arrays shorter than the timestamp array.
func at(vs []*float64, i int) *float64 {
	if i < 0 || i >= len(vs) {
		return nil
	}
	return vs[i]
}

func deref(v *float64) float64 {
	if !series.Finite(v) {
		return 0
	}
	return *v
}
