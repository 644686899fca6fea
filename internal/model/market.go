package model

import "time"

// SymbolInfo describes one tracked instrument. The set is fixed at startup.
type SymbolInfo struct {
	Key           string `yaml:"key" json:"key"`                    // internal identifier, e.g. "GOLD"
	YahooTicker   string `yaml:"yahoo_ticker" json:"-"`             // provider ticker, e.g. "GC=F"
	AlphaFunction string `yaml:"alpha_function,omitempty" json:"-"` // set when sourced from Alpha Vantage (e.g. "WTI")
	Name          string `yaml:"name" json:"name"`                  // human-readable, e.g. "Gold"
}

// OHLCRecord is one normalized daily bar plus provenance. Immutable once built;
// a newer fetch supersedes it rather than mutating it.
type OHLCRecord struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	PreviousHigh  *float64  `json:"previousHigh,omitempty"`
	PreviousLow   *float64  `json:"previousLow,omitempty"`
	LastUpdated   time.Time `json:"lastUpdated"`
	Source        string    `json:"source"` // "yahoo", "yahoo-spot" or "alpha"
	IsFallback    bool      `json:"isFallback"`
}
