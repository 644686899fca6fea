package model

// BiasType is the tri-state directional signal for the next session.
type BiasType string

const (
	BiasBullish BiasType = "bullish"
	BiasBearish BiasType = "bearish"
	BiasNeutral BiasType = "neutral"
)

// Bias is derived purely from one OHLCRecord and never cached on its own.
type Bias struct {
	Type         BiasType `json:"type"`
	Reason       string   `json:"reason"`
	AveragePrice *float64 `json:"averagePrice,omitempty"`
	IsInsideBar  bool     `json:"isInsideBar"`
}

// Quote pairs a fetched record with its computed bias.
type Quote struct {
	Data *OHLCRecord `json:"data"`
	Bias Bias        `json:"bias"`
}
