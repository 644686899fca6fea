// Package bias derives the next-session directional signal from a single daily bar.
package bias

import "BiasBoard/internal/model"

// Compute converts one OHLC record into a tri-state bias. Total function: every
// record maps to exactly one of bullish, bearish or neutral.
//
// Priority order: an inside bar (today's range strictly contained within
// yesterday's) wins and yields neutral. Otherwise the OHLC average is compared
// against the close; an average exactly equal to the close resolves to bearish.
func Compute(rec *model.OHLCRecord) model.Bias {
	if rec.PreviousHigh != nil && rec.PreviousLow != nil &&
		rec.High < *rec.PreviousHigh && rec.Low > *rec.PreviousLow {
		return model.Bias{
			Type:        model.BiasNeutral,
			Reason:      "Inside bar detected - No signal for next trading session",
			IsInsideBar: true,
		}
	}

	avg := (rec.High + rec.Low + rec.Open + rec.Close) / 4
	if avg > rec.Close {
		return model.Bias{
			Type:         model.BiasBullish,
			Reason:       "Average price above closing price - Expecting bullish momentum",
			AveragePrice: &avg,
		}
	}
	return model.Bias{
		Type:         model.BiasBearish,
		Reason:       "Average price below closing price - Expecting bearish momentum",
		AveragePrice: &avg,
	}
}
