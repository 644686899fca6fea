// Package schedule decides when predictions are visible and which trading day
// they apply to. All wall-clock math runs in UK civil time.
package schedule

import "time"

// ReferenceTimezone anchors the visibility window and trading-day arithmetic.
const ReferenceTimezone = "Europe/London"

// State is recomputed from the current instant on every evaluation.
type State struct {
	NowLocal       time.Time `json:"nowLocal"`
	Visible        bool      `json:"visible"`
	NextTradingDay string    `json:"nextTradingDay"` // "2006-01-02" in the reference timezone
}

// Location returns the reference timezone, falling back to fixed GMT if the
// tzdata is missing on the host.
func Location() *time.Location {
	loc, err := time.LoadLocation(ReferenceTimezone)
	if err != nil {
		return time.FixedZone("GMT", 0)
	}
	return loc
}

// Evaluate computes visibility and the next trading day for the given instant.
//
// The bias window spans 23:01 through 05:59 local civil time. The target day
// starts at today's local date, rolls forward one day when inside the 23:01+
// arm of the window, then skips forward past any Saturday or Sunday. Market
// holidays are not consulted.
func Evaluate(now time.Time, loc *time.Location) State {
	local := now.In(loc)
	hour, minute := local.Hour(), local.Minute()

	visible := (hour == 23 && minute >= 1) || hour < 6

	target := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if hour == 23 && minute >= 1 {
		target = target.AddDate(0, 0, 1)
	}
	for target.Weekday() == time.Saturday || target.Weekday() == time.Sunday {
		target = target.AddDate(0, 0, 1)
	}

	return State{
		NowLocal:       local,
		Visible:        visible,
		NextTradingDay: target.Format("2006-01-02"),
	}
}
