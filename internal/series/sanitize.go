// Package series cleans raw upstream time series before any OHLC math runs.
package series

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"time"
)

var (
	// ErrEmptySeries means the upstream returned zero candidate points.
	ErrEmptySeries = errors.New("series: empty series")
	// ErrNoValidPoints means filtering removed every candidate point.
	ErrNoValidPoints = errors.New("series: no valid points")
	// ErrNoValidCloses means an indexed series has no finite close anywhere.
	ErrNoValidCloses = errors.New("series: no valid closes")
)

// RawPoint is one unvalidated candidate from a single-value-per-day series.
// Value may arrive as a JSON number or a string; Date as "2006-01-02" or RFC3339.
type RawPoint struct {
	Date  string
	Value any
}

// Point is a validated, parsed price point.
type Point struct {
	Date  time.Time
	Value float64
}

// CleanPoints filters out points with unparseable dates or non-finite values and
// returns the survivors sorted ascending by date. The input is not mutated.
func CleanPoints(raw []RawPoint) ([]Point, error) {
	if len(raw) == 0 {
		return nil, ErrEmptySeries
	}
	pts := make([]Point, 0, len(raw))
	for _, p := range raw {
		v, ok := parseValue(p.Value)
		if !ok {
			continue
		}
		d, ok := parseDate(p.Date)
		if !ok {
			continue
		}
		pts = append(pts, Point{Date: d, Value: v})
	}
	if len(pts) == 0 {
		return nil, ErrNoValidPoints
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return pts, nil
}

// LastValidClose walks an indexed close array backward and returns the rightmost
// index with a finite close (lastIdx) and the nearest earlier one (prevIdx).
// prevIdx is -1 when no prior valid close exists; callers then treat the current
// close as the previous close (change = 0 semantics).
func LastValidClose(closes []*float64) (lastIdx, prevIdx int, err error) {
	lastIdx = len(closes) - 1
	for lastIdx >= 0 && !Finite(closes[lastIdx]) {
		lastIdx--
	}
	if lastIdx < 0 {
		return -1, -1, ErrNoValidCloses
	}
	prevIdx = lastIdx - 1
	for prevIdx >= 0 && !Finite(closes[prevIdx]) {
		prevIdx--
	}
	return lastIdx, prevIdx, nil
}

// Finite reports whether a nullable array slot holds a usable number.
func Finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func parseValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
