package pricing

import (
	"math"
)

// Change is the difference between two price points. Percentage is nil when it
// cannot be computed, which happens when the previous price is zero or either
// input is not a finite number.
type Change struct {
	Difference float64  `json:"difference"`
	Percentage *float64 `json:"percentage"`
}

// Known reports whether the percentage is meaningful.
func (c Change) Known() bool {
	return c.Percentage != nil
}

// Direction returns "up", "down" or "flat" based on the absolute difference.
func (c Change) Direction() string {
	switch {
	case c.Difference > 0:
		return "up"
	case c.Difference < 0:
		return "down"
	default:
		return "flat"
	}
}

// PriceChange computes current - previous and the relative change in percent.
func PriceChange(current, previous float64) Change {
	if !finite(current) || !finite(previous) {
		return Change{}
	}
	diff := current - previous
	change := Change{Difference: diff}
	if previous == 0 {
		return change
	}
	pct := diff / previous * 100
	if finite(pct) {
		change.Percentage = &pct
	}
	return change
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Round2 rounds to two decimal places for display.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
