// internal/models/range.go
package models

import "math"

// Relative uncertainty is kept inside a fixed band: below MinUncertainty a
// range would claim more precision than any estimate here can deliver, above
// MaxUncertainty it would be too wide to act on.
const (
	MinUncertainty = 0.05
	MaxUncertainty = 0.60
)

// CalorieRange is a bounded kilocalorie estimate. Low <= Mid <= High always
// holds and no bound is negative.
type CalorieRange struct {
	Low         int     `json:"low"`
	Mid         int     `json:"mid"`
	High        int     `json:"high"`
	Uncertainty float64 `json:"uncertainty"`
}

// NewCalorieRange builds a range around mid using the given relative
// uncertainty. The uncertainty is clamped into the supported band, a
// negative or non-finite mid is treated as zero.
func NewCalorieRange(mid, uncertainty float64) CalorieRange {
	if math.IsNaN(mid) || math.IsInf(mid, 0) || mid < 0 {
		mid = 0
	}
	u := ClampUncertainty(uncertainty)
	low := math.Max(0, math.Round(mid*(1-u)))
	high := math.Max(low, math.Round(mid*(1+u)))
	return CalorieRange{
		Low:         int(low),
		Mid:         int(math.Round(mid)),
		High:        int(high),
		Uncertainty: u,
	}
}

// RangeFromBounds builds a range from explicit bounds, deriving the midpoint.
// Used when an estimate is assembled by summing per-food bounds rather than
// widening a single point value.
func RangeFromBounds(low, high int, uncertainty float64) CalorieRange {
	if low < 0 {
		low = 0
	}
	if high < low {
		high = low
	}
	return CalorieRange{
		Low:         low,
		Mid:         int(math.Round(float64(low+high) / 2)),
		High:        high,
		Uncertainty: ClampUncertainty(uncertainty),
	}
}

// ClampUncertainty forces u into [MinUncertainty, MaxUncertainty]. NaN maps
// to MinUncertainty.
func ClampUncertainty(u float64) float64 {
	switch {
	case math.IsNaN(u) || u < MinUncertainty:
		return MinUncertainty
	case u > MaxUncertainty:
		return MaxUncertainty
	}
	return u
}

// IsZero reports whether the range carries no estimate at all.
func (r CalorieRange) IsZero() bool {
	return r.Low == 0 && r.Mid == 0 && r.High == 0
}

// Width returns the spread between the bounds in kcal.
func (r CalorieRange) Width() int {
	return r.High - r.Low
}
