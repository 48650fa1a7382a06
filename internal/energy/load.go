// internal/energy/load.go
package energy

import (
	"math"

	"nutrilog/internal/models"
)

// Banister TRIMP coefficients, per sex.
const (
	maleLoadScale   = 0.64
	maleLoadExp     = 1.92
	femaleLoadScale = 0.86
	femaleLoadExp   = 1.67

	// Heart-rate reserve is allowed slightly past 1.0: recorded peaks can
	// exceed a stale configured max, but not without bound.
	maxReserveFraction = 1.2
)

// TrainingLoad scores session stress as minutes × reserve × a × e^(b·reserve),
// where reserve is the heart-rate reserve fraction. It returns 0 when the
// resting or max heart rate is missing or degenerate; the score is an
// optional extra on top of the calorie estimate, not a required one.
func TrainingLoad(minutes, avgHR, restingHR, maxHR float64, sex models.Sex) float64 {
	if minutes <= 0 || avgHR <= 0 || restingHR <= 0 || maxHR <= restingHR {
		return 0
	}

	reserve := (avgHR - restingHR) / (maxHR - restingHR)
	if reserve < 0 {
		reserve = 0
	}
	if reserve > maxReserveFraction {
		reserve = maxReserveFraction
	}

	scale, exp := maleLoadScale, maleLoadExp
	if sex == models.SexFemale {
		scale, exp = femaleLoadScale, femaleLoadExp
	}
	return minutes * reserve * scale * math.Exp(exp*reserve)
}
