// internal/models/profile.go
package models

import "time"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether s is one of the two supported values. The energy
// regressions are published per sex, so there is no neutral fallback.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Profile holds the attributes the energy estimators read. RestingHR and
// MaxHR are optional and only needed for training-load scoring.
type Profile struct {
	Age         int       `json:"age"`
	Sex         Sex       `json:"sex"`
	WeightKg    float64   `json:"weight_kg"`
	RestingHR   float64   `json:"resting_hr,omitempty"`
	MaxHR       float64   `json:"max_hr,omitempty"`
	Calibration float64   `json:"calibration,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// CalibrationFactor returns the per-user scale applied to every energy
// estimate, clamped into [0.7, 1.3] so a bad calibration run cannot run
// away. Zero means unset and is treated as 1.
func (p Profile) CalibrationFactor() float64 {
	c := p.Calibration
	switch {
	case c == 0:
		return 1
	case c < 0.7:
		return 0.7
	case c > 1.3:
		return 1.3
	}
	return c
}
