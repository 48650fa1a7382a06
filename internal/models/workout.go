// internal/models/workout.go
package models

import "time"

// WorkoutEstimate is the output of the heart-rate energy estimators.
// TrainingLoad is zero when the profile lacks resting or max heart rate.
type WorkoutEstimate struct {
	Kcal         int     `json:"kcal"`
	Minutes      float64 `json:"minutes"`
	AvgHR        float64 `json:"avg_hr"`
	TrainingLoad float64 `json:"training_load"`
}

// Workout is a stored workout record.
type Workout struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Kcal         int       `json:"kcal"`
	Minutes      float64   `json:"minutes"`
	AvgHR        float64   `json:"avg_hr"`
	TrainingLoad float64   `json:"training_load"`
	Source       string    `json:"source"` // "average", "series", "import"
	CreatedAt    time.Time `json:"created_at"`
}
