// internal/models/meal.go
package models

import (
	"time"
)

type Meal struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
	Kcal        CalorieRange  `json:"kcal"`
	Uncertainty float64       `json:"uncertainty"`
	Macros      Macros        `json:"macros,omitempty"`
	Foods       []FoodPortion `json:"foods"`
	Explanation string        `json:"explanation,omitempty"`
	Source      string        `json:"source"` // "estimator", "reconciled", "manual"
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// FoodPortion is one matched food inside a meal, with the quantity the
// estimator settled on and the calories attributed to it.
type FoodPortion struct {
	Name     string       `json:"name"`
	Quantity string       `json:"quantity"`
	Kcal     CalorieRange `json:"kcal"`
}

// Macros are grams of macronutrients. Zero values mean unknown, not zero
// grams; the local estimator never fills these, only an advisor does.
type Macros struct {
	ProteinG float64 `json:"protein_g,omitempty"`
	CarbsG   float64 `json:"carbs_g,omitempty"`
	FatG     float64 `json:"fat_g,omitempty"`
}

// Empty reports whether no macro field is set.
func (m Macros) Empty() bool {
	return m.ProteinG == 0 && m.CarbsG == 0 && m.FatG == 0
}

// DailySummary aggregates one calendar day of records.
type DailySummary struct {
	Date         string `json:"date"`
	MealCount    int    `json:"meal_count"`
	KcalIn       int    `json:"kcal_in"`
	KcalInLow    int    `json:"kcal_in_low"`
	KcalInHigh   int    `json:"kcal_in_high"`
	WorkoutCount int    `json:"workout_count"`
	KcalOut      int    `json:"kcal_out"`
	// Net is intake minus expenditure, using midpoints.
	Net          int     `json:"net"`
	Minutes      float64 `json:"minutes"`
	TrainingLoad float64 `json:"training_load"`
}
