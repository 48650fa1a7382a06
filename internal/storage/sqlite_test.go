// internal/storage/sqlite_test.go
package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nutrilog/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeal(id string, ts time.Time) *models.Meal {
	return &models.Meal{
		ID:          id,
		Description: "米饭和鸡蛋",
		Timestamp:   ts,
		Kcal:        models.RangeFromBounds(300, 420, 0.17),
		Uncertainty: 0.17,
		Foods: []models.FoodPortion{
			{Name: "rice", Quantity: "≈200 g (碗)", Kcal: models.NewCalorieRange(260, 0.25)},
			{Name: "egg", Quantity: "1 个", Kcal: models.NewCalorieRange(72, 0.12)},
		},
		Explanation: "rice ≈200 g (碗): 260 kcal; egg 1 个: 72 kcal",
		Source:      "estimator",
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestSaveAndGetMeal(t *testing.T) {
	s := newTestStorage(t)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	meal := sampleMeal("m1", ts)

	if err := s.SaveMeal(meal); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	got, err := s.GetMeal("m1")
	if err != nil {
		t.Fatalf("GetMeal: %v", err)
	}
	if got.Description != meal.Description {
		t.Errorf("description = %q, want %q", got.Description, meal.Description)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.Kcal.Low != 300 || got.Kcal.Mid != 360 || got.Kcal.High != 420 {
		t.Errorf("kcal = %+v, want 300/360/420", got.Kcal)
	}
	if got.Uncertainty != 0.17 {
		t.Errorf("uncertainty = %v, want 0.17", got.Uncertainty)
	}
	if len(got.Foods) != 2 {
		t.Fatalf("foods = %+v, want 2 entries", got.Foods)
	}
	if got.Foods[0].Name != "rice" || got.Foods[1].Kcal.Mid != 72 {
		t.Errorf("foods round-trip broken: %+v", got.Foods)
	}
	if got.Foods[0].Quantity != "≈200 g (碗)" {
		t.Errorf("quantity = %q, want the unicode-heavy original", got.Foods[0].Quantity)
	}
}

func TestGetMealNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetMeal("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReplaceMeal(t *testing.T) {
	s := newTestStorage(t)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	meal := sampleMeal("m1", ts)
	if err := s.SaveMeal(meal); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	meal.Description = "只有米饭"
	meal.Kcal = models.NewCalorieRange(260, 0.25)
	meal.Uncertainty = 0.25
	meal.Foods = meal.Foods[:1]
	meal.UpdatedAt = ts.Add(time.Hour)
	if err := s.ReplaceMeal(meal); err != nil {
		t.Fatalf("ReplaceMeal: %v", err)
	}

	got, err := s.GetMeal("m1")
	if err != nil {
		t.Fatalf("GetMeal: %v", err)
	}
	if got.Description != "只有米饭" {
		t.Errorf("description = %q, want the replacement", got.Description)
	}
	if len(got.Foods) != 1 {
		t.Errorf("foods = %+v, want the old rows swapped out", got.Foods)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updated_at %v should be after created_at %v", got.UpdatedAt, got.CreatedAt)
	}

	meals, err := s.ListMeals("2024-03-01", "2024-03-01", 10)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 1 {
		t.Errorf("meals after replace = %d, want exactly 1", len(meals))
	}

	missing := sampleMeal("nope", ts)
	if err := s.ReplaceMeal(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("replacing a missing meal: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMeal(t *testing.T) {
	s := newTestStorage(t)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := s.SaveMeal(sampleMeal("m1", ts)); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	if err := s.DeleteMeal("m1"); err != nil {
		t.Fatalf("DeleteMeal: %v", err)
	}
	if _, err := s.GetMeal("m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
	// The food rows must not outlive the meal.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM meal_foods`).Scan(&n); err != nil {
		t.Fatalf("count foods: %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned food rows: %d", n)
	}
	if err := s.DeleteMeal("m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: error = %v, want ErrNotFound", err)
	}
}

func TestListMealsDateFilter(t *testing.T) {
	s := newTestStorage(t)
	day1 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	day1b := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	for id, ts := range map[string]time.Time{"a": day1, "b": day1b, "c": day2} {
		if err := s.SaveMeal(sampleMeal(id, ts)); err != nil {
			t.Fatalf("SaveMeal(%s): %v", id, err)
		}
	}

	meals, err := s.ListMeals("2024-03-02", "", 0)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 1 || meals[0].ID != "c" {
		t.Errorf("from day 2: got %d meals, want only c", len(meals))
	}

	meals, err = s.ListMeals("", "2024-03-01", 0)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 2 {
		t.Errorf("through day 1: got %d meals, want 2", len(meals))
	}

	meals, err = s.ListMeals("", "", 1)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 1 || meals[0].ID != "c" {
		t.Errorf("limit 1: want just the newest meal, got %+v", meals)
	}
}

func TestWorkoutsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ts := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	w := &models.Workout{
		ID:           "w1",
		Timestamp:    ts,
		Kcal:         381,
		Minutes:      30,
		AvgHR:        140,
		TrainingLoad: 52.4,
		Source:       "series",
		CreatedAt:    ts,
	}
	if err := s.SaveWorkout(w); err != nil {
		t.Fatalf("SaveWorkout: %v", err)
	}

	workouts, err := s.ListWorkouts("2024-03-01", "2024-03-01", 0)
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(workouts) != 1 {
		t.Fatalf("workouts = %+v, want 1", workouts)
	}
	got := workouts[0]
	if got.Kcal != 381 || got.Minutes != 30 || got.AvgHR != 140 || got.TrainingLoad != 52.4 {
		t.Errorf("workout round-trip broken: %+v", got)
	}
	if got.Source != "series" {
		t.Errorf("source = %q, want series", got.Source)
	}

	none, err := s.ListWorkouts("2024-03-02", "", 0)
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("day-2 filter returned %+v", none)
	}
}

func TestProfileUpsert(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.GetProfile(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty profile: error = %v, want ErrNotFound", err)
	}

	p := &models.Profile{
		Age: 30, Sex: models.SexMale, WeightKg: 70,
		RestingHR: 60, MaxHR: 190, Calibration: 1.1,
		UpdatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, err := s.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Sex != models.SexMale || got.WeightKg != 70 || got.Calibration != 1.1 {
		t.Errorf("profile round-trip broken: %+v", got)
	}

	p.WeightKg = 68.5
	p.UpdatedAt = p.UpdatedAt.Add(24 * time.Hour)
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}
	got, err = s.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.WeightKg != 68.5 {
		t.Errorf("weight = %v, want the updated 68.5", got.WeightKg)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM profile`).Scan(&n); err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if n != 1 {
		t.Errorf("profile rows = %d, the table must stay single-row", n)
	}
}

func TestDailySummary(t *testing.T) {
	s := newTestStorage(t)
	day := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	m1 := sampleMeal("m1", day) // 300..420, mid 360
	m2 := sampleMeal("m2", day.Add(10*time.Hour))
	m2.Kcal = models.NewCalorieRange(200, 0.05) // 190..210
	m2.Uncertainty = 0.05
	for _, m := range []*models.Meal{m1, m2} {
		if err := s.SaveMeal(m); err != nil {
			t.Fatalf("SaveMeal: %v", err)
		}
	}
	w := &models.Workout{
		ID: "w1", Timestamp: day.Add(-time.Hour), Kcal: 381, Minutes: 30,
		AvgHR: 140, Source: "series", CreatedAt: day,
	}
	if err := s.SaveWorkout(w); err != nil {
		t.Fatalf("SaveWorkout: %v", err)
	}

	sum, err := s.DailySummary("2024-03-01")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if sum.MealCount != 2 || sum.WorkoutCount != 1 {
		t.Errorf("counts = %d meals / %d workouts, want 2/1", sum.MealCount, sum.WorkoutCount)
	}
	if sum.KcalIn != 560 || sum.KcalInLow != 490 || sum.KcalInHigh != 630 {
		t.Errorf("intake = %d (%d..%d), want 560 (490..630)", sum.KcalIn, sum.KcalInLow, sum.KcalInHigh)
	}
	if sum.KcalOut != 381 || sum.Minutes != 30 {
		t.Errorf("output = %d kcal / %v min, want 381/30", sum.KcalOut, sum.Minutes)
	}
	if sum.Net != 179 {
		t.Errorf("net = %d, want 179", sum.Net)
	}

	empty, err := s.DailySummary("2024-03-09")
	if err != nil {
		t.Fatalf("DailySummary empty day: %v", err)
	}
	if empty.MealCount != 0 || empty.KcalIn != 0 || empty.Net != 0 {
		t.Errorf("empty day summary = %+v, want zeros", empty)
	}
}
