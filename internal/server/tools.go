// internal/server/tools.go
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"nutrilog/internal/energy"
	"nutrilog/internal/estimate"
	"nutrilog/internal/ingest"
	"nutrilog/internal/models"
	"nutrilog/internal/storage"
)

type EstimateFoodParams struct {
	Text string `json:"text" description:"Meal description in English or Chinese, e.g. 'two bowls of rice and an egg'"`
}

type LogMealParams struct {
	Description string `json:"description" description:"Description of the meal eaten"`
	Note        string `json:"note,omitempty" description:"Extra detail folded into the estimate but not stored as the description"`
	Timestamp   string `json:"timestamp,omitempty" description:"RFC3339 timestamp of when the meal was eaten (defaults to now)"`
}

type UpdateMealParams struct {
	ID          string  `json:"id" description:"Meal ID returned by log_meal"`
	Description string  `json:"description,omitempty" description:"New description; triggers a re-estimate unless kcal is also given"`
	Kcal        float64 `json:"kcal,omitempty" description:"Manual calorie override"`
	Timestamp   string  `json:"timestamp,omitempty" description:"New RFC3339 timestamp for the meal"`
}

type DeleteMealParams struct {
	ID string `json:"id" description:"Meal ID to delete"`
}

type GetMealsParams struct {
	StartDate string `json:"start_date,omitempty" description:"Start date for meal query (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End date for meal query (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of meals to return"`
}

type LogWorkoutParams struct {
	AvgHR     float64 `json:"avg_hr" description:"Average heart rate in bpm"`
	Minutes   float64 `json:"minutes" description:"Workout duration in minutes"`
	Timestamp string  `json:"timestamp,omitempty" description:"RFC3339 start time of the workout (defaults to now)"`
}

type ImportWorkoutParams struct {
	Data   string `json:"data" description:"Recording contents; base64 for fit, raw text or base64 for csv"`
	Format string `json:"format,omitempty" description:"File format: csv (default) or fit"`
}

type GetWorkoutsParams struct {
	StartDate string `json:"start_date,omitempty" description:"Start date for workout query (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End date for workout query (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of workouts to return"`
}

type SetProfileParams struct {
	Age         int     `json:"age" description:"Age in years"`
	Sex         string  `json:"sex" description:"Biological sex: male or female"`
	WeightKg    float64 `json:"weight_kg" description:"Body weight in kilograms"`
	RestingHR   float64 `json:"resting_hr,omitempty" description:"Resting heart rate in bpm; enables training-load scoring"`
	MaxHR       float64 `json:"max_hr,omitempty" description:"Maximum heart rate in bpm; enables training-load scoring"`
	Calibration float64 `json:"calibration,omitempty" description:"Personal scale on energy estimates, clamped to [0.7, 1.3]"`
}

type DailySummaryParams struct {
	Date string `json:"date,omitempty" description:"Day to summarize (YYYY-MM-DD); defaults to today in UTC"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// handleEstimateFood runs the local estimator without logging anything
func (s *NutrilogServer) handleEstimateFood(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params EstimateFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if strings.TrimSpace(params.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	result := s.estimator.EstimateText(params.Text)
	return s.createJSONResponse(result)
}

// handleLogMeal estimates a described meal and stores it
func (s *NutrilogServer) handleLogMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("meal description is required")
	}

	now := time.Now().UTC()
	timestamp, err := parseTimestamp(params.Timestamp, now)
	if err != nil {
		return nil, err
	}

	// The note sharpens the estimate but is not part of the description.
	text := params.Description
	if params.Note != "" {
		text = text + " " + params.Note
	}
	local := s.estimator.EstimateText(text)

	meal := &models.Meal{
		ID:          uuid.NewString(),
		Description: params.Description,
		Timestamp:   timestamp,
		Source:      "estimator",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if local.OK {
		meal.Kcal = local.Kcal
		meal.Uncertainty = local.Kcal.Uncertainty
		meal.Foods = foodPortions(local.Foods)
		meal.Explanation = local.Explanation
	}

	if s.advisor != nil {
		opinion, err := s.advisor.EstimateMeal(context.Background(), text)
		if err != nil {
			log.Warn().Err(err).Msg("advisor unavailable, keeping local estimate")
		} else {
			var localEst estimate.Estimate
			if local.OK {
				localEst = estimate.Estimate{Kcal: local.Kcal.Mid, Uncertainty: local.Kcal.Uncertainty}
			}
			merged := estimate.Reconcile(localEst, opinion)
			meal.Kcal = models.NewCalorieRange(float64(merged.Kcal), merged.Uncertainty)
			meal.Uncertainty = merged.Uncertainty
			meal.Macros = merged.Macros
			meal.Source = "reconciled"
			if !local.OK {
				meal.Explanation = "no local food match; using advisor estimate"
			}
		}
	}

	// Nothing matched anywhere: don't store a zero-calorie meal, ask instead.
	if meal.Kcal.Mid <= 0 {
		return s.createJSONResponse(map[string]interface{}{
			"logged":    false,
			"message":   "could not estimate calories from the description",
			"followups": local.Followups,
		})
	}

	if err := s.storage.SaveMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}

	return s.createJSONResponse(meal)
}

// handleUpdateMeal edits a stored meal, re-estimating when the text changed
func (s *NutrilogServer) handleUpdateMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params UpdateMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.ID == "" {
		return nil, fmt.Errorf("meal id is required")
	}

	meal, err := s.storage.GetMeal(params.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal: %w", err)
	}

	if params.Description != "" && params.Description != meal.Description {
		meal.Description = params.Description
		if params.Kcal <= 0 {
			// Re-estimate locally; a rename with no food signal keeps the
			// previous numbers.
			local := s.estimator.EstimateText(params.Description)
			if local.OK {
				meal.Kcal = local.Kcal
				meal.Uncertainty = local.Kcal.Uncertainty
				meal.Foods = foodPortions(local.Foods)
				meal.Explanation = local.Explanation
				meal.Macros = models.Macros{}
				meal.Source = "estimator"
			}
		}
	}

	if params.Kcal > 0 {
		meal.Kcal = models.NewCalorieRange(params.Kcal, models.MinUncertainty)
		meal.Uncertainty = models.MinUncertainty
		meal.Foods = nil
		meal.Macros = models.Macros{}
		meal.Explanation = fmt.Sprintf("calories set manually to %d kcal", meal.Kcal.Mid)
		meal.Source = "manual"
	}

	if params.Timestamp != "" {
		timestamp, err := parseTimestamp(params.Timestamp, meal.Timestamp)
		if err != nil {
			return nil, err
		}
		meal.Timestamp = timestamp
	}

	meal.UpdatedAt = time.Now().UTC()
	if err := s.storage.ReplaceMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}

	return s.createJSONResponse(meal)
}

// handleDeleteMeal removes a meal and its food rows
func (s *NutrilogServer) handleDeleteMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.ID == "" {
		return nil, fmt.Errorf("meal id is required")
	}

	if err := s.storage.DeleteMeal(params.ID); err != nil {
		return nil, fmt.Errorf("failed to delete meal: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"deleted": true,
		"id":      params.ID,
	})
}

// handleGetMeals retrieves meals from storage
func (s *NutrilogServer) handleGetMeals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	meals, err := s.storage.ListMeals(params.StartDate, params.EndDate, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meals: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"meals": meals,
		"count": len(meals),
	})
}

// handleLogWorkout records a workout from average heart rate and duration
func (s *NutrilogServer) handleLogWorkout(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogWorkoutParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.AvgHR <= 0 || params.Minutes <= 0 {
		return nil, fmt.Errorf("avg_hr and minutes must be positive")
	}

	profile, err := s.requireProfile()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp, err := parseTimestamp(params.Timestamp, now)
	if err != nil {
		return nil, err
	}

	kcal := energy.FromAverage(*profile, params.AvgHR, params.Minutes)
	if kcal <= 0 {
		return nil, fmt.Errorf("profile is missing the fields energy estimation needs (sex, weight)")
	}

	workout := &models.Workout{
		ID:           uuid.NewString(),
		Timestamp:    timestamp,
		Kcal:         kcal,
		Minutes:      params.Minutes,
		AvgHR:        params.AvgHR,
		TrainingLoad: energy.TrainingLoad(params.Minutes, params.AvgHR, profile.RestingHR, profile.MaxHR, profile.Sex),
		Source:       "average",
		CreatedAt:    now,
	}
	if err := s.storage.SaveWorkout(workout); err != nil {
		return nil, fmt.Errorf("failed to save workout: %w", err)
	}

	return s.createJSONResponse(workout)
}

// handleImportWorkout parses an exported recording and records the workout
func (s *NutrilogServer) handleImportWorkout(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ImportWorkoutParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Data == "" {
		return nil, fmt.Errorf("data is required")
	}

	series, err := decodeSeries(params)
	if err != nil {
		return nil, err
	}

	profile, err := s.requireProfile()
	if err != nil {
		return nil, err
	}

	est := energy.FromSeries(*profile, series)
	if est.Minutes <= 0 {
		return nil, fmt.Errorf("heart-rate series has no usable intervals")
	}

	workout := &models.Workout{
		ID:           uuid.NewString(),
		Timestamp:    series[0].Timestamp,
		Kcal:         est.Kcal,
		Minutes:      est.Minutes,
		AvgHR:        est.AvgHR,
		TrainingLoad: est.TrainingLoad,
		Source:       "import",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.SaveWorkout(workout); err != nil {
		return nil, fmt.Errorf("failed to save workout: %w", err)
	}

	return s.createJSONResponse(workout)
}

// handleGetWorkouts retrieves workouts from storage
func (s *NutrilogServer) handleGetWorkouts(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetWorkoutsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	workouts, err := s.storage.ListWorkouts(params.StartDate, params.EndDate, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve workouts: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"workouts": workouts,
		"count":    len(workouts),
	})
}

// handleGetProfile returns the stored profile
func (s *NutrilogServer) handleGetProfile(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	profile, err := s.requireProfile()
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(profile)
}

// handleSetProfile validates and upserts the single user profile
func (s *NutrilogServer) handleSetProfile(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SetProfileParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	sex := models.Sex(strings.ToLower(params.Sex))
	if !sex.Valid() {
		return nil, fmt.Errorf("sex must be %q or %q", models.SexMale, models.SexFemale)
	}
	if params.Age <= 0 || params.Age > 120 {
		return nil, fmt.Errorf("age must be between 1 and 120")
	}
	if params.WeightKg <= 0 {
		return nil, fmt.Errorf("weight_kg must be positive")
	}
	if params.RestingHR < 0 || params.MaxHR < 0 || params.Calibration < 0 {
		return nil, fmt.Errorf("resting_hr, max_hr and calibration cannot be negative")
	}
	if params.RestingHR > 0 && params.MaxHR > 0 && params.MaxHR <= params.RestingHR {
		return nil, fmt.Errorf("max_hr must exceed resting_hr")
	}

	profile := &models.Profile{
		Age:         params.Age,
		Sex:         sex,
		WeightKg:    params.WeightKg,
		RestingHR:   params.RestingHR,
		MaxHR:       params.MaxHR,
		Calibration: params.Calibration,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.storage.SaveProfile(profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return s.createJSONResponse(profile)
}

// handleDailySummary totals one calendar day of meals and workouts
func (s *NutrilogServer) handleDailySummary(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DailySummaryParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	date := params.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	summary, err := s.storage.DailySummary(date)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", date, err)
	}

	return s.createJSONResponse(summary)
}

func (s *NutrilogServer) requireProfile() (*models.Profile, error) {
	profile, err := s.storage.GetProfile()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no profile saved yet; call set_profile first")
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func decodeSeries(params ImportWorkoutParams) (models.HeartRateSeries, error) {
	switch strings.ToLower(params.Format) {
	case "", "csv":
		text := params.Data
		// Clients may base64-wrap text files too; raw CSV never decodes as
		// base64 because of its commas and newlines.
		if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(params.Data)); err == nil {
			text = string(decoded)
		}
		return ingest.ImportText(text)
	case "fit":
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(params.Data))
		if err != nil {
			return nil, fmt.Errorf("fit data must be base64-encoded: %w", err)
		}
		return ingest.FromFIT(raw)
	default:
		return nil, fmt.Errorf("unsupported format %q (expected csv or fit)", params.Format)
	}
}

func parseTimestamp(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %w", err)
	}
	return ts.UTC(), nil
}

func foodPortions(foods []estimate.FoodMatch) []models.FoodPortion {
	if len(foods) == 0 {
		return nil
	}
	portions := make([]models.FoodPortion, 0, len(foods))
	for _, f := range foods {
		portions = append(portions, models.FoodPortion{
			Name:     f.Name,
			Quantity: f.Quantity,
			Kcal:     f.Kcal,
		})
	}
	return portions
}

// Register all tools - routed by name in the HTTP handler
func (s *NutrilogServer) registerTools() error {
	s.tools = map[string]toolHandler{
		"estimate_food":  s.handleEstimateFood,
		"log_meal":       s.handleLogMeal,
		"update_meal":    s.handleUpdateMeal,
		"delete_meal":    s.handleDeleteMeal,
		"get_meals":      s.handleGetMeals,
		"log_workout":    s.handleLogWorkout,
		"import_workout": s.handleImportWorkout,
		"get_workouts":   s.handleGetWorkouts,
		"get_profile":    s.handleGetProfile,
		"set_profile":    s.handleSetProfile,
		"daily_summary":  s.handleDailySummary,
	}

	for name := range s.tools {
		log.Debug().Str("tool", name).Msg("registered tool")
	}

	return nil
}
