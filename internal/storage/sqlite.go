// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"nutrilog/internal/models"
)

// ErrNotFound reports that no record has the requested id (or, for the
// profile, that none has been saved yet).
var ErrNotFound = errors.New("record not found")

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("database ready")
	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	log.Debug().Msg("closing database")
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        description TEXT NOT NULL,
        timestamp DATETIME NOT NULL,
        kcal_low INTEGER NOT NULL,
        kcal_mid INTEGER NOT NULL,
        kcal_high INTEGER NOT NULL,
        uncertainty REAL NOT NULL,
        protein_g REAL NOT NULL DEFAULT 0,
        carbs_g REAL NOT NULL DEFAULT 0,
        fat_g REAL NOT NULL DEFAULT 0,
        explanation TEXT NOT NULL DEFAULT '',
        source TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_id TEXT NOT NULL,
        name TEXT NOT NULL,
        quantity TEXT NOT NULL,
        kcal_low INTEGER NOT NULL,
        kcal_mid INTEGER NOT NULL,
        kcal_high INTEGER NOT NULL,
        uncertainty REAL NOT NULL,
        FOREIGN KEY (meal_id) REFERENCES meals(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS workouts (
        id TEXT PRIMARY KEY,
        timestamp DATETIME NOT NULL,
        kcal INTEGER NOT NULL,
        minutes REAL NOT NULL,
        avg_hr REAL NOT NULL,
        training_load REAL NOT NULL,
        source TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS profile (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        age INTEGER NOT NULL,
        sex TEXT NOT NULL,
        weight_kg REAL NOT NULL,
        resting_hr REAL NOT NULL DEFAULT 0,
        max_hr REAL NOT NULL DEFAULT 0,
        calibration REAL NOT NULL DEFAULT 0,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_meals_timestamp ON meals(timestamp);
    CREATE INDEX IF NOT EXISTS idx_meal_foods_meal_id ON meal_foods(meal_id);
    CREATE INDEX IF NOT EXISTS idx_workouts_timestamp ON workouts(timestamp);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// formatTime is the single on-disk timestamp encoding. Everything is
// stored UTC so DATE() grouping is stable across machines.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *SQLiteStorage) SaveMeal(meal *models.Meal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	mealQuery := `
        INSERT INTO meals (id, description, timestamp, kcal_low, kcal_mid, kcal_high,
            uncertainty, protein_g, carbs_g, fat_g, explanation, source, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.Exec(mealQuery,
		meal.ID, meal.Description, formatTime(meal.Timestamp),
		meal.Kcal.Low, meal.Kcal.Mid, meal.Kcal.High, meal.Uncertainty,
		meal.Macros.ProteinG, meal.Macros.CarbsG, meal.Macros.FatG,
		meal.Explanation, meal.Source,
		formatTime(meal.CreatedAt), formatTime(meal.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}

	if err := insertFoods(tx, meal.ID, meal.Foods); err != nil {
		return err
	}

	return tx.Commit()
}

func insertFoods(tx *sql.Tx, mealID string, foods []models.FoodPortion) error {
	foodQuery := `
        INSERT INTO meal_foods (meal_id, name, quantity, kcal_low, kcal_mid, kcal_high, uncertainty)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	for _, food := range foods {
		_, err := tx.Exec(foodQuery,
			mealID, food.Name, food.Quantity,
			food.Kcal.Low, food.Kcal.Mid, food.Kcal.High, food.Kcal.Uncertainty)
		if err != nil {
			return fmt.Errorf("failed to insert food: %w", err)
		}
	}
	return nil
}

// ReplaceMeal updates a meal in place, swapping its food rows in the same
// transaction so a reader never sees the new meal with the old foods.
func (s *SQLiteStorage) ReplaceMeal(meal *models.Meal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
        UPDATE meals SET description = ?, timestamp = ?, kcal_low = ?, kcal_mid = ?,
            kcal_high = ?, uncertainty = ?, protein_g = ?, carbs_g = ?, fat_g = ?,
            explanation = ?, source = ?, updated_at = ?
        WHERE id = ?
    `
	res, err := tx.Exec(updateQuery,
		meal.Description, formatTime(meal.Timestamp),
		meal.Kcal.Low, meal.Kcal.Mid, meal.Kcal.High, meal.Uncertainty,
		meal.Macros.ProteinG, meal.Macros.CarbsG, meal.Macros.FatG,
		meal.Explanation, meal.Source, formatTime(meal.UpdatedAt), meal.ID)
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("meal %s: %w", meal.ID, ErrNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM meal_foods WHERE meal_id = ?`, meal.ID); err != nil {
		return fmt.Errorf("failed to clear foods: %w", err)
	}
	if err := insertFoods(tx, meal.ID, meal.Foods); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) DeleteMeal(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM meal_foods WHERE meal_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete foods: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("meal %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

const mealColumns = `id, description, timestamp, kcal_low, kcal_mid, kcal_high,
    uncertainty, protein_g, carbs_g, fat_g, explanation, source, created_at, updated_at`

func (s *SQLiteStorage) GetMeal(id string) (*models.Meal, error) {
	row := s.db.QueryRow(`SELECT `+mealColumns+` FROM meals WHERE id = ?`, id)
	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("meal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadFoodsForMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to load foods for meal %s: %w", meal.ID, err)
	}
	return meal, nil
}

func (s *SQLiteStorage) ListMeals(startDate, endDate string, limit int) ([]*models.Meal, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE 1=1`
	args := []interface{}{}

	if startDate != "" {
		query += " AND DATE(timestamp) >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND DATE(timestamp) <= ?"
		args = append(args, endDate)
	}

	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		if err := s.loadFoodsForMeal(meal); err != nil {
			return nil, fmt.Errorf("failed to load foods for meal %s: %w", meal.ID, err)
		}
		meals = append(meals, meal)
	}

	return meals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeal(row rowScanner) (*models.Meal, error) {
	meal := &models.Meal{}
	var timestampStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&meal.ID, &meal.Description, &timestampStr,
		&meal.Kcal.Low, &meal.Kcal.Mid, &meal.Kcal.High, &meal.Uncertainty,
		&meal.Macros.ProteinG, &meal.Macros.CarbsG, &meal.Macros.FatG,
		&meal.Explanation, &meal.Source, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan meal: %w", err)
	}

	if meal.Timestamp, err = time.Parse(time.RFC3339, timestampStr); err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	if meal.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meal.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	// The range carries the stored band; its own uncertainty field mirrors
	// the meal-level one clamped into range limits.
	meal.Kcal.Uncertainty = models.ClampUncertainty(meal.Uncertainty)
	return meal, nil
}

func (s *SQLiteStorage) loadFoodsForMeal(meal *models.Meal) error {
	query := `
        SELECT name, quantity, kcal_low, kcal_mid, kcal_high, uncertainty
        FROM meal_foods
        WHERE meal_id = ?
        ORDER BY id
    `

	rows, err := s.db.Query(query, meal.ID)
	if err != nil {
		return fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var foods []models.FoodPortion
	for rows.Next() {
		food := models.FoodPortion{}
		err := rows.Scan(
			&food.Name, &food.Quantity,
			&food.Kcal.Low, &food.Kcal.Mid, &food.Kcal.High, &food.Kcal.Uncertainty)
		if err != nil {
			return fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}

	meal.Foods = foods
	return rows.Err()
}

func (s *SQLiteStorage) SaveWorkout(w *models.Workout) error {
	query := `
        INSERT INTO workouts (id, timestamp, kcal, minutes, avg_hr, training_load, source, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.Exec(query,
		w.ID, formatTime(w.Timestamp), w.Kcal, w.Minutes, w.AvgHR,
		w.TrainingLoad, w.Source, formatTime(w.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListWorkouts(startDate, endDate string, limit int) ([]*models.Workout, error) {
	query := `
        SELECT id, timestamp, kcal, minutes, avg_hr, training_load, source, created_at
        FROM workouts
        WHERE 1=1
    `
	args := []interface{}{}

	if startDate != "" {
		query += " AND DATE(timestamp) >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND DATE(timestamp) <= ?"
		args = append(args, endDate)
	}

	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*models.Workout
	for rows.Next() {
		w := &models.Workout{}
		var timestampStr, createdAtStr string

		err := rows.Scan(&w.ID, &timestampStr, &w.Kcal, &w.Minutes,
			&w.AvgHR, &w.TrainingLoad, &w.Source, &createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}

		if w.Timestamp, err = time.Parse(time.RFC3339, timestampStr); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		if w.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		workouts = append(workouts, w)
	}

	return workouts, rows.Err()
}

// SaveProfile upserts the single profile row.
func (s *SQLiteStorage) SaveProfile(p *models.Profile) error {
	query := `
        INSERT INTO profile (id, age, sex, weight_kg, resting_hr, max_hr, calibration, updated_at)
        VALUES (1, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            age = excluded.age,
            sex = excluded.sex,
            weight_kg = excluded.weight_kg,
            resting_hr = excluded.resting_hr,
            max_hr = excluded.max_hr,
            calibration = excluded.calibration,
            updated_at = excluded.updated_at
    `
	_, err := s.db.Exec(query,
		p.Age, string(p.Sex), p.WeightKg, p.RestingHR, p.MaxHR,
		p.Calibration, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetProfile() (*models.Profile, error) {
	query := `
        SELECT age, sex, weight_kg, resting_hr, max_hr, calibration, updated_at
        FROM profile WHERE id = 1
    `
	p := &models.Profile{}
	var sexStr, updatedAtStr string

	err := s.db.QueryRow(query).Scan(
		&p.Age, &sexStr, &p.WeightKg, &p.RestingHR, &p.MaxHR,
		&p.Calibration, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.Sex = models.Sex(sexStr)
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return p, nil
}

// DailySummary aggregates meals and workouts for one calendar day
// (YYYY-MM-DD, UTC).
func (s *SQLiteStorage) DailySummary(date string) (*models.DailySummary, error) {
	summary := &models.DailySummary{Date: date}

	mealQuery := `
        SELECT COUNT(*), COALESCE(SUM(kcal_mid), 0), COALESCE(SUM(kcal_low), 0), COALESCE(SUM(kcal_high), 0)
        FROM meals WHERE DATE(timestamp) = ?
    `
	err := s.db.QueryRow(mealQuery, date).Scan(
		&summary.MealCount, &summary.KcalIn, &summary.KcalInLow, &summary.KcalInHigh)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize meals: %w", err)
	}

	workoutQuery := `
        SELECT COUNT(*), COALESCE(SUM(kcal), 0), COALESCE(SUM(minutes), 0), COALESCE(SUM(training_load), 0)
        FROM workouts WHERE DATE(timestamp) = ?
    `
	err = s.db.QueryRow(workoutQuery, date).Scan(
		&summary.WorkoutCount, &summary.KcalOut, &summary.Minutes, &summary.TrainingLoad)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize workouts: %w", err)
	}

	summary.Net = summary.KcalIn - summary.KcalOut
	return summary, nil
}
