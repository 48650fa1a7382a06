// internal/cmd/workout.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"nutrilog/internal/energy"
	"nutrilog/internal/ingest"
	"nutrilog/internal/models"
	"nutrilog/internal/storage"
)

var (
	workoutAvgHR       float64
	workoutMinutes     float64
	workoutFile        string
	workoutSex         string
	workoutAge         int
	workoutWeightKg    float64
	workoutRestingHR   float64
	workoutMaxHR       float64
	workoutCalibration float64
	workoutSave        bool
)

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Estimate workout energy from heart rate",
	Long: `Workout estimates energy expenditure either from an average heart rate
and duration, or from a recorded series (--file x.csv or x.fit). Profile
fields come from the stored profile; flags override them.`,
	RunE: runWorkout,
}

func init() {
	rootCmd.AddCommand(workoutCmd)

	workoutCmd.Flags().Float64Var(&workoutAvgHR, "avg-hr", 0, "Average heart rate in bpm")
	workoutCmd.Flags().Float64Var(&workoutMinutes, "minutes", 0, "Duration in minutes")
	workoutCmd.Flags().StringVar(&workoutFile, "file", "", "Heart-rate recording (.csv or .fit) to estimate from")
	workoutCmd.Flags().StringVar(&workoutSex, "sex", "", "male or female (overrides stored profile)")
	workoutCmd.Flags().IntVar(&workoutAge, "age", 0, "Age in years (overrides stored profile)")
	workoutCmd.Flags().Float64Var(&workoutWeightKg, "weight-kg", 0, "Body weight in kg (overrides stored profile)")
	workoutCmd.Flags().Float64Var(&workoutRestingHR, "resting-hr", 0, "Resting heart rate in bpm")
	workoutCmd.Flags().Float64Var(&workoutMaxHR, "max-hr", 0, "Maximum heart rate in bpm")
	workoutCmd.Flags().Float64Var(&workoutCalibration, "calibration", 0, "Personal energy scale, clamped to [0.7, 1.3]")
	workoutCmd.Flags().BoolVar(&workoutSave, "save", false, "Also store the workout in the log")
}

func runWorkout(cmd *cobra.Command, args []string) error {
	if workoutFile == "" && (workoutAvgHR <= 0 || workoutMinutes <= 0) {
		return fmt.Errorf("need --file, or both --avg-hr and --minutes")
	}

	var stor *storage.SQLiteStorage
	defer func() {
		if stor != nil {
			stor.Close()
		}
	}()
	openStore := func() error {
		if stor != nil {
			return nil
		}
		var err error
		stor, err = storage.NewSQLiteStorage(databasePath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	}

	profile := models.Profile{
		Age:         workoutAge,
		Sex:         models.Sex(strings.ToLower(workoutSex)),
		WeightKg:    workoutWeightKg,
		RestingHR:   workoutRestingHR,
		MaxHR:       workoutMaxHR,
		Calibration: workoutCalibration,
	}
	if !profile.Sex.Valid() || profile.WeightKg <= 0 || profile.Age <= 0 {
		if err := openStore(); err != nil {
			return err
		}
		stored, err := stor.GetProfile()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no stored profile; pass --sex, --age and --weight-kg or run 'nutrilog profile' first")
			}
			return fmt.Errorf("failed to load profile: %w", err)
		}
		profile = mergeProfile(*stored, profile)
	}

	var est models.WorkoutEstimate
	var source string
	startedAt := time.Now().UTC()

	if workoutFile != "" {
		series, err := loadSeries(workoutFile)
		if err != nil {
			return err
		}
		est = energy.FromSeries(profile, series)
		if est.Minutes <= 0 {
			return fmt.Errorf("%s: no usable heart-rate intervals", workoutFile)
		}
		source = "series"
		startedAt = series[0].Timestamp
	} else {
		kcal := energy.FromAverage(profile, workoutAvgHR, workoutMinutes)
		if kcal <= 0 {
			return fmt.Errorf("profile is missing the fields energy estimation needs (sex, weight)")
		}
		est = models.WorkoutEstimate{
			Kcal:         kcal,
			Minutes:      workoutMinutes,
			AvgHR:        workoutAvgHR,
			TrainingLoad: energy.TrainingLoad(workoutMinutes, workoutAvgHR, profile.RestingHR, profile.MaxHR, profile.Sex),
		}
		source = "average"
	}

	fmt.Printf("%d kcal over %.0f min (avg %.0f bpm)\n", est.Kcal, est.Minutes, est.AvgHR)
	if est.TrainingLoad > 0 {
		fmt.Printf("training load: %.1f\n", est.TrainingLoad)
	}

	if workoutSave {
		if err := openStore(); err != nil {
			return err
		}
		workout := &models.Workout{
			ID:           uuid.NewString(),
			Timestamp:    startedAt,
			Kcal:         est.Kcal,
			Minutes:      est.Minutes,
			AvgHR:        est.AvgHR,
			TrainingLoad: est.TrainingLoad,
			Source:       source,
			CreatedAt:    time.Now().UTC(),
		}
		if err := stor.SaveWorkout(workout); err != nil {
			return fmt.Errorf("failed to save workout: %w", err)
		}
		log.Info().Str("id", workout.ID).Int("kcal", workout.Kcal).Msg("workout saved")
	}

	return nil
}

// mergeProfile overlays the non-zero flag fields on the stored profile.
func mergeProfile(stored, flags models.Profile) models.Profile {
	out := stored
	if flags.Sex.Valid() {
		out.Sex = flags.Sex
	}
	if flags.Age > 0 {
		out.Age = flags.Age
	}
	if flags.WeightKg > 0 {
		out.WeightKg = flags.WeightKg
	}
	if flags.RestingHR > 0 {
		out.RestingHR = flags.RestingHR
	}
	if flags.MaxHR > 0 {
		out.MaxHR = flags.MaxHR
	}
	if flags.Calibration > 0 {
		out.Calibration = flags.Calibration
	}
	return out
}

// loadSeries reads one heart-rate recording, choosing the decoder by file
// extension.
func loadSeries(path string) (models.HeartRateSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".fit") {
		series, err := ingest.FromFIT(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return series, nil
	}
	series, err := ingest.ImportText(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}
