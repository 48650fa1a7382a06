// internal/cmd/import.go
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nutrilog/internal/energy"
	"nutrilog/internal/models"
	"nutrilog/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import [files]",
	Short: "Import heart-rate recordings as workouts",
	Long: `Import parses one or more heart-rate recordings (.csv or .fit),
estimates the energy for each using the stored profile, and saves the
workouts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	stor, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer stor.Close()

	profile, err := stor.GetProfile()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stored profile; run 'nutrilog profile' first")
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	// Parse and estimate concurrently, fail on the first bad file.
	workouts := make([]*models.Workout, len(args))
	var g errgroup.Group
	for i, path := range args {
		i, path := i, path // per-iteration copies; this module builds with pre-1.22 loop semantics
		g.Go(func() error {
			series, err := loadSeries(path)
			if err != nil {
				return err
			}
			est := energy.FromSeries(*profile, series)
			if est.Minutes <= 0 {
				return fmt.Errorf("%s: no usable heart-rate intervals", path)
			}
			workouts[i] = &models.Workout{
				ID:           uuid.NewString(),
				Timestamp:    series[0].Timestamp,
				Kcal:         est.Kcal,
				Minutes:      est.Minutes,
				AvgHR:        est.AvgHR,
				TrainingLoad: est.TrainingLoad,
				Source:       "import",
				CreatedAt:    time.Now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// SQLite serializes writes anyway, keep them on one goroutine.
	for i, workout := range workouts {
		if err := stor.SaveWorkout(workout); err != nil {
			return fmt.Errorf("failed to save %s: %w", args[i], err)
		}
		fmt.Printf("%s: %d kcal over %.0f min (avg %.0f bpm)\n",
			args[i], workout.Kcal, workout.Minutes, workout.AvgHR)
	}

	return nil
}
