// internal/cmd/profile.go
package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nutrilog/internal/models"
	"nutrilog/internal/storage"
)

var (
	profileSex         string
	profileAge         int
	profileWeightKg    float64
	profileRestingHR   float64
	profileMaxHR       float64
	profileCalibration float64
)

var profileFlagNames = []string{"sex", "age", "weight-kg", "resting-hr", "max-hr", "calibration"}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the stored profile",
	Long: `Profile prints the stored profile, or updates it when any field flag is
set. Energy estimation needs at least sex, age and weight.`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVar(&profileSex, "sex", "", "male or female")
	profileCmd.Flags().IntVar(&profileAge, "age", 0, "Age in years")
	profileCmd.Flags().Float64Var(&profileWeightKg, "weight-kg", 0, "Body weight in kg")
	profileCmd.Flags().Float64Var(&profileRestingHR, "resting-hr", 0, "Resting heart rate in bpm")
	profileCmd.Flags().Float64Var(&profileMaxHR, "max-hr", 0, "Maximum heart rate in bpm")
	profileCmd.Flags().Float64Var(&profileCalibration, "calibration", 0, "Personal energy scale, clamped to [0.7, 1.3]")
}

func runProfile(cmd *cobra.Command, args []string) error {
	stor, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer stor.Close()

	updating := false
	for _, name := range profileFlagNames {
		if cmd.Flags().Changed(name) {
			updating = true
		}
	}
	if !updating {
		profile, err := stor.GetProfile()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no profile saved yet; set one with the field flags")
			}
			return fmt.Errorf("failed to load profile: %w", err)
		}
		printProfile(profile)
		return nil
	}

	profile := models.Profile{}
	if stored, err := stor.GetProfile(); err == nil {
		profile = *stored
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	profile = mergeProfile(profile, models.Profile{
		Age:         profileAge,
		Sex:         models.Sex(strings.ToLower(profileSex)),
		WeightKg:    profileWeightKg,
		RestingHR:   profileRestingHR,
		MaxHR:       profileMaxHR,
		Calibration: profileCalibration,
	})

	if !profile.Sex.Valid() {
		return fmt.Errorf("--sex must be %q or %q", models.SexMale, models.SexFemale)
	}
	if profile.Age <= 0 || profile.Age > 120 {
		return fmt.Errorf("--age must be between 1 and 120")
	}
	if profile.WeightKg <= 0 {
		return fmt.Errorf("--weight-kg must be positive")
	}
	if profile.RestingHR > 0 && profile.MaxHR > 0 && profile.MaxHR <= profile.RestingHR {
		return fmt.Errorf("--max-hr must exceed --resting-hr")
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := stor.SaveProfile(&profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	printProfile(&profile)
	return nil
}

func printProfile(p *models.Profile) {
	fmt.Printf("sex:         %s\n", p.Sex)
	fmt.Printf("age:         %d\n", p.Age)
	fmt.Printf("weight:      %.1f kg\n", p.WeightKg)
	if p.RestingHR > 0 {
		fmt.Printf("resting hr:  %.0f bpm\n", p.RestingHR)
	}
	if p.MaxHR > 0 {
		fmt.Printf("max hr:      %.0f bpm\n", p.MaxHR)
	}
	fmt.Printf("calibration: %.2f\n", p.CalibrationFactor())
}
