// internal/energy/energy.go

// Package energy estimates workout expenditure from heart-rate data using
// the Keytel et al. (2005) regressions, and scores training load with a
// Banister-style TRIMP. All functions are pure; calibration and sex come
// from the profile.
package energy

import (
	"math"
	"time"

	"nutrilog/internal/models"
)

// Keytel et al. (2005) coefficients, kJ/min. The published model is
// sex-specific; there is no unisex variant.
const (
	maleIntercept = -55.0969
	maleHR        = 0.6309
	maleWeight    = 0.1988
	maleAge       = 0.2017

	femaleIntercept = -20.4022
	femaleHR        = 0.4472
	femaleWeight    = -0.1263
	femaleAge       = 0.074

	kjPerKcal = 4.184
)

const (
	// The regression goes negative at low heart rates; a living body
	// still burns something, so per-minute output is floored here.
	floorKcalPerMin = 0.5

	// Consecutive samples further apart than this are a monitor dropout
	// or a pause, not a workout segment.
	maxSampleGap = 10 * time.Minute
)

// PerMinute returns kcal burned per minute at a steady heart rate, floored
// at floorKcalPerMin. The profile's calibration is not applied here; the
// whole-workout functions apply it once at the end.
func PerMinute(p models.Profile, bpm float64) float64 {
	var kj float64
	switch p.Sex {
	case models.SexFemale:
		kj = femaleIntercept + femaleHR*bpm + femaleWeight*p.WeightKg + femaleAge*float64(p.Age)
	default:
		kj = maleIntercept + maleHR*bpm + maleWeight*p.WeightKg + maleAge*float64(p.Age)
	}
	kcal := kj / kjPerKcal
	if kcal < floorKcalPerMin {
		return floorKcalPerMin
	}
	return kcal
}

// FromAverage estimates a whole workout from its average heart rate and
// duration. It returns 0 when the profile or inputs cannot support an
// estimate; callers treat that as "unknown", never as "zero calories".
func FromAverage(p models.Profile, avgHR, minutes float64) int {
	if !p.Sex.Valid() || p.WeightKg <= 0 || avgHR <= 0 || minutes <= 0 {
		return 0
	}
	return int(math.Round(PerMinute(p, avgHR) * minutes * p.CalibrationFactor()))
}

// FromSeries integrates a heart-rate series sample by sample: each pair of
// consecutive samples contributes the earlier sample's per-minute rate for
// the gap between them. Non-positive gaps and dropouts longer than
// maxSampleGap contribute nothing, so a paused watch does not inflate the
// workout. The reported average heart rate is the mean over the samples
// that actually counted, not over the whole input.
func FromSeries(p models.Profile, series models.HeartRateSeries) models.WorkoutEstimate {
	if !p.Sex.Valid() || p.WeightKg <= 0 || len(series) < 2 {
		return models.WorkoutEstimate{}
	}

	s := make(models.HeartRateSeries, len(series))
	copy(s, series)
	s.Sort()

	var kcal, minutes, hrSum float64
	var used int
	for i := 1; i < len(s); i++ {
		gap := s[i].Timestamp.Sub(s[i-1].Timestamp).Minutes()
		if gap <= 0 || gap > maxSampleGap.Minutes() {
			continue
		}
		kcal += PerMinute(p, s[i-1].BPM) * gap
		hrSum += s[i-1].BPM
		minutes += gap
		used++
	}
	if used == 0 {
		return models.WorkoutEstimate{}
	}

	est := models.WorkoutEstimate{
		Kcal:    int(math.Round(kcal * p.CalibrationFactor())),
		Minutes: minutes,
		AvgHR:   hrSum / float64(used),
	}
	est.TrainingLoad = TrainingLoad(est.Minutes, est.AvgHR, p.RestingHR, p.MaxHR, p.Sex)
	return est
}
