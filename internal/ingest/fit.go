// internal/ingest/fit.go
package ingest

import (
	"bytes"
	"fmt"

	"github.com/tormoder/fit"

	"nutrilog/internal/models"
)

// invalidHR is the FIT sentinel for an absent uint8 heart-rate field.
const invalidHR = ^uint8(0)

// FromFIT decodes a Garmin FIT activity file into a heart-rate series.
// Records without a valid heart rate are skipped; the same two-sample
// minimum as delimited imports applies.
func FromFIT(data []byte) (models.HeartRateSeries, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("read fit activity: %w", err)
	}

	series := make(models.HeartRateSeries, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil || rec.HeartRate == 0 || rec.HeartRate == invalidHR || rec.Timestamp.IsZero() {
			continue
		}
		series = append(series, models.HeartRateSample{
			Timestamp: rec.Timestamp,
			BPM:       float64(rec.HeartRate),
		})
	}
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}
	series.Sort()
	return series, nil
}
