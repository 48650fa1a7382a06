// internal/models/series.go
package models

import (
	"sort"
	"time"
)

// HeartRateSample is one monitor reading.
type HeartRateSample struct {
	Timestamp time.Time `json:"timestamp"`
	BPM       float64   `json:"bpm"`
}

// HeartRateSeries is a sequence of samples. Consumers sort it before
// integrating; duplicate timestamps are legal and kept.
type HeartRateSeries []HeartRateSample

// Sort orders the series by timestamp. The sort is stable so samples that
// share a timestamp keep their input order.
func (s HeartRateSeries) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Span is the wall-clock distance between the first and last sample of a
// sorted series.
func (s HeartRateSeries) Span() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Timestamp.Sub(s[0].Timestamp)
}
