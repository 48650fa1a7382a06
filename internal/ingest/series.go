// internal/ingest/series.go
package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"nutrilog/internal/models"
)

// ErrInsufficientData reports that an import yielded fewer than two
// usable heart-rate samples, which is not enough to integrate over.
var ErrInsufficientData = errors.New("insufficient heart-rate data")

// ToSeries reduces a parsed document into a sorted heart-rate series,
// auto-detecting the time and heart-rate columns.
func ToSeries(doc *Document) (models.HeartRateSeries, error) {
	if doc == nil || len(doc.Headers) == 0 {
		return nil, ErrInsufficientData
	}
	timeCol, hrCol := DetectColumns(doc.Headers)
	return SeriesFromColumns(doc.Rows, timeCol, hrCol)
}

// SeriesFromColumns is ToSeries with the columns already chosen. Rows
// whose timestamp does not parse or whose heart rate is not a positive
// finite number are dropped; corrupt rows in a real export are normal,
// not an error.
func SeriesFromColumns(rows []map[string]string, timeCol, hrCol string) (models.HeartRateSeries, error) {
	series := make(models.HeartRateSeries, 0, len(rows))
	for _, row := range rows {
		ts, ok := ParseTimestamp(row[timeCol])
		if !ok {
			continue
		}
		bpm, err := strconv.ParseFloat(strings.TrimSpace(row[hrCol]), 64)
		if err != nil || math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
			continue
		}
		series = append(series, models.HeartRateSample{Timestamp: ts, BPM: bpm})
	}
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}
	series.Sort()
	return series, nil
}

// ImportText parses raw delimited text straight into a series.
func ImportText(raw string) (models.HeartRateSeries, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return ToSeries(doc)
}
