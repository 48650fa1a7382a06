// internal/ingest/series_test.go
package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestToSeries(t *testing.T) {
	raw := "timestamp,heart_rate\n" +
		"2024-03-01 07:05:00,135\n" +
		"2024-03-01 07:00:00,120\n" +
		"not-a-time,140\n" +
		"2024-03-01 07:10:00,abc\n" +
		"2024-03-01 07:15:00,150\n" +
		"2024-03-01 07:20:00,-5\n" +
		"2024-03-01 07:25:00,inf\n"

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	series, err := ToSeries(doc)
	if err != nil {
		t.Fatalf("ToSeries: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("series = %v, want the 3 usable rows", series)
	}
	// Output is sorted even though the input was not.
	wantBPM := []float64{120, 135, 150}
	for i, want := range wantBPM {
		if series[i].BPM != want {
			t.Errorf("series[%d].BPM = %v, want %v", i, series[i].BPM, want)
		}
	}
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp.Before(series[i-1].Timestamp) {
			t.Errorf("series not sorted at %d: %v after %v", i, series[i].Timestamp, series[i-1].Timestamp)
		}
	}
}

func TestToSeriesInsufficient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"header only", "time,hr\n"},
		{"one valid row", "time,hr\n2024-03-01 07:00:00,120\nbad,bad\n"},
		{"all rows corrupt", "time,hr\nx,y\nz,w\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportText(tt.raw); !errors.Is(err, ErrInsufficientData) {
				t.Errorf("error = %v, want ErrInsufficientData", err)
			}
		})
	}
}

func TestImportTextChineseExport(t *testing.T) {
	raw := "时间;心率\n2024/03/01 07:00:00;98\n2024/03/01 07:05:00;101\n"
	series, err := ImportText(raw)
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	if len(series) != 2 || series[0].BPM != 98 || series[1].BPM != 101 {
		t.Fatalf("series = %v, want two samples at 98 and 101 bpm", series)
	}
	want := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	if !series[0].Timestamp.Equal(want) {
		t.Errorf("first timestamp = %v, want %v", series[0].Timestamp, want)
	}
}

func TestImportTextEpochSeconds(t *testing.T) {
	raw := "t,bpm\n1709276400,100\n1709276700,110\n"
	series, err := ImportText(raw)
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	if got := series.Span(); got != 5*time.Minute {
		t.Errorf("span = %v, want 5m", got)
	}
}

func TestSeriesFromColumns(t *testing.T) {
	rows := []map[string]string{
		{"when": "2024-03-01 07:00:00", "rate": "118", "junk": "x"},
		{"when": "2024-03-01 07:01:00", "rate": " 121 "},
	}
	series, err := SeriesFromColumns(rows, "when", "rate")
	if err != nil {
		t.Fatalf("SeriesFromColumns: %v", err)
	}
	if len(series) != 2 || series[1].BPM != 121 {
		t.Fatalf("series = %v, want 118 then 121", series)
	}
}
