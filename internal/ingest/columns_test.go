// internal/ingest/columns_test.go
package ingest

import (
	"testing"
	"time"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		timeCol string
		hrCol   string
	}{
		{"english", []string{"timestamp", "heart_rate"}, "timestamp", "heart_rate"},
		{"chinese", []string{"时间", "心率"}, "时间", "心率"},
		{"mixed case", []string{"Date", "Pulse"}, "Date", "Pulse"},
		{"labels with noise", []string{"elapsed time", "HR (bpm)"}, "elapsed time", "HR (bpm)"},
		{"hints out of order", []string{"bpm", "recorded time"}, "recorded time", "bpm"},
		{"no hints", []string{"a", "b", "c"}, "a", "b"},
		{"single column", []string{"only"}, "only", ""},
		{"empty", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeCol, hrCol := DetectColumns(tt.headers)
			if timeCol != tt.timeCol || hrCol != tt.hrCol {
				t.Errorf("DetectColumns(%v) = (%q, %q), want (%q, %q)",
					tt.headers, timeCol, hrCol, tt.timeCol, tt.hrCol)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1709276400", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"1709276400000", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"2024-03-01T07:00:00Z", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"2024-03-01 07:00:00", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"2024-03-01T07:00:00", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"2024-03-01 07:00", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024/03/01 07:00:00", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		{"07:30:15", time.Date(0, 1, 1, 7, 30, 15, 0, time.UTC)},
		{"07:30", time.Date(0, 1, 1, 7, 30, 0, 0, time.UTC)},
		{"  2024-03-01  ", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if !ok {
				t.Fatalf("ParseTimestamp(%q) not ok", tt.in)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "20240301", "12,345", "-1709276400"} {
		if got, ok := ParseTimestamp(in); ok {
			t.Errorf("ParseTimestamp(%q) = %v, want not ok", in, got)
		}
	}
}
