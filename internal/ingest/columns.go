// internal/ingest/columns.go
package ingest

import (
	"strconv"
	"strings"
	"time"
)

var (
	timeColumnHints = []string{"time", "date", "timestamp", "时间", "日期"}
	hrColumnHints   = []string{"hr", "heart", "bpm", "pulse", "心率"}
)

// DetectColumns picks the time and heart-rate columns by header name,
// falling back to position (first column is time, second is heart rate)
// because plenty of exports label columns in ways no hint list covers.
func DetectColumns(headers []string) (timeCol, hrCol string) {
	for _, h := range headers {
		if containsAny(strings.ToLower(h), timeColumnHints) {
			timeCol = h
			break
		}
	}
	for _, h := range headers {
		if containsAny(strings.ToLower(h), hrColumnHints) {
			hrCol = h
			break
		}
	}
	if timeCol == "" && len(headers) > 0 {
		timeCol = headers[0]
	}
	if hrCol == "" && len(headers) > 1 {
		hrCol = headers[1]
	}
	return timeCol, hrCol
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

// ParseTimestamp handles the encodings seen in real exports: a 13-digit
// value is epoch milliseconds, a 10-digit value epoch seconds, then a
// ladder of calendar layouts, then the same ladder with '/' normalized
// to '-'. ok is false when nothing fits.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if isDigits(s) {
		switch len(s) {
		case 13:
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.UnixMilli(ms).UTC(), true
			}
		case 10:
			if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Unix(sec, 0).UTC(), true
			}
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if strings.ContainsRune(s, '/') {
		norm := strings.ReplaceAll(s, "/", "-")
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, norm); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
