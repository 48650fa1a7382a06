// internal/ingest/delimited.go

// Package ingest turns heart-rate exports of unknown origin into the
// series the energy estimator consumes. Two sources are supported:
// generic delimited text (header row plus data rows, any of four common
// delimiters) and Garmin FIT activity files. Partial or messy exports
// are expected; unusable rows are dropped, and only a file with fewer
// than two usable samples is rejected.
package ingest

import (
	"fmt"
	"strings"
)

// Candidate delimiters, tried in this order.
var delimiters = []rune{',', '\t', ';', '|'}

// Document is a parsed delimited file: the header row, every data row
// keyed by header name, and the delimiter that was chosen.
type Document struct {
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows"`
	Delimiter rune                `json:"delimiter"`
}

// Parse splits raw delimited text into a Document. The delimiter is
// whichever candidate splits the header line into the most fields, so
// exports from unknown apps need no format flag. A double quote toggles
// splitting off until the next double quote; the quotes themselves are
// stripped from the value.
func Parse(raw string) (*Document, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no header line: %w", ErrInsufficientData)
	}

	delim := sniffDelimiter(lines[0])
	headers := splitLine(lines[0], delim)
	doc := &Document{
		Headers:   headers,
		Rows:      make([]map[string]string, 0, len(lines)-1),
		Delimiter: delim,
	}
	for _, line := range lines[1:] {
		fields := splitLine(line, delim)
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

func sniffDelimiter(header string) rune {
	best := delimiters[0]
	bestCount := len(splitLine(header, best))
	for _, d := range delimiters[1:] {
		if n := len(splitLine(header, d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func splitLine(line string, delim rune) []string {
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(b.String()))
}
