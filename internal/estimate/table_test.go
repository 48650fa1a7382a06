// internal/estimate/table_test.go
package estimate

import (
	"errors"
	"testing"
)

func validEntry() FoodEntry {
	return FoodEntry{
		Name:         "test food",
		Aliases:      []string{"测试", "test food"},
		Category:     CategoryStaple,
		KcalPer100g:  100,
		DefaultGrams: 150,
		DefaultLabel: "份",
	}
}

// TestNewTableValidation checks that malformed reference data is rejected
// outright rather than partially loaded.
func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FoodEntry)
	}{
		{"empty name", func(e *FoodEntry) { e.Name = "" }},
		{"no aliases", func(e *FoodEntry) { e.Aliases = nil }},
		{"blank alias", func(e *FoodEntry) { e.Aliases = []string{"  "} }},
		{"bad category", func(e *FoodEntry) { e.Category = "junk" }},
		{"negative density", func(e *FoodEntry) { e.KcalPer100g = -1 }},
		{"no density", func(e *FoodEntry) { e.KcalPer100g = 0 }},
		{"two defaults", func(e *FoodEntry) { e.DefaultMl = 100; e.KcalPer100ml = 50 }},
		{"no default", func(e *FoodEntry) { e.DefaultGrams = 0 }},
		{"default without matching density", func(e *FoodEntry) {
			e.KcalPer100g = 0
			e.KcalPerPiece = 70
		}},
		{"no label", func(e *FoodEntry) { e.DefaultLabel = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			if _, err := NewTable([]FoodEntry{e}); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("NewTable accepted %s (err = %v)", tt.name, err)
			}
		})
	}

	if _, err := NewTable([]FoodEntry{validEntry(), validEntry()}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("NewTable accepted duplicate names (err = %v)", err)
	}
}

func TestNewTableCopiesAliases(t *testing.T) {
	e := validEntry()
	e.Aliases = []string{"MiXeD"}
	tbl, err := NewTable([]FoodEntry{e})
	if err != nil {
		t.Fatal(err)
	}
	if e.Aliases[0] != "MiXeD" {
		t.Errorf("NewTable mutated the caller's aliases: %q", e.Aliases[0])
	}
	if tbl.entries[0].Aliases[0] != "mixed" {
		t.Errorf("table alias not lowercased: %q", tbl.entries[0].Aliases[0])
	}
}

// TestDefaultTable sanity-checks the built-in data set.
func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	if tbl.Len() < 50 {
		t.Errorf("built-in table has %d entries, expected a broad food set", tbl.Len())
	}
	// A custom table is honored over the built-in one.
	custom, err := NewTable([]FoodEntry{validEntry()})
	if err != nil {
		t.Fatal(err)
	}
	e := New(custom)
	got := e.EstimateText("测试")
	if !got.OK || len(got.Foods) != 1 || got.Foods[0].Name != "test food" {
		t.Errorf("custom table not used: %+v", got)
	}
	if got.Kcal.Mid != 150 { // 150 g * 1.00 kcal/g
		t.Errorf("custom table mid = %d, want 150", got.Kcal.Mid)
	}
}
