// internal/estimate/food.go

// Package estimate turns free-text bilingual meal descriptions into bounded
// calorie estimates. It is deterministic and makes no network calls: the
// same text against the same reference table always yields the same range.
package estimate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"nutrilog/internal/models"
)

const (
	directKcalUncertainty = 0.05
	fallbackUncertainty   = 0.35

	// A combined multi-food range is kept honest: never tighter than 10%
	// even when every part was weighed, never claiming more than 45%
	// slack, which would be noise.
	aggregateUncertaintyMin = 0.10
	aggregateUncertaintyMax = 0.45
)

// Estimator matches meal text against an immutable reference table. It is
// safe for concurrent use.
type Estimator struct {
	table *Table
}

// New builds an estimator. A nil table selects the built-in one.
func New(table *Table) *Estimator {
	if table == nil {
		table = DefaultTable()
	}
	return &Estimator{table: table}
}

// Result is one food-text estimate. OK is false when the text carried no
// usable signal; Explanation then says so and Followups ask for what is
// missing, instead of inventing a number.
type Result struct {
	OK          bool                `json:"ok"`
	Kcal        models.CalorieRange `json:"kcal"`
	Foods       []FoodMatch         `json:"foods,omitempty"`
	Explanation string              `json:"explanation"`
	Followups   []string            `json:"followups,omitempty"`
}

// FoodMatch is one recognized food with the portion the estimator settled
// on, in the order the foods appear in the text.
type FoodMatch struct {
	Name     string              `json:"name"`
	Category Category            `json:"category"`
	Quantity string              `json:"quantity"`
	Kcal     models.CalorieRange `json:"kcal"`

	kind QuantityKind
}

// EstimateText runs the full pipeline over one meal description.
func (e *Estimator) EstimateText(text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Result{
			OK:          false,
			Explanation: "empty meal description",
			Followups:   []string{"describe the meal with foods and amounts, e.g. 米饭150克 or \"2 eggs and toast\""},
		}
	}

	// Stated calories beat any table lookup.
	if m := kcalRe.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		r := models.NewCalorieRange(v, directKcalUncertainty)
		return Result{
			OK:          true,
			Kcal:        r,
			Explanation: fmt.Sprintf("calories stated directly: %d kcal", r.Mid),
		}
	}

	matches := e.matchFoods(lower)
	if len(matches) == 0 {
		if num := bareNumberRe.FindString(lower); num != "" {
			v, _ := strconv.ParseFloat(num, 64)
			r := models.NewCalorieRange(v, fallbackUncertainty)
			return Result{
				OK:          true,
				Kcal:        r,
				Explanation: fmt.Sprintf("no recognized food; treating %s as a rough calorie figure", num),
				Followups:   []string{"name the foods so the reference table can be used"},
			}
		}
		return Result{
			OK:          false,
			Explanation: "no recognizable food or calorie figure in the description",
			Followups:   []string{"describe the meal with foods and amounts, e.g. 米饭150克 or \"2 eggs and toast\""},
		}
	}

	method := methodFactor(lower)
	runes := []rune(lower)
	claimed := &spanSet{}
	sumLow, sumHigh := 0, 0
	foods := make([]FoodMatch, 0, len(matches))
	for _, m := range matches {
		q := extractQuantity(runes, m, claimed)
		winLo, winHi := windowBounds(m, len(runes))
		mid, u, qty := convert(m.entry, q, string(runes[winLo:winHi]), method)
		r := models.NewCalorieRange(mid, u)
		sumLow += r.Low
		sumHigh += r.High
		foods = append(foods, FoodMatch{
			Name:     m.entry.Name,
			Category: m.entry.Category,
			Quantity: qty,
			Kcal:     r,
			kind:     q.Kind,
		})
	}

	u := aggregateUncertaintyMax
	if sumLow+sumHigh > 0 {
		u = float64(sumHigh-sumLow) / float64(sumLow+sumHigh)
	}
	if u < aggregateUncertaintyMin {
		u = aggregateUncertaintyMin
	}
	if u > aggregateUncertaintyMax {
		u = aggregateUncertaintyMax
	}

	return Result{
		OK:          true,
		Kcal:        models.RangeFromBounds(sumLow, sumHigh, u),
		Foods:       foods,
		Explanation: buildExplanation(foods, method),
		Followups:   buildFollowups(foods),
	}
}

type foodMatch struct {
	entry      *FoodEntry
	start, end int // rune span of the matched alias
}

// matchFoods finds every entry whose alias occurs in the text. Each entry
// contributes its longest matching alias, and when matches from different
// entries overlap the longer span wins, so "fried chicken" is one food and
// 油条 never doubles as plain 油.
func (e *Estimator) matchFoods(lower string) []foodMatch {
	var found []foodMatch
	for i := range e.table.entries {
		entry := &e.table.entries[i]
		best := foodMatch{start: -1}
		for _, alias := range entry.Aliases {
			byteIdx := strings.Index(lower, alias)
			if byteIdx < 0 {
				continue
			}
			start := runeIndex(lower, byteIdx)
			end := start + utf8.RuneCountInString(alias)
			better := best.start < 0 ||
				end-start > best.end-best.start ||
				(end-start == best.end-best.start && start < best.start)
			if better {
				best = foodMatch{entry: entry, start: start, end: end}
			}
		}
		if best.start >= 0 {
			found = append(found, best)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		li, lj := found[i].end-found[i].start, found[j].end-found[j].start
		if li != lj {
			return li > lj
		}
		return found[i].start < found[j].start
	})
	claimed := &spanSet{}
	kept := found[:0]
	for _, m := range found {
		if claimed.overlaps(m.start, m.end) {
			continue
		}
		claimed.claim(m.start, m.end)
		kept = append(kept, m)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return kept
}

func buildExplanation(foods []FoodMatch, method float64) string {
	parts := make([]string, 0, len(foods)+1)
	for _, f := range foods {
		parts = append(parts, fmt.Sprintf("%s %s: %d kcal", f.Name, f.Quantity, f.Kcal.Mid))
	}
	s := strings.Join(parts, "; ")
	if method != 1 {
		s += fmt.Sprintf("; cooking adjustment ×%.2f", method)
	}
	return s
}

// buildFollowups asks about foods that fell back to a default portion.
// Oils and sauces come first: an unmeasured spoonful of oil moves the total
// more than any other guess here.
func buildFollowups(foods []FoodMatch) []string {
	var fats, others []string
	for _, f := range foods {
		if f.kind != KindDefaultPortion {
			continue
		}
		if f.Category == CategoryOil || f.Category == CategorySauce {
			fats = append(fats, fmt.Sprintf("how much %s went in? grams of oil or sauce move the total the most", f.Name))
		} else {
			others = append(others, fmt.Sprintf("how much %s was it? a weight or volume tightens the range", f.Name))
		}
	}
	return append(fats, others...)
}
