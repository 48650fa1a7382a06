// internal/estimate/quantity.go
package estimate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// QuantityKind tags how a portion size was established. Extraction produces
// exactly one kind per matched food and conversion switches over it, so a
// new kind cannot be added without deciding its calories and uncertainty.
type QuantityKind int

const (
	KindDefaultPortion QuantityKind = iota
	KindExplicitKcal
	KindGrams
	KindMilliliters
	KindCount
)

// Quantity is the extracted portion for one matched food.
type Quantity struct {
	Kind  QuantityKind
	Value float64 // kcal, grams, milliliters or piece count, per Kind
	Unit  string  // measure word, only for KindCount
}

// Uncertainty tiers by quantity source. Stated calories are near-exact,
// weighed portions close behind; counted containers and guessed defaults
// are progressively rougher, and unquantified oil or sauce is the roughest
// of all.
const (
	uncertaintyKcal       = 0.05
	uncertaintyWeight     = 0.08
	uncertaintyVolume     = 0.08
	uncertaintyCount      = 0.12
	uncertaintyContainer  = 0.20
	uncertaintyDefault    = 0.25
	uncertaintyDefaultFat = 0.30
)

// windowRunes is how far quantity extraction looks to either side of a
// matched alias. Numbers further away likely belong to another food.
const windowRunes = 12

// spanSet records rune spans already consumed, so one number never
// quantifies two foods and one keyword never counts twice.
type spanSet struct {
	spans [][2]int
}

func (s *spanSet) overlaps(lo, hi int) bool {
	for _, sp := range s.spans {
		if lo < sp[1] && sp[0] < hi {
			return true
		}
	}
	return false
}

func (s *spanSet) claim(lo, hi int) {
	s.spans = append(s.spans, [2]int{lo, hi})
}

// runeIndex converts a byte offset in s to a rune offset.
func runeIndex(s string, byteOff int) int {
	return utf8.RuneCountInString(s[:byteOff])
}

func windowBounds(m foodMatch, n int) (int, int) {
	lo := m.start - windowRunes
	if lo < 0 {
		lo = 0
	}
	hi := m.end + windowRunes
	if hi > n {
		hi = n
	}
	return lo, hi
}

func spanDistance(lo, hi, aliasLo, aliasHi int) int {
	switch {
	case hi <= aliasLo:
		return aliasLo - hi
	case lo >= aliasHi:
		return lo - aliasHi
	}
	return 0
}

type quantityCandidate struct {
	q        Quantity
	lo, hi   int // full-text rune span
	distance int
}

// extractQuantity looks for a portion size near the matched alias. Tiers
// are tried strictly in order (stated kcal, grams, milliliters, counts);
// within a tier the candidate closest to the alias wins. A winning span is
// claimed so the next food cannot reuse it. When nothing near the food
// parses, the food falls back to its default portion.
func extractQuantity(text []rune, m foodMatch, claimed *spanSet) Quantity {
	winLo, winHi := windowBounds(m, len(text))
	win := string(text[winLo:winHi])

	gather := func(pairs [][]int, build func(groups []string) (Quantity, bool)) []quantityCandidate {
		var out []quantityCandidate
		for _, idx := range pairs {
			lo := winLo + runeIndex(win, idx[0])
			hi := winLo + runeIndex(win, idx[1])
			if claimed.overlaps(lo, hi) {
				continue
			}
			groups := make([]string, 0, len(idx)/2-1)
			for g := 2; g < len(idx); g += 2 {
				if idx[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, win[idx[g]:idx[g+1]])
			}
			q, ok := build(groups)
			if !ok {
				continue
			}
			out = append(out, quantityCandidate{
				q:        q,
				lo:       lo,
				hi:       hi,
				distance: spanDistance(lo, hi, m.start, m.end),
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].distance < out[j].distance })
		return out
	}

	hasMassDensity := m.entry.KcalPer100g > 0 || m.entry.KcalPer100ml > 0

	tiers := [][]quantityCandidate{
		gather(kcalRe.FindAllStringSubmatchIndex(win, -1), func(g []string) (Quantity, bool) {
			v, err := strconv.ParseFloat(g[0], 64)
			if err != nil {
				return Quantity{}, false
			}
			return Quantity{Kind: KindExplicitKcal, Value: v}, true
		}),
	}
	if hasMassDensity {
		tiers = append(tiers,
			gather(gramsRe.FindAllStringSubmatchIndex(win, -1), func(g []string) (Quantity, bool) {
				v, err := strconv.ParseFloat(g[0], 64)
				if err != nil {
					return Quantity{}, false
				}
				return Quantity{Kind: KindGrams, Value: v}, true
			}),
			gather(mlRe.FindAllStringSubmatchIndex(win, -1), func(g []string) (Quantity, bool) {
				v, err := strconv.ParseFloat(g[0], 64)
				if err != nil {
					return Quantity{}, false
				}
				return Quantity{Kind: KindMilliliters, Value: v}, true
			}),
		)
	}
	tiers = append(tiers, gather(countRe.FindAllStringSubmatchIndex(win, -1), func(g []string) (Quantity, bool) {
		v, ok := parseNumber(g[0])
		if !ok || v <= 0 {
			return Quantity{}, false
		}
		return Quantity{Kind: KindCount, Value: v, Unit: normalizeUnit(g[1])}, true
	}))
	if m.entry.KcalPerPiece > 0 {
		tiers = append(tiers, adjacentCount(text, win, winLo, m, claimed))
	}

	for _, tier := range tiers {
		if len(tier) == 0 {
			continue
		}
		best := tier[0]
		claimed.claim(best.lo, best.hi)
		return best.q
	}
	return Quantity{Kind: KindDefaultPortion}
}

// adjacentCount handles bare numbers directly before a countable food, the
// usual English form: "2 eggs", "three apples". The gap may be at most one
// space.
func adjacentCount(text []rune, win string, winLo int, m foodMatch, claimed *spanSet) []quantityCandidate {
	var out []quantityCandidate
	for _, idx := range numberOnlyRe.FindAllStringIndex(win, -1) {
		lo := winLo + runeIndex(win, idx[0])
		hi := winLo + runeIndex(win, idx[1])
		if hi > m.start || m.start-hi > 1 || claimed.overlaps(lo, hi) {
			continue
		}
		if m.start-hi == 1 && !unicode.IsSpace(text[hi]) {
			continue
		}
		v, ok := parseNumber(win[idx[0]:idx[1]])
		if !ok || v <= 0 {
			continue
		}
		out = append(out, quantityCandidate{
			q:  Quantity{Kind: KindCount, Value: v},
			lo: lo, hi: hi,
		})
	}
	return out
}

// convert turns an extracted quantity into a calorie midpoint, its
// uncertainty tier and a short portion description. The cooking-method
// multiplier applies to everything except directly stated calories, and
// size qualifiers apply only to default portions.
func convert(e *FoodEntry, q Quantity, win string, method float64) (mid, u float64, desc string) {
	switch q.Kind {
	case KindExplicitKcal:
		return q.Value, uncertaintyKcal, fmt.Sprintf("%s kcal stated", formatQty(q.Value))

	case KindGrams:
		density := e.KcalPer100g
		if density == 0 {
			density = e.KcalPer100ml
		}
		return q.Value / 100 * density * method, uncertaintyWeight, fmt.Sprintf("%s g", formatQty(q.Value))

	case KindMilliliters:
		density := e.KcalPer100ml
		if density == 0 {
			density = e.KcalPer100g
		}
		return q.Value / 100 * density * method, uncertaintyVolume, fmt.Sprintf("%s ml", formatQty(q.Value))

	case KindCount:
		u = uncertaintyCount
		if isVolumetric(q.Unit) {
			u = uncertaintyContainer
		}
		mass, known := unitGrams[normalizeUnit(q.Unit)]
		switch {
		case known && (e.KcalPer100g > 0 || e.KcalPer100ml > 0):
			density, suffix := e.KcalPer100g, "g"
			if density == 0 {
				density, suffix = e.KcalPer100ml, "ml"
			}
			total := q.Value * mass
			return total / 100 * density * method, u,
				fmt.Sprintf("%s %s (≈%.0f %s)", formatQty(q.Value), q.Unit, total, suffix)
		case e.KcalPerPiece > 0:
			unit := q.Unit
			if unit == "" {
				unit = e.DefaultLabel
			}
			return q.Value * e.KcalPerPiece * method, u,
				fmt.Sprintf("%s %s", formatQty(q.Value), unit)
		default:
			// Unit with no mass of its own, e.g. 份: use the food's
			// default portion as the per-unit size.
			density, size, suffix := e.KcalPer100g, e.DefaultGrams, "g"
			if density == 0 {
				density, size, suffix = e.KcalPer100ml, e.DefaultMl, "ml"
			}
			if size == 0 {
				size = 100
			}
			total := q.Value * size
			return total / 100 * density * method, u,
				fmt.Sprintf("%s %s (≈%.0f %s)", formatQty(q.Value), q.Unit, total, suffix)
		}

	default: // KindDefaultPortion
		qual := qualifierFactor(win)
		u = uncertaintyDefault
		if e.Category == CategoryOil || e.Category == CategorySauce {
			u = uncertaintyDefaultFat
		}
		switch {
		case e.DefaultGrams > 0:
			grams := e.DefaultGrams * qual
			return grams / 100 * e.KcalPer100g * method, u,
				fmt.Sprintf("≈%.0f g (%s)", grams, e.DefaultLabel)
		case e.DefaultMl > 0:
			ml := e.DefaultMl * qual
			return ml / 100 * e.KcalPer100ml * method, u,
				fmt.Sprintf("≈%.0f ml (%s)", ml, e.DefaultLabel)
		default:
			count := e.DefaultCount * qual
			return count * e.KcalPerPiece * method, u,
				fmt.Sprintf("≈%s %s", formatQty(count), e.DefaultLabel)
		}
	}
}

// qualifierFactor reads size words out of the window: 大/large scales a
// default portion up, 小/small down, and a bare 半/half (one not attached
// to a unit, which would have parsed as a count) cuts it to 60%.
func qualifierFactor(win string) float64 {
	var large, small, half bool
	runes := []rune(win)
	for i, c := range runes {
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch c {
		case '大':
			// 大卡 is a calorie word, 大概/大约 mean "roughly".
			if next != '卡' && next != '概' && next != '约' {
				large = true
			}
		case '小':
			if next != '时' { // 小时 is "hour"
				small = true
			}
		case '半':
			half = true
		}
	}
	if largeWordRe.MatchString(win) {
		large = true
	}
	if smallWordRe.MatchString(win) {
		small = true
	}
	if halfWordRe.MatchString(win) {
		half = true
	}
	f := 1.0
	if large {
		f *= 1.2
	}
	if small {
		f *= 0.85
	}
	if half {
		f *= 0.6
	}
	return f
}

// methodKeywords are scanned longest-first over the whole text; a match
// claims its span so stir-fried is not also counted as fried. "ice cream"
// is a neutral mask, it is not creamed.
var methodKeywords = []struct {
	word   string
	factor float64
}{
	{"ice cream", 1},
	{"stir-fried", 1.12},
	{"stir fried", 1.12},
	{"deep-fried", 1.25},
	{"deep fried", 1.25},
	{"pan-fried", 1.15},
	{"pan fried", 1.15},
	{"braised", 1.10},
	{"fried", 1.25},
	{"cheese", 1.12},
	{"cream", 1.12},
	{"红烧", 1.10},
	{"奶油", 1.12},
	{"奶酪", 1.12},
	{"芝士", 1.12},
	{"炸", 1.25},
	{"煎", 1.15},
	{"炒", 1.12},
}

// methodFactor returns the combined cooking-method multiplier for the whole
// text. Each keyword contributes once no matter how often it occurs;
// distinct keywords compose multiplicatively.
func methodFactor(lower string) float64 {
	claimed := &spanSet{}
	f := 1.0
	for _, kw := range methodKeywords {
		hit := false
		for off := 0; ; {
			i := strings.Index(lower[off:], kw.word)
			if i < 0 {
				break
			}
			lo := off + i
			hi := lo + len(kw.word)
			if !claimed.overlaps(lo, hi) {
				claimed.claim(lo, hi)
				hit = true
			}
			off = hi
		}
		if hit {
			f *= kw.factor
		}
	}
	return f
}

// formatQty renders counts without trailing zeros: 2, 0.5, 1.25.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
