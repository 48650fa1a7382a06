// internal/estimate/units.go
package estimate

import (
	"regexp"
	"strconv"
	"strings"
)

// unitGrams maps measure words to an approximate mass in grams. For liquid
// foods the same numbers are read as milliliters. Units missing from this
// map (个, 只, 份, ...) fall back to the food's own default portion size.
var unitGrams = map[string]float64{
	"勺": 15, "spoon": 15, "tablespoon": 15, "tbsp": 15,
	"小勺": 5, "茶匙": 5, "teaspoon": 5, "tsp": 5,
	"碗": 200, "bowl": 200,
	"杯": 250, "cup": 250,
	"盘": 300, "plate": 300,
	"碟": 100,
	"盒": 250,
	"瓶": 500, "bottle": 500,
	"罐": 330, "can": 330,
	"片": 30, "slice": 30,
	"块": 40,
	"把": 30,
	"两": 50,
	"斤": 500,
}

// volumetricUnits are container measures. A count of containers is a much
// rougher quantity than a count of discrete pieces, so these get a wider
// uncertainty tier.
var volumetricUnits = map[string]bool{
	"勺": true, "spoon": true, "tablespoon": true, "tbsp": true,
	"小勺": true, "茶匙": true, "teaspoon": true, "tsp": true,
	"碗": true, "bowl": true,
	"杯": true, "cup": true,
	"盘": true, "plate": true,
	"碟": true,
	"盒": true,
	"瓶": true, "bottle": true,
	"罐": true, "can": true,
	"份": true, "serving": true, "portion": true,
	"把": true,
}

// numberWords maps spelled-out quantities to values. 两 doubles as a mass
// unit (50 g); the count pattern tries number-then-unit first, so 两碗 reads
// as "two bowls" while 二两 reads as "two liang".
var numberWords = map[string]float64{
	"一": 1, "二": 2, "两": 2, "三": 3, "四": 4, "五": 5,
	"六": 6, "七": 7, "八": 8, "九": 9, "十": 10, "半": 0.5,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"half": 0.5, "a": 1, "an": 1,
}

const (
	numberPattern = `(?:\d+(?:\.\d+)?|[一二两三四五六七八九十半]|\b(?:half|one|two|three|four|five|six|seven|eight|nine|ten|an|a)\b)`
	unitPattern   = `(?:小勺|茶匙|勺|碗|杯|盘|碟|盒|瓶|罐|片|块|把|两|斤|个|只|根|包|串|份|` +
		`(?:tablespoons?|tbsp|teaspoons?|tsp|spoons?|bowls?|cups?|plates?|bottles?|cans?|slices?|pieces?|packs?|servings?|portions?)\b)`
)

var (
	// Calorie statements. ASCII tokens need a boundary so "cal" does not
	// fire inside "calcium"; CJK tokens never need one.
	kcalRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:大卡|千卡|卡路里|卡|(?:kcal|kilocalories?|calories?|cal)\b)`)

	gramsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:公克|克|(?:grams?|g)\b)`)

	mlRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:毫升|(?:milliliters?|millilitres?|ml|cc)\b)`)

	countRe = regexp.MustCompile(`(` + numberPattern + `)\s*(` + unitPattern + `)`)

	numberOnlyRe = regexp.MustCompile(numberPattern)

	bareNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

	largeWordRe = regexp.MustCompile(`\b(?:large|big)\b`)
	smallWordRe = regexp.MustCompile(`\bsmall\b`)
	halfWordRe  = regexp.MustCompile(`\bhalf\b`)
)

// parseNumber converts a token matched by numberPattern to its value.
func parseNumber(tok string) (float64, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	if v, ok := numberWords[tok]; ok {
		return v, true
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeUnit strips an English plural so lookups hit the map.
func normalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if len(unit) > 3 && strings.HasSuffix(unit, "s") && unit[0] < 0x80 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return unit
}

// unitMass resolves a measure word to grams (or milliliters for liquids),
// falling back to the given default when the unit carries no mass of its
// own.
func unitMass(unit string, fallback float64) float64 {
	if g, ok := unitGrams[normalizeUnit(unit)]; ok {
		return g
	}
	return fallback
}

func isVolumetric(unit string) bool {
	return volumetricUnits[normalizeUnit(unit)]
}
