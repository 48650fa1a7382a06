// internal/estimate/table.go
package estimate

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups foods for presentation and follow-up ordering. Oils and
// sauces are called out first when asking for clarification because they are
// the most commonly under-reported calories.
type Category string

const (
	CategoryStaple    Category = "staple"
	CategoryMeat      Category = "meat"
	CategoryEgg       Category = "egg"
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryDrink     Category = "drink"
	CategoryOil       Category = "oil"
	CategorySauce     Category = "sauce"
	CategorySnack     Category = "snack"
	CategoryDessert   Category = "dessert"
)

func (c Category) valid() bool {
	switch c {
	case CategoryStaple, CategoryMeat, CategoryEgg, CategoryVegetable,
		CategoryFruit, CategoryDrink, CategoryOil, CategorySauce,
		CategorySnack, CategoryDessert:
		return true
	}
	return false
}

// FoodEntry is one row of the reference table. At least one calorie density
// must be set; exactly one default portion must be set and its matching
// density must be present. Aliases are matched as substrings of the meal
// text, so they should be written the way people actually type them.
type FoodEntry struct {
	Name     string
	Aliases  []string
	Category Category

	// Calorie densities. Zero means not applicable.
	KcalPer100g  float64
	KcalPer100ml float64
	KcalPerPiece float64

	// Default portion used when the text gives no quantity.
	DefaultGrams float64
	DefaultMl    float64
	DefaultCount float64
	DefaultLabel string
}

// ErrInvalidEntry wraps every reference-table validation failure.
var ErrInvalidEntry = errors.New("invalid food entry")

// Table is an immutable set of food entries. A Table is safe for concurrent
// readers; nothing mutates it after construction.
type Table struct {
	entries []FoodEntry
}

// NewTable validates entries and builds a table. The reference data is
// curated by hand, so validation fails fast on the first malformed entry
// instead of limping along with partial data.
func NewTable(entries []FoodEntry) (*Table, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]FoodEntry, 0, len(entries))
	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("entry %d (%s): %w: duplicate name", i, e.Name, ErrInvalidEntry)
		}
		seen[e.Name] = true
		aliases := make([]string, len(e.Aliases))
		for j, a := range e.Aliases {
			aliases[j] = strings.ToLower(a)
		}
		e.Aliases = aliases
		out = append(out, e)
	}
	return &Table{entries: out}, nil
}

func validateEntry(e FoodEntry) error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if len(e.Aliases) == 0 {
		return fmt.Errorf("%w: %s has no aliases", ErrInvalidEntry, e.Name)
	}
	for _, a := range e.Aliases {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: %s has a blank alias", ErrInvalidEntry, e.Name)
		}
	}
	if !e.Category.valid() {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidEntry, e.Name, e.Category)
	}
	if e.KcalPer100g < 0 || e.KcalPer100ml < 0 || e.KcalPerPiece < 0 {
		return fmt.Errorf("%w: %s has a negative calorie density", ErrInvalidEntry, e.Name)
	}
	if e.KcalPer100g == 0 && e.KcalPer100ml == 0 && e.KcalPerPiece == 0 {
		return fmt.Errorf("%w: %s has no calorie density", ErrInvalidEntry, e.Name)
	}
	if e.DefaultGrams < 0 || e.DefaultMl < 0 || e.DefaultCount < 0 {
		return fmt.Errorf("%w: %s has a negative default portion", ErrInvalidEntry, e.Name)
	}
	defaults := 0
	if e.DefaultGrams > 0 {
		defaults++
	}
	if e.DefaultMl > 0 {
		defaults++
	}
	if e.DefaultCount > 0 {
		defaults++
	}
	if defaults != 1 {
		return fmt.Errorf("%w: %s must set exactly one default portion, has %d", ErrInvalidEntry, e.Name, defaults)
	}
	switch {
	case e.DefaultGrams > 0 && e.KcalPer100g == 0:
		return fmt.Errorf("%w: %s has a gram default but no per-100g density", ErrInvalidEntry, e.Name)
	case e.DefaultMl > 0 && e.KcalPer100ml == 0:
		return fmt.Errorf("%w: %s has an ml default but no per-100ml density", ErrInvalidEntry, e.Name)
	case e.DefaultCount > 0 && e.KcalPerPiece == 0:
		return fmt.Errorf("%w: %s has a piece default but no per-piece density", ErrInvalidEntry, e.Name)
	}
	if e.DefaultLabel == "" {
		return fmt.Errorf("%w: %s has no default portion label", ErrInvalidEntry, e.Name)
	}
	return nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// DefaultTable returns the built-in bilingual reference table. It panics if
// the built-in data fails validation, since that is a bug in this package,
// not a runtime condition.
func DefaultTable() *Table {
	t, err := NewTable(defaultFoods())
	if err != nil {
		panic(fmt.Sprintf("estimate: built-in food table is broken: %v", err))
	}
	return t
}

// defaultFoods returns a fresh copy of the built-in reference data. Values
// are kcal per 100 g / 100 ml of the prepared food, or per typical piece.
func defaultFoods() []FoodEntry {
	return []FoodEntry{
		// Staples.
		{Name: "rice", Aliases: []string{"米饭", "白饭", "rice"}, Category: CategoryStaple,
			KcalPer100g: 130, DefaultGrams: 200, DefaultLabel: "碗"},
		{Name: "fried rice", Aliases: []string{"炒饭", "蛋炒饭", "fried rice"}, Category: CategoryStaple,
			KcalPer100g: 190, DefaultGrams: 300, DefaultLabel: "盘"},
		{Name: "congee", Aliases: []string{"粥", "稀饭", "congee", "porridge"}, Category: CategoryStaple,
			KcalPer100g: 45, DefaultGrams: 300, DefaultLabel: "碗"},
		{Name: "noodles", Aliases: []string{"面条", "拉面", "noodles", "noodle", "ramen"}, Category: CategoryStaple,
			KcalPer100g: 110, DefaultGrams: 250, DefaultLabel: "碗"},
		{Name: "rice noodles", Aliases: []string{"米粉", "米线", "rice noodles"}, Category: CategoryStaple,
			KcalPer100g: 105, DefaultGrams: 250, DefaultLabel: "碗"},
		{Name: "bread", Aliases: []string{"面包", "吐司", "toast", "bread"}, Category: CategoryStaple,
			KcalPer100g: 280, DefaultGrams: 50, DefaultLabel: "片"},
		{Name: "steamed bun", Aliases: []string{"包子", "baozi"}, Category: CategoryStaple,
			KcalPer100g: 230, KcalPerPiece: 220, DefaultCount: 1, DefaultLabel: "个"},
		{Name: "mantou", Aliases: []string{"馒头", "mantou"}, Category: CategoryStaple,
			KcalPer100g: 221, KcalPerPiece: 220, DefaultCount: 1, DefaultLabel: "个"},
		{Name: "dumplings", Aliases: []string{"饺子", "水饺", "煎饺", "dumplings", "dumpling"}, Category: CategoryStaple,
			KcalPer100g: 210, KcalPerPiece: 45, DefaultCount: 10, DefaultLabel: "个"},
		{Name: "instant noodles", Aliases: []string{"泡面", "方便面", "instant noodles", "instant noodle"}, Category: CategoryStaple,
			KcalPer100g: 440, KcalPerPiece: 470, DefaultCount: 1, DefaultLabel: "包"},
		{Name: "potato", Aliases: []string{"土豆", "马铃薯", "potato"}, Category: CategoryStaple,
			KcalPer100g: 77, DefaultGrams: 150, DefaultLabel: "个"},
		{Name: "sweet potato", Aliases: []string{"红薯", "地瓜", "sweet potato"}, Category: CategoryStaple,
			KcalPer100g: 86, DefaultGrams: 200, DefaultLabel: "个"},
		{Name: "corn", Aliases: []string{"玉米", "corn"}, Category: CategoryStaple,
			KcalPer100g: 96, KcalPerPiece: 110, DefaultCount: 1, DefaultLabel: "根"},

		// Meat, fish and other protein.
		{Name: "chicken breast", Aliases: []string{"鸡胸", "鸡胸肉", "chicken breast"}, Category: CategoryMeat,
			KcalPer100g: 133, DefaultGrams: 120, DefaultLabel: "块"},
		{Name: "chicken", Aliases: []string{"鸡肉", "鸡腿", "chicken"}, Category: CategoryMeat,
			KcalPer100g: 167, DefaultGrams: 100, DefaultLabel: "份"},
		{Name: "fried chicken", Aliases: []string{"炸鸡", "fried chicken"}, Category: CategoryMeat,
			KcalPer100g: 245, DefaultGrams: 150, DefaultLabel: "份"},
		{Name: "beef", Aliases: []string{"牛肉", "牛排", "beef", "steak"}, Category: CategoryMeat,
			KcalPer100g: 250, DefaultGrams: 100, DefaultLabel: "份"},
		{Name: "pork", Aliases: []string{"猪肉", "pork"}, Category: CategoryMeat,
			KcalPer100g: 290, DefaultGrams: 100, DefaultLabel: "份"},
		{Name: "pork belly", Aliases: []string{"五花肉", "红烧肉", "pork belly"}, Category: CategoryMeat,
			KcalPer100g: 500, DefaultGrams: 80, DefaultLabel: "份"},
		{Name: "lamb", Aliases: []string{"羊肉", "lamb"}, Category: CategoryMeat,
			KcalPer100g: 203, DefaultGrams: 100, DefaultLabel: "份"},
		{Name: "fish", Aliases: []string{"鱼肉", "烤鱼", "蒸鱼", "鲈鱼", "三文鱼", "fish", "salmon"}, Category: CategoryMeat,
			KcalPer100g: 140, DefaultGrams: 150, DefaultLabel: "份"},
		{Name: "shrimp", Aliases: []string{"虾", "虾仁", "shrimp"}, Category: CategoryMeat,
			KcalPer100g: 85, DefaultGrams: 80, DefaultLabel: "份"},
		{Name: "tofu", Aliases: []string{"豆腐", "tofu"}, Category: CategoryMeat,
			KcalPer100g: 82, DefaultGrams: 150, DefaultLabel: "块"},
		{Name: "egg", Aliases: []string{"鸡蛋", "煎蛋", "荷包蛋", "茶叶蛋", "egg"}, Category: CategoryEgg,
			KcalPer100g: 144, KcalPerPiece: 72, DefaultCount: 1, DefaultLabel: "个"},

		// Vegetables.
		{Name: "leafy greens", Aliases: []string{"青菜", "蔬菜", "生菜", "菠菜", "greens", "vegetables", "vegetable"}, Category: CategoryVegetable,
			KcalPer100g: 30, DefaultGrams: 200, DefaultLabel: "份"},
		{Name: "tomato", Aliases: []string{"番茄", "西红柿", "tomato"}, Category: CategoryVegetable,
			KcalPer100g: 18, DefaultGrams: 150, DefaultLabel: "个"},
		{Name: "tomato and egg", Aliases: []string{"番茄炒蛋", "西红柿炒蛋", "tomato and egg"}, Category: CategoryVegetable,
			KcalPer100g: 80, DefaultGrams: 250, DefaultLabel: "份"},
		{Name: "broccoli", Aliases: []string{"西兰花", "broccoli"}, Category: CategoryVegetable,
			KcalPer100g: 34, DefaultGrams: 150, DefaultLabel: "份"},
		{Name: "cucumber", Aliases: []string{"黄瓜", "cucumber"}, Category: CategoryVegetable,
			KcalPer100g: 16, DefaultGrams: 150, DefaultLabel: "根"},
		{Name: "salad", Aliases: []string{"沙拉", "salad"}, Category: CategoryVegetable,
			KcalPer100g: 120, DefaultGrams: 200, DefaultLabel: "份"},

		// Fruit.
		{Name: "apple", Aliases: []string{"苹果", "apple"}, Category: CategoryFruit,
			KcalPer100g: 52, KcalPerPiece: 95, DefaultCount: 1, DefaultLabel: "个"},
		{Name: "banana", Aliases: []string{"香蕉", "banana"}, Category: CategoryFruit,
			KcalPer100g: 89, KcalPerPiece: 95, DefaultCount: 1, DefaultLabel: "根"},
		{Name: "orange", Aliases: []string{"橙子", "橘子", "orange"}, Category: CategoryFruit,
			KcalPer100g: 47, KcalPerPiece: 62, DefaultCount: 1, DefaultLabel: "个"},
		{Name: "grapes", Aliases: []string{"葡萄", "grapes", "grape"}, Category: CategoryFruit,
			KcalPer100g: 69, DefaultGrams: 150, DefaultLabel: "份"},
		{Name: "watermelon", Aliases: []string{"西瓜", "watermelon"}, Category: CategoryFruit,
			KcalPer100g: 30, DefaultGrams: 400, DefaultLabel: "块"},

		// Drinks.
		{Name: "milk", Aliases: []string{"牛奶", "milk"}, Category: CategoryDrink,
			KcalPer100ml: 64, DefaultMl: 250, DefaultLabel: "杯"},
		{Name: "soy milk", Aliases: []string{"豆浆", "soy milk", "soymilk"}, Category: CategoryDrink,
			KcalPer100ml: 35, DefaultMl: 300, DefaultLabel: "杯"},
		{Name: "cola", Aliases: []string{"可乐", "汽水", "cola", "soda"}, Category: CategoryDrink,
			KcalPer100ml: 43, DefaultMl: 330, DefaultLabel: "罐"},
		{Name: "juice", Aliases: []string{"果汁", "橙汁", "juice", "orange juice"}, Category: CategoryDrink,
			KcalPer100ml: 45, DefaultMl: 250, DefaultLabel: "杯"},
		{Name: "beer", Aliases: []string{"啤酒", "beer"}, Category: CategoryDrink,
			KcalPer100ml: 43, DefaultMl: 500, DefaultLabel: "瓶"},
		{Name: "yogurt", Aliases: []string{"酸奶", "yogurt", "yoghurt"}, Category: CategoryDrink,
			KcalPer100ml: 72, DefaultMl: 200, DefaultLabel: "杯"},
		{Name: "milk tea", Aliases: []string{"奶茶", "milk tea", "bubble tea"}, Category: CategoryDrink,
			KcalPer100ml: 55, DefaultMl: 500, DefaultLabel: "杯"},
		{Name: "latte", Aliases: []string{"拿铁", "latte"}, Category: CategoryDrink,
			KcalPer100ml: 42, DefaultMl: 350, DefaultLabel: "杯"},
		{Name: "americano", Aliases: []string{"美式咖啡", "黑咖啡", "americano", "black coffee"}, Category: CategoryDrink,
			KcalPer100ml: 2, DefaultMl: 300, DefaultLabel: "杯"},

		// Oils and sauces. Bare 油 is deliberately kept as an alias: missed
		// oil is the largest source of underestimation, and a false hit
		// costs ~90 kcal with a wide band plus a follow-up question.
		{Name: "cooking oil", Aliases: []string{"油", "食用油", "橄榄油", "olive oil", "cooking oil", "oil"}, Category: CategoryOil,
			KcalPer100g: 884, DefaultGrams: 10, DefaultLabel: "勺"},
		{Name: "peanut butter", Aliases: []string{"花生酱", "peanut butter"}, Category: CategorySauce,
			KcalPer100g: 588, DefaultGrams: 15, DefaultLabel: "勺"},
		{Name: "mayonnaise", Aliases: []string{"蛋黄酱", "沙拉酱", "mayonnaise", "mayo"}, Category: CategorySauce,
			KcalPer100g: 680, DefaultGrams: 15, DefaultLabel: "勺"},
		{Name: "ketchup", Aliases: []string{"番茄酱", "ketchup"}, Category: CategorySauce,
			KcalPer100g: 100, DefaultGrams: 15, DefaultLabel: "勺"},

		// Snacks and desserts.
		{Name: "chocolate", Aliases: []string{"巧克力", "chocolate"}, Category: CategorySnack,
			KcalPer100g: 546, DefaultGrams: 30, DefaultLabel: "块"},
		{Name: "cookies", Aliases: []string{"饼干", "cookies", "cookie", "biscuit"}, Category: CategorySnack,
			KcalPer100g: 480, DefaultGrams: 30, DefaultLabel: "片"},
		{Name: "cake", Aliases: []string{"蛋糕", "cake"}, Category: CategoryDessert,
			KcalPer100g: 347, DefaultGrams: 100, DefaultLabel: "块"},
		{Name: "ice cream", Aliases: []string{"冰淇淋", "冰激凌", "雪糕", "ice cream"}, Category: CategoryDessert,
			KcalPer100g: 207, DefaultGrams: 80, DefaultLabel: "份"},
		{Name: "chips", Aliases: []string{"薯片", "chips", "potato chips"}, Category: CategorySnack,
			KcalPer100g: 536, DefaultGrams: 50, DefaultLabel: "包"},
		{Name: "french fries", Aliases: []string{"薯条", "fries", "french fries"}, Category: CategorySnack,
			KcalPer100g: 312, DefaultGrams: 100, DefaultLabel: "份"},
		{Name: "hamburger", Aliases: []string{"汉堡", "hamburger", "burger"}, Category: CategorySnack,
			KcalPer100g: 250, KcalPerPiece: 550, DefaultCount: 1, DefaultLabel: "个"},
		{Name: "pizza", Aliases: []string{"披萨", "比萨", "pizza"}, Category: CategorySnack,
			KcalPer100g: 266, DefaultGrams: 120, DefaultLabel: "片"},
		{Name: "fried dough stick", Aliases: []string{"油条", "youtiao"}, Category: CategorySnack,
			KcalPer100g: 388, KcalPerPiece: 270, DefaultCount: 1, DefaultLabel: "根"},
		{Name: "nuts", Aliases: []string{"坚果", "nuts", "almonds"}, Category: CategorySnack,
			KcalPer100g: 600, DefaultGrams: 30, DefaultLabel: "把"},
	}
}
