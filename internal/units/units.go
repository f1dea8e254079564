// Package units normalizes the free-text units kitchens type into a small
// canonical vocabulary. The cost path never converts quantities; it only
// compares units to flag rows whose quantity may be in the wrong unit.
package units

import "strings"

var aliases = map[string]string{
	"g": "g", "gm": "g", "gms": "g", "gram": "g", "grams": "g", "gramme": "g", "grammes": "g",
	"kg": "kg", "kgs": "kg", "kilo": "kg", "kilos": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg", "milligram": "mg", "milligrams": "mg",
	"ml": "ml", "millilitre": "ml", "milliliter": "ml", "millilitres": "ml", "milliliters": "ml",
	"l": "l", "lt": "l", "ltr": "l", "litre": "l", "liter": "l", "litres": "l", "liters": "l",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"cup": "cup", "cups": "cup",
	"ea": "each", "each": "each", "pc": "each", "pcs": "each", "piece": "each", "pieces": "each", "unit": "each", "units": "each",
	"bunch": "bunch", "bunches": "bunch",
}

// Normalize maps a unit to its canonical spelling. Unknown units are returned
// lower-cased and trimmed.
func Normalize(unit string) string {
	key := strings.ToLower(strings.TrimSpace(unit))
	key = strings.TrimSuffix(key, ".")
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// Same reports whether two units name the same canonical unit. An empty unit
// matches anything since rows frequently omit it.
func Same(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return true
	}
	return na == nb
}
