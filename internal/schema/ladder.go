package schema

import "errors"

// ErrLadderExhausted is returned when even the narrowest query failed on a
// column error.
var ErrLadderExhausted = errors.New("schema fallback ladder exhausted")

// Rung indexes the ladder from widest to narrowest.
type Rung int

const (
	RungFull Rung = iota
	RungNoPricing
	RungNoDietary
	RungNoDescription
	RungMinimal
	RungNoRelations
	RungEssentialOnly
)

// QueryShape describes which columns and relations a menu item query reads.
type QueryShape struct {
	Rung           Rung
	Name           string
	ItemColumns    []string
	DishColumns    []string
	RecipeColumns  []string
	Relations      bool
	HasPricing     bool
	HasDietary     bool
	HasDescription bool
}

var (
	essentialItem  = []string{"id", "menu_id", "dish_id", "recipe_id"}
	minimalItem    = append(append([]string{}, essentialItem...), "category", "position")
	minimalDish    = []string{"id", "name"}
	minimalRecipe  = []string{"id", "name"}
	itemPricing    = []string{"actual_selling_price", "recommended_selling_price"}
	dishPricing    = []string{"selling_price"}
	recipeExtras   = []string{"yield"}
	dietaryColumns = []string{"allergens", "is_vegetarian", "is_vegan", "dietary_confidence", "dietary_method"}
)

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func buildShape(rung Rung, name string, pricing, dietary, description, relations bool) QueryShape {
	item, dish, recipe := minimalItem, minimalDish, concat(minimalRecipe, recipeExtras)
	if description {
		item = concat(item, []string{"description"})
		dish = concat(dish, []string{"description"})
		recipe = concat(recipe, []string{"description"})
	}
	if pricing {
		item = concat(item, itemPricing)
		dish = concat(dish, dishPricing)
	}
	if dietary {
		item = concat(item, dietaryColumns)
		dish = concat(dish, dietaryColumns)
		recipe = concat(recipe, dietaryColumns)
	}
	return QueryShape{
		Rung:           rung,
		Name:           name,
		ItemColumns:    concat(item),
		DishColumns:    dish,
		RecipeColumns:  recipe,
		Relations:      relations,
		HasPricing:     pricing,
		HasDietary:     dietary,
		HasDescription: description,
	}
}

var ladder = []QueryShape{
	buildShape(RungFull, "full", true, true, true, true),
	buildShape(RungNoPricing, "no-pricing", false, true, true, true),
	buildShape(RungNoDietary, "no-dietary", false, false, true, true),
	buildShape(RungNoDescription, "no-description", false, false, false, true),
	{
		Rung:          RungMinimal,
		Name:          "minimal",
		ItemColumns:   minimalItem,
		DishColumns:   minimalDish,
		RecipeColumns: minimalRecipe,
		Relations:     true,
	},
	{
		Rung:        RungNoRelations,
		Name:        "no-relations",
		ItemColumns: minimalItem,
	},
	{
		Rung:        RungEssentialOnly,
		Name:        "essential-only",
		ItemColumns: essentialItem,
	},
}

// Shapes returns the ladder from widest to narrowest.
func Shapes() []QueryShape {
	return append([]QueryShape(nil), ladder...)
}

// Shape returns the descriptor for r.
func Shape(r Rung) QueryShape {
	if r < RungFull || int(r) >= len(ladder) {
		return ladder[RungEssentialOnly]
	}
	return ladder[r]
}

func (r Rung) String() string {
	return Shape(r).Name
}

var targets = map[DriftKind]Rung{
	MissingPricing:     RungNoPricing,
	MissingDietary:     RungNoDietary,
	MissingDescription: RungNoDescription,
}

// Next picks the rung to retry after a failure classified as kind at rung
// current. It always advances at least one rung. ok is false when the error
// is not schema drift or nothing narrower is left.
func Next(current Rung, kind DriftKind) (Rung, bool) {
	if kind == NotDrift {
		return current, false
	}
	next := current + 1
	if target, ok := targets[kind]; ok && target > next {
		next = target
	}
	if int(next) >= len(ladder) {
		return current, false
	}
	return next, true
}
