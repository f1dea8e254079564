package allergen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
	"prepcost/internal/stale"
	"prepcost/models"
)

// Source is the read access the aggregator needs.
type Source interface {
	RecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error)
	RecipeIngredientsFor(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.RecipeIngredient, error)
	DishRecipes(ctx context.Context, dishID uuid.UUID) ([]models.DishRecipe, error)
	DishIngredients(ctx context.Context, dishID uuid.UUID) ([]models.DishIngredient, error)
}

// Entity is a recipe or dish together with whatever allergen list is cached
// on it.
type Entity struct {
	Kind   string
	ID     uuid.UUID
	Cached stale.Value[[]string]
}

type Aggregator struct {
	source   Source
	taxonomy *Taxonomy
	metrics  *metrics.Registry
}

func NewAggregator(source Source, taxonomy *Taxonomy, reg *metrics.Registry) *Aggregator {
	if taxonomy == nil {
		taxonomy = Default()
	}
	return &Aggregator{source: source, taxonomy: taxonomy, metrics: reg}
}

// Resolve returns the consolidated allergen set for e. A trusted, non-empty
// cache is normalized; otherwise allergens are rebuilt from ingredients.
// Failures yield an empty set.
func (a *Aggregator) Resolve(ctx context.Context, e Entity) []string {
	if cached, ok := e.Cached.Get(); ok && len(cached) > 0 {
		return a.Normalize(ctx, e, cached)
	}

	codes, err := a.Aggregate(ctx, e.Kind, e.ID)
	if err != nil {
		applog.Error(ctx, "allergen aggregation failed", "kind", e.Kind, "id", e.ID, "error", err)
		a.metrics.PartialFailure("allergen_aggregation")
		return []string{}
	}
	return a.Normalize(ctx, e, codes)
}

// Normalize drops blank entries, consolidates, and logs anything the closed
// set rejected.
func (a *Aggregator) Normalize(ctx context.Context, e Entity, codes []string) []string {
	present := make([]string, 0, len(codes))
	var dropped []string
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		present = append(present, code)
		if _, ok := a.taxonomy.Canonical(code); !ok {
			dropped = append(dropped, code)
		}
	}

	consolidated := a.taxonomy.Consolidate(present)
	out := consolidated[:0]
	for _, code := range consolidated {
		if a.taxonomy.Valid(code) {
			out = append(out, code)
		}
	}

	if len(dropped) > 0 {
		applog.Warn(ctx, "dropped unknown allergen codes", "kind", e.Kind, "id", e.ID, "codes", dropped)
	}
	return out
}

// Aggregate unions allergen codes from ingredients: a recipe's own
// ingredients, or a dish's recipes' ingredients plus its direct ones. The
// result is not consolidated.
func (a *Aggregator) Aggregate(ctx context.Context, kind string, id uuid.UUID) ([]string, error) {
	switch kind {
	case models.EntityRecipe:
		return a.recipeCodes(ctx, id)
	case models.EntityDish:
		return a.dishCodes(ctx, id)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (a *Aggregator) recipeCodes(ctx context.Context, recipeID uuid.UUID) ([]string, error) {
	rows, err := a.source.RecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe %s ingredients: %w", recipeID, err)
	}
	var codes []string
	for _, row := range rows {
		if row.Ingredient != nil {
			codes = append(codes, row.Ingredient.Allergens...)
		}
	}
	return codes, nil
}

func (a *Aggregator) dishCodes(ctx context.Context, dishID uuid.UUID) ([]string, error) {
	links, err := a.source.DishRecipes(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("load dish %s recipes: %w", dishID, err)
	}

	recipeIDs := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		recipeIDs = append(recipeIDs, link.RecipeID)
	}
	byRecipe, err := a.source.RecipeIngredientsFor(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load dish %s recipe ingredients: %w", dishID, err)
	}

	var codes []string
	for _, recipeID := range recipeIDs {
		for _, row := range byRecipe[recipeID] {
			if row.Ingredient != nil {
				codes = append(codes, row.Ingredient.Allergens...)
			}
		}
	}

	rows, err := a.source.DishIngredients(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("load dish %s ingredients: %w", dishID, err)
	}
	for _, row := range rows {
		if row.Ingredient != nil {
			codes = append(codes, row.Ingredient.Allergens...)
		}
	}
	return codes, nil
}
