package dietary

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"prepcost/internal/allergen"
	applog "prepcost/internal/log"
	"prepcost/internal/schema"
	"prepcost/internal/stale"
	"prepcost/models"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	MethodCategory = "ingredient-category"
	MethodKeyword  = "keyword-fallback"
)

// Status is a vegetarian/vegan verdict. nil flags mean unknown.
type Status struct {
	IsVegetarian *bool
	IsVegan      *bool
	Confidence   string
	Method       string
}

type Aggregator interface {
	AggregateDietaryStatus(ctx context.Context, kind string, id uuid.UUID, forceRecalc bool) (*Status, error)
}

// Store is what RuleEngine reads and writes.
type Store interface {
	Recipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	Dish(ctx context.Context, id uuid.UUID) (*models.Dish, error)
	RecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error)
	RecipeIngredientsFor(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.RecipeIngredient, error)
	DishRecipes(ctx context.Context, dishID uuid.UUID) ([]models.DishRecipe, error)
	DishIngredients(ctx context.Context, dishID uuid.UUID) ([]models.DishIngredient, error)
	UpdateDietaryCache(ctx context.Context, kind string, id uuid.UUID, cache models.DietaryCache) error
}

// RuleEngine classifies a recipe or dish from its ingredients' categories,
// falling back to name keywords, and caches the verdict on the entity.
// Caching stops for the engine's lifetime once the database reports the
// dietary columns missing.
type RuleEngine struct {
	store    Store
	taxonomy *allergen.Taxonomy
	now      func() time.Time
	noCache  atomic.Bool
}

func NewRuleEngine(store Store, taxonomy *allergen.Taxonomy) *RuleEngine {
	if taxonomy == nil {
		taxonomy = allergen.Default()
	}
	return &RuleEngine{store: store, taxonomy: taxonomy, now: time.Now}
}

func (e *RuleEngine) AggregateDietaryStatus(ctx context.Context, kind string, id uuid.UUID, forceRecalc bool) (*Status, error) {
	if !forceRecalc {
		cached, err := e.cached(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if status, ok := cached.Get(); ok {
			return &status, nil
		}
	}

	ingredients, err := e.ingredients(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if len(ingredients) == 0 {
		return nil, nil
	}

	status, allergens := e.evaluate(ingredients)
	status.IsVegan = ValidateVegan(ctx, status.IsVegan, allergens, e.taxonomy)

	e.persist(ctx, kind, id, status, allergens)
	return &status, nil
}

func (e *RuleEngine) persist(ctx context.Context, kind string, id uuid.UUID, status Status, allergens []string) {
	if e.noCache.Load() {
		return
	}

	checkedAt := e.now().UTC()
	cache := models.DietaryCache{
		Allergens:         allergens,
		IsVegetarian:      status.IsVegetarian,
		IsVegan:           status.IsVegan,
		DietaryConfidence: &status.Confidence,
		DietaryMethod:     &status.Method,
		DietaryCheckedAt:  &checkedAt,
	}
	err := e.store.UpdateDietaryCache(ctx, kind, id, cache)
	if err == nil {
		return
	}
	if drift := schema.Classify(err); drift != schema.NotDrift {
		if e.noCache.CompareAndSwap(false, true) {
			applog.Warn(ctx, "dietary columns unavailable, caching disabled", "drift", drift, "error", err)
		}
		return
	}
	applog.Error(ctx, "failed to cache dietary status", "kind", kind, "id", id, "error", err)
}

// CachingDisabled reports whether schema drift switched off cache writes.
func (e *RuleEngine) CachingDisabled() bool {
	return e.noCache.Load()
}

// cached returns the verdict stored on the entity. Incomplete caches need
// revalidation.
func (e *RuleEngine) cached(ctx context.Context, kind string, id uuid.UUID) (stale.Value[Status], error) {
	var cache models.DietaryCache
	switch kind {
	case models.EntityRecipe:
		recipe, err := e.store.Recipe(ctx, id)
		if err != nil {
			return stale.Missing[Status](), fmt.Errorf("load recipe %s: %w", id, err)
		}
		cache = recipe.DietaryCache
	case models.EntityDish:
		dish, err := e.store.Dish(ctx, id)
		if err != nil {
			return stale.Missing[Status](), fmt.Errorf("load dish %s: %w", id, err)
		}
		cache = dish.DietaryCache
	default:
		return stale.Missing[Status](), fmt.Errorf("unknown entity kind %q", kind)
	}

	if cache.IsVegetarian == nil || cache.IsVegan == nil || cache.DietaryConfidence == nil || cache.DietaryMethod == nil {
		return stale.Missing[Status](), nil
	}
	return stale.Cached(Status{
		IsVegetarian: cache.IsVegetarian,
		IsVegan:      cache.IsVegan,
		Confidence:   *cache.DietaryConfidence,
		Method:       *cache.DietaryMethod,
	}), nil
}

func (e *RuleEngine) ingredients(ctx context.Context, kind string, id uuid.UUID) ([]*models.Ingredient, error) {
	var out []*models.Ingredient
	appendRows := func(rows []models.RecipeIngredient) {
		for _, row := range rows {
			if row.Ingredient != nil {
				out = append(out, row.Ingredient)
			}
		}
	}

	switch kind {
	case models.EntityRecipe:
		rows, err := e.store.RecipeIngredients(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load recipe %s ingredients: %w", id, err)
		}
		appendRows(rows)
	case models.EntityDish:
		links, err := e.store.DishRecipes(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load dish %s recipes: %w", id, err)
		}
		recipeIDs := make([]uuid.UUID, 0, len(links))
		for _, link := range links {
			recipeIDs = append(recipeIDs, link.RecipeID)
		}
		byRecipe, err := e.store.RecipeIngredientsFor(ctx, recipeIDs)
		if err != nil {
			return nil, fmt.Errorf("load dish %s recipe ingredients: %w", id, err)
		}
		for _, recipeID := range recipeIDs {
			appendRows(byRecipe[recipeID])
		}

		rows, err := e.store.DishIngredients(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load dish %s ingredients: %w", id, err)
		}
		for _, row := range rows {
			if row.Ingredient != nil {
				out = append(out, row.Ingredient)
			}
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return out, nil
}

func (e *RuleEngine) evaluate(ingredients []*models.Ingredient) (Status, []string) {
	worst := classPlant
	weakest := basisCategory
	var codes []string
	for _, ing := range ingredients {
		c, b := classify(ing, e.taxonomy)
		worst = max(worst, c)
		weakest = max(weakest, b)
		codes = append(codes, ing.Allergens...)
	}

	status := Status{
		IsVegetarian: boolPtr(worst < classAnimalFlesh),
		IsVegan:      boolPtr(worst == classPlant),
		Confidence:   ConfidenceHigh,
		Method:       MethodCategory,
	}
	switch weakest {
	case basisKeyword:
		status.Confidence, status.Method = ConfidenceMedium, MethodKeyword
	case basisUnknown:
		status.Confidence, status.Method = ConfidenceLow, MethodKeyword
	}
	return status, e.taxonomy.Consolidate(codes)
}
