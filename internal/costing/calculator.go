// Package costing turns ingredient rows into recipe and dish costs.
package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prepcost/internal/dedup"
	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
	"prepcost/internal/units"
	"prepcost/models"
)

// Store is the read access the calculators need.
type Store interface {
	Recipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	RecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error)
	DishRecipes(ctx context.Context, dishID uuid.UUID) ([]models.DishRecipe, error)
	DishIngredients(ctx context.Context, dishID uuid.UUID) ([]models.DishIngredient, error)
}

type Options struct {
	// SingleMultiplier applies a recipe's quantity multiplier once, inside
	// the row cost. By default it is applied again to the per-serving cost.
	SingleMultiplier bool
}

type Calculator struct {
	store    Store
	opts     Options
	warnings dedup.Cache
	metrics  *metrics.Registry
}

// NewCalculator builds a Calculator. warnings throttles repeated
// data-quality warnings; nil uses a private in-memory cache.
func NewCalculator(store Store, warnings dedup.Cache, reg *metrics.Registry, opts Options) *Calculator {
	if warnings == nil {
		warnings = dedup.NewMemory(time.Hour)
	}
	return &Calculator{store: store, opts: opts, warnings: warnings, metrics: reg}
}

// row is the part of a recipe or dish ingredient link that costing reads.
type row struct {
	id         uuid.UUID
	quantity   float64
	unit       string
	ingredient *models.Ingredient
}

func (c *Calculator) rowCost(ctx context.Context, owner string, ownerID uuid.UUID, r row, multiplier float64) float64 {
	ing := r.ingredient
	if ing == nil {
		applog.Warn(ctx, "ingredient row without ingredient", owner+"_id", ownerID, "row_id", r.id)
		return 0
	}
	if !finite(r.quantity) {
		applog.Warn(ctx, "ingredient row with non-finite quantity", owner+"_id", ownerID, "ingredient_id", ing.ID)
		return 0
	}

	cost := ResolveUnitCost(ing)
	if cost.Missing && c.warnings.FirstSeen(ctx, "missing-cost:"+ing.ID.String()) {
		applog.Warn(ctx, "ingredient has no cost", "ingredient_id", ing.ID, "ingredient", ing.Name)
	}
	if !units.Same(r.unit, ing.Unit) && c.warnings.FirstSeen(ctx, fmt.Sprintf("unit:%s:%s", ing.ID, units.Normalize(r.unit))) {
		applog.Warn(ctx, "row unit differs from ingredient costing unit; quantity used as-is",
			"ingredient_id", ing.ID, "row_unit", r.unit, "ingredient_unit", ing.Unit)
	}
	if !cost.WasteApplied && !WasteUsable(ing.TrimPeelWastePercentage) && c.warnings.FirstSeen(ctx, "waste:"+ing.ID.String()) {
		applog.Warn(ctx, "ignoring out of range waste percentage",
			"ingredient_id", ing.ID, "waste_percentage", *ing.TrimPeelWastePercentage)
	}

	return RowCost(r.quantity, cost, ing.TrimPeelWastePercentage, ing.YieldPercentage, multiplier)
}
