package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	applog "prepcost/internal/log"
)

// RecipeCost returns the per-serving cost of a recipe scaled by multiplier.
//
// The multiplier is applied to every row and, unless Options.SingleMultiplier
// is set, once more to the per-serving result. Historical recommended prices
// were calibrated against the double application. With multiplier 1 both
// modes return the pure per-serving cost.
func (c *Calculator) RecipeCost(ctx context.Context, recipeID uuid.UUID, multiplier float64) (float64, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveCost("recipe", time.Since(started).Seconds()) }()

	yield := c.recipeYield(ctx, recipeID)

	rows, err := c.store.RecipeIngredients(ctx, recipeID)
	if err != nil {
		return 0, fmt.Errorf("load recipe %s ingredients: %w", recipeID, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var total float64
	for _, ri := range rows {
		total += c.rowCost(ctx, "recipe", recipeID, row{
			id:         ri.ID,
			quantity:   ri.Quantity,
			unit:       ri.Unit,
			ingredient: ri.Ingredient,
		}, multiplier)
	}

	perServing := total / yield
	if c.opts.SingleMultiplier {
		return perServing, nil
	}
	return perServing * multiplier, nil
}

// recipeYield returns the servings a recipe produces. Lookup failures are
// logged and count as one serving.
func (c *Calculator) recipeYield(ctx context.Context, recipeID uuid.UUID) float64 {
	recipe, err := c.store.Recipe(ctx, recipeID)
	if err != nil {
		applog.Warn(ctx, "recipe yield lookup failed; using 1", "recipe_id", recipeID, "error", err)
		return 1
	}
	if recipe.Yield == nil || !finite(*recipe.Yield) || *recipe.Yield <= 0 {
		return 1
	}
	return *recipe.Yield
}
