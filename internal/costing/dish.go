package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	applog "prepcost/internal/log"
)

// DishCost sums the dish's embedded recipes and its direct ingredients. A
// recipe that cannot be costed contributes 0; failing to list the dish's
// links is returned.
func (c *Calculator) DishCost(ctx context.Context, dishID uuid.UUID) (float64, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveCost("dish", time.Since(started).Seconds()) }()

	links, err := c.store.DishRecipes(ctx, dishID)
	if err != nil {
		return 0, fmt.Errorf("load dish %s recipes: %w", dishID, err)
	}

	var total float64
	for _, link := range links {
		cost, err := c.RecipeCost(ctx, link.RecipeID, QuantityOrOne(link.Quantity))
		if err != nil {
			applog.Error(ctx, "recipe cost failed inside dish; counting 0",
				"dish_id", dishID, "recipe_id", link.RecipeID, "error", err)
			c.metrics.PartialFailure("dish_recipe_cost")
			continue
		}
		total += cost
	}

	rows, err := c.store.DishIngredients(ctx, dishID)
	if err != nil {
		return 0, fmt.Errorf("load dish %s ingredients: %w", dishID, err)
	}
	for _, di := range rows {
		total += c.rowCost(ctx, "dish", dishID, row{
			id:         di.ID,
			quantity:   di.Quantity,
			unit:       di.Unit,
			ingredient: di.Ingredient,
		}, 1)
	}

	return total, nil
}
