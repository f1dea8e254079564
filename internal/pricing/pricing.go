// Package pricing converts costs into recommended selling prices.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prepcost/models"
)

const (
	TargetGrossProfitPercent = 70
	GSTRate                  = 0.10
)

var ErrUnknownEntityType = errors.New("unknown entity type")

var (
	one        = decimal.NewFromInt(1)
	hundred    = decimal.NewFromInt(100)
	cent       = decimal.New(1, -2)
	gstFactor  = one.Add(decimal.NewFromFloat(GSTRate))
	costFactor = one.Sub(decimal.NewFromInt(TargetGrossProfitPercent).Div(hundred))
)

func charmPrice(cost float64) decimal.Decimal {
	exclGST := decimal.NewFromFloat(cost).Div(costFactor)
	inclGST := exclGST.Mul(gstFactor)
	return inclGST.Ceil().Sub(cent)
}

// PriceFromCost returns the GST-inclusive charm price for cost: marked up to
// the target gross profit, GST added, rounded up to the next whole unit less
// one cent. Non-positive costs have no price.
func PriceFromCost(cost float64) float64 {
	if !(cost > 0) {
		return 0
	}
	return charmPrice(cost).InexactFloat64()
}

// DishPrice is the recommended price for a whole dish. The result excludes
// GST: the charm price divided back by 1 + GSTRate.
func DishPrice(cost float64) float64 {
	if !(cost > 0) {
		return 0
	}
	return charmPrice(cost).Div(gstFactor).InexactFloat64()
}

// RecipePrice is the recommended price for one serving of a recipe. The
// result includes GST. costPerServing must already be divided by yield.
func RecipePrice(costPerServing float64) float64 {
	return PriceFromCost(costPerServing)
}

// FoodCostPercent is cost as a percentage of price, 0 without a price.
func FoodCostPercent(cost, price float64) float64 {
	if !(price > 0) {
		return 0
	}
	return decimal.NewFromFloat(cost).Div(decimal.NewFromFloat(price)).Mul(hundred).Round(2).InexactFloat64()
}

// Coster supplies the costs prices are derived from.
type Coster interface {
	RecipeCost(ctx context.Context, recipeID uuid.UUID, multiplier float64) (float64, error)
	DishCost(ctx context.Context, dishID uuid.UUID) (float64, error)
}

type Recommender struct {
	costs Coster
}

func NewRecommender(costs Coster) *Recommender {
	return &Recommender{costs: costs}
}

// RecommendedPrice prices a dish (GST exclusive) or one serving of a recipe
// (GST inclusive).
func (r *Recommender) RecommendedPrice(ctx context.Context, entityType string, id uuid.UUID) (float64, error) {
	switch entityType {
	case models.EntityDish:
		cost, err := r.costs.DishCost(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("cost dish %s: %w", id, err)
		}
		return DishPrice(cost), nil
	case models.EntityRecipe:
		cost, err := r.costs.RecipeCost(ctx, id, 1)
		if err != nil {
			return 0, fmt.Errorf("cost recipe %s: %w", id, err)
		}
		return RecipePrice(cost), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
}
