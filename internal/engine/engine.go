// Package engine is the boundary the HTTP layer and other callers use to
// cost, price and enrich kitchen entities.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prepcost/internal/allergen"
	"prepcost/internal/costing"
	"prepcost/internal/dedup"
	"prepcost/internal/dietary"
	"prepcost/internal/enrich"
	"prepcost/internal/metrics"
	"prepcost/internal/pricing"
	"prepcost/internal/schema"
	"prepcost/internal/tasks"
	"prepcost/models"
)

// Store is everything the engine reads and writes.
type Store interface {
	costing.Store
	dietary.Store
	enrich.PriceCache
	Menu(ctx context.Context, id uuid.UUID) (*models.Menu, error)
	MenuItems(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, schema.QueryShape, error)
}

type Options struct {
	Costing     costing.Options
	Concurrency int
	Warnings    dedup.Cache
	Tasks       *tasks.Runner
	Metrics     *metrics.Registry
	Taxonomy    *allergen.Taxonomy
	// Dietary replaces the default rule engine.
	Dietary dietary.Aggregator
}

type Engine struct {
	store    Store
	costs    *costing.Calculator
	prices   *pricing.Recommender
	pipeline *enrich.Pipeline
	tasks    *tasks.Runner
}

func New(store Store, opts Options) *Engine {
	if opts.Warnings == nil {
		opts.Warnings = dedup.NewMemory(time.Hour)
	}
	if opts.Tasks == nil {
		opts.Tasks = tasks.NewRunner(0, opts.Metrics)
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = allergen.Default()
	}
	if opts.Dietary == nil {
		opts.Dietary = dietary.NewRuleEngine(store, opts.Taxonomy)
	}

	costs := costing.NewCalculator(store, opts.Warnings, opts.Metrics, opts.Costing)
	prices := pricing.NewRecommender(costs)
	pipeline := enrich.New(enrich.Deps{
		Pricer:      prices,
		Allergens:   allergen.NewAggregator(store, opts.Taxonomy, opts.Metrics),
		Dietary:     opts.Dietary,
		Cache:       store,
		Tasks:       opts.Tasks,
		Taxonomy:    opts.Taxonomy,
		Metrics:     opts.Metrics,
		Concurrency: opts.Concurrency,
	})

	return &Engine{store: store, costs: costs, prices: prices, pipeline: pipeline, tasks: opts.Tasks}
}

func (e *Engine) ComputeRecipeCost(ctx context.Context, recipeID uuid.UUID, multiplier float64) (float64, error) {
	return e.costs.RecipeCost(ctx, recipeID, multiplier)
}

func (e *Engine) ComputeDishCost(ctx context.Context, dishID uuid.UUID) (float64, error) {
	return e.costs.DishCost(ctx, dishID)
}

func (e *Engine) RecommendedPrice(ctx context.Context, entityType string, entityID uuid.UUID) (float64, error) {
	return e.prices.RecommendedPrice(ctx, entityType, entityID)
}

func (e *Engine) EnrichMenuItems(ctx context.Context, items []models.MenuItem, menuID uuid.UUID, hasPricingColumns, hasDietaryColumns bool) []enrich.Item {
	return e.pipeline.Enrich(ctx, items, menuID, hasPricingColumns, hasDietaryColumns)
}

// Menu loads a menu's items with whatever columns the database has and
// enriches them.
func (e *Engine) Menu(ctx context.Context, menuID uuid.UUID) ([]enrich.Item, error) {
	if _, err := e.store.Menu(ctx, menuID); err != nil {
		return nil, err
	}
	items, shape, err := e.store.MenuItems(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("menu %s: %w", menuID, err)
	}
	return e.EnrichMenuItems(ctx, items, menuID, shape.HasPricing, shape.HasDietary), nil
}

// Tasks exposes the background runner so callers can drain it on shutdown.
func (e *Engine) Tasks() *tasks.Runner {
	return e.tasks
}
