// Package enrich attaches prices, allergens and dietary verdicts to menu
// items.
package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prepcost/internal/allergen"
	"prepcost/internal/dietary"
	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
	"prepcost/internal/stale"
	"prepcost/internal/tasks"
	"prepcost/models"
)

// Item is a menu item with freshly derived fields. The derived fields shadow
// the cached snapshot columns of the embedded item when encoded.
type Item struct {
	models.MenuItem

	Allergens               []string `json:"allergens"`
	IsVegetarian            *bool    `json:"is_vegetarian"`
	IsVegan                 *bool    `json:"is_vegan"`
	DietaryConfidence       *string  `json:"dietary_confidence"`
	DietaryMethod           *string  `json:"dietary_method"`
	RecommendedSellingPrice *float64 `json:"recommended_selling_price,omitempty"`
}

type Pricer interface {
	RecommendedPrice(ctx context.Context, entityType string, id uuid.UUID) (float64, error)
}

type AllergenResolver interface {
	Resolve(ctx context.Context, e allergen.Entity) []string
}

type PriceCache interface {
	SetMenuItemRecommendedPrice(ctx context.Context, itemID uuid.UUID, price float64) error
}

// Deps wires a Pipeline.
type Deps struct {
	Pricer    Pricer
	Allergens AllergenResolver
	Dietary   dietary.Aggregator
	Cache     PriceCache
	Tasks     *tasks.Runner
	Taxonomy  *allergen.Taxonomy
	Metrics   *metrics.Registry
	// Concurrency caps items enriched at once; 0 means no cap.
	Concurrency int
}

type Pipeline struct {
	d Deps
}

func New(d Deps) *Pipeline {
	if d.Tasks == nil {
		d.Tasks = tasks.NewRunner(0, d.Metrics)
	}
	if d.Taxonomy == nil {
		d.Taxonomy = allergen.Default()
	}
	return &Pipeline{d: d}
}

// Enrich processes every item concurrently and returns one record per item
// in input order. Per-item failures degrade that item only.
func (p *Pipeline) Enrich(ctx context.Context, items []models.MenuItem, menuID uuid.UUID, hasPricingColumns, hasDietaryColumns bool) []Item {
	out := make([]Item, len(items))
	ctx = applog.With(ctx, "menu_id", menuID)

	var g errgroup.Group
	if p.d.Concurrency > 0 {
		g.SetLimit(p.d.Concurrency)
	}
	for i := range items {
		g.Go(func() error {
			out[i] = p.enrichOne(ctx, items[i], hasPricingColumns, hasDietaryColumns)
			return nil
		})
	}
	_ = g.Wait()

	applog.Debug(ctx, "menu items enriched", "count", len(out))
	return out
}

// enrichOne never panics. A panic in pricing or dietary enrichment degrades
// the item and keeps any price already computed.
func (p *Pipeline) enrichOne(ctx context.Context, item models.MenuItem, hasPricing, hasDietary bool) (enriched Item) {
	ctx = applog.With(ctx, "item_id", item.ID)
	enriched = Item{MenuItem: item, Allergens: []string{}}
	defer func() {
		if r := recover(); r != nil {
			applog.Error(ctx, "menu item enrichment panicked", "panic", r)
			p.d.Metrics.PartialFailure("menu_item_panic")
			p.d.Metrics.EnrichedItem("degraded")
			clearDietary(&enriched)
		}
	}()

	kind, id, ok := item.Target()
	if !ok {
		applog.Warn(ctx, "menu item links to neither or both of dish and recipe")
		p.d.Metrics.EnrichedItem("degraded")
		return enriched
	}

	if hasPricing {
		enriched.RecommendedSellingPrice = p.price(ctx, item, kind, id)
	}

	if err := p.dietaryFields(ctx, &enriched, kind, id, hasDietary); err != nil {
		applog.Error(ctx, "menu item dietary enrichment failed", "error", err)
		p.d.Metrics.PartialFailure("menu_item_dietary")
		p.d.Metrics.EnrichedItem("degraded")
		clearDietary(&enriched)
		return enriched
	}

	p.d.Metrics.EnrichedItem("ok")
	return enriched
}

// price trusts a cached recommended price, otherwise computes one and
// schedules a cache write. Failures leave the price empty.
func (p *Pipeline) price(ctx context.Context, item models.MenuItem, kind string, id uuid.UUID) *float64 {
	if cached, ok := stale.FromPtr(item.RecommendedSellingPrice).Get(); ok {
		return &cached
	}

	price, err := p.d.Pricer.RecommendedPrice(ctx, kind, id)
	if err != nil {
		applog.Error(ctx, "recommended price failed", "kind", kind, "id", id, "error", err)
		p.d.Metrics.PartialFailure("menu_item_price")
		return nil
	}

	if p.d.Cache != nil {
		itemID := item.ID
		p.d.Tasks.Go(ctx, "menu_item_price", func(ctx context.Context) error {
			return p.d.Cache.SetMenuItemRecommendedPrice(ctx, itemID, price)
		})
	}
	return &price
}

func clearDietary(out *Item) {
	out.Allergens = []string{}
	out.IsVegetarian, out.IsVegan = nil, nil
	out.DietaryConfidence, out.DietaryMethod = nil, nil
}

func (p *Pipeline) dietaryFields(ctx context.Context, out *Item, kind string, id uuid.UUID, hasDietary bool) error {
	entity := allergen.Entity{Kind: kind, ID: id, Cached: stale.Missing[[]string]()}
	if hasDietary {
		entity.Cached = cachedAllergens(out.MenuItem, kind)
	}
	allergens := p.d.Allergens.Resolve(ctx, entity)

	status, err := p.d.Dietary.AggregateDietaryStatus(ctx, kind, id, true)
	if err != nil {
		return fmt.Errorf("dietary status: %w", err)
	}

	out.Allergens = allergens
	if status == nil {
		return nil
	}

	out.IsVegetarian = status.IsVegetarian
	out.IsVegan = dietary.ValidateVegan(ctx, status.IsVegan, allergens, p.d.Taxonomy)
	if dietary.Conflicted(status.IsVegan, out.IsVegan) {
		p.d.Metrics.VeganConflict()
	}
	if status.Confidence != "" {
		out.DietaryConfidence = &status.Confidence
	}
	if status.Method != "" {
		out.DietaryMethod = &status.Method
	}
	return nil
}

// cachedAllergens reads the allergen cache of the preloaded dish or recipe.
func cachedAllergens(item models.MenuItem, kind string) stale.Value[[]string] {
	switch {
	case kind == models.EntityDish && item.Dish != nil && item.Dish.Allergens != nil:
		return stale.Cached([]string(item.Dish.Allergens))
	case kind == models.EntityRecipe && item.Recipe != nil && item.Recipe.Allergens != nil:
		return stale.Cached([]string(item.Recipe.Allergens))
	default:
		return stale.Missing[[]string]()
	}
}
