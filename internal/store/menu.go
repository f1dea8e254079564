package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"

	applog "prepcost/internal/log"
	"prepcost/internal/schema"
	"prepcost/models"
)

func (s *GormStore) Menu(ctx context.Context, id uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	if err := s.db.WithContext(ctx).First(&menu, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "menu", id)
	}
	return &menu, nil
}

// MenuItems loads a menu's items with the widest query the database
// supports, narrowing the query on column errors. The returned shape tells
// callers which optional columns were read.
func (s *GormStore) MenuItems(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, schema.QueryShape, error) {
	rung := schema.RungFull
	for {
		shape := schema.Shape(rung)
		items, err := s.menuItems(ctx, menuID, shape)
		if err == nil {
			return items, shape, nil
		}

		kind := schema.Classify(err)
		next, ok := schema.Next(rung, kind)
		if !ok {
			if kind == schema.NotDrift {
				return nil, shape, fmt.Errorf("load menu %s items: %w", menuID, err)
			}
			return nil, shape, fmt.Errorf("load menu %s items: %w: %w", menuID, schema.ErrLadderExhausted, err)
		}

		applog.Warn(ctx, "menu item query hit schema drift; narrowing",
			"menu_id", menuID, "from", shape.Name, "to", next.String(), "drift", kind.String(), "error", err)
		s.metrics.SchemaFallback(next.String())
		rung = next
	}
}

func (s *GormStore) menuItems(ctx context.Context, menuID uuid.UUID, shape schema.QueryShape) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select(shape.ItemColumns).
		Where("menu_id = ?", menuID)

	if slices.Contains(shape.ItemColumns, "position") {
		q = q.Order("position").Order("id")
	} else {
		q = q.Order("id")
	}

	if shape.Relations {
		q = q.Preload("Dish", func(tx *gorm.DB) *gorm.DB {
			return tx.Select(shape.DishColumns)
		}).Preload("Recipe", func(tx *gorm.DB) *gorm.DB {
			return tx.Select(shape.RecipeColumns)
		})
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
