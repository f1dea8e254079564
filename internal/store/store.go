// Package store reads and writes the kitchen tables through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prepcost/internal/metrics"
	"prepcost/models"
)

var ErrNotFound = errors.New("record not found")

type GormStore struct {
	db      *gorm.DB
	metrics *metrics.Registry
}

func New(db *gorm.DB, reg *metrics.Registry) *GormStore {
	return &GormStore{db: db, metrics: reg}
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

func (s *GormStore) Recipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "recipe", id)
	}
	return &recipe, nil
}

func (s *GormStore) Dish(ctx context.Context, id uuid.UUID) (*models.Dish, error) {
	var dish models.Dish
	if err := s.db.WithContext(ctx).First(&dish, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "dish", id)
	}
	return &dish, nil
}

func (s *GormStore) RecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	var rows []models.RecipeIngredient
	err := s.db.WithContext(ctx).
		Preload("Ingredient").
		Where("recipe_id = ?", recipeID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}
	return rows, nil
}

// RecipeIngredientsFor loads the rows of several recipes in one query.
func (s *GormStore) RecipeIngredientsFor(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.RecipeIngredient, error) {
	out := make(map[uuid.UUID][]models.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var rows []models.RecipeIngredient
	err := s.db.WithContext(ctx).
		Preload("Ingredient").
		Where("recipe_id IN ?", recipeIDs).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}
	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row)
	}
	return out, nil
}

func (s *GormStore) DishRecipes(ctx context.Context, dishID uuid.UUID) ([]models.DishRecipe, error) {
	var links []models.DishRecipe
	err := s.db.WithContext(ctx).Where("dish_id = ?", dishID).Order("created_at").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("load dish recipes: %w", err)
	}
	return links, nil
}

func (s *GormStore) DishIngredients(ctx context.Context, dishID uuid.UUID) ([]models.DishIngredient, error) {
	var rows []models.DishIngredient
	err := s.db.WithContext(ctx).
		Preload("Ingredient").
		Where("dish_id = ?", dishID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load dish ingredients: %w", err)
	}
	return rows, nil
}

// SetMenuItemRecommendedPrice overwrites the cached price. Writing the same
// price twice is harmless.
func (s *GormStore) SetMenuItemRecommendedPrice(ctx context.Context, itemID uuid.UUID, price float64) error {
	res := s.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"recommended_selling_price": price})
	if res.Error != nil {
		return fmt.Errorf("update menu item %s price: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("menu item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// UpdateDietaryCache stores derived allergen and dietary fields on a recipe
// or dish.
func (s *GormStore) UpdateDietaryCache(ctx context.Context, kind string, id uuid.UUID, cache models.DietaryCache) error {
	var model any
	switch kind {
	case models.EntityRecipe:
		model = &models.Recipe{}
	case models.EntityDish:
		model = &models.Dish{}
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}

	values := map[string]any{
		"is_vegetarian":      cache.IsVegetarian,
		"is_vegan":           cache.IsVegan,
		"dietary_confidence": cache.DietaryConfidence,
		"dietary_method":     cache.DietaryMethod,
		"dietary_checked_at": cache.DietaryCheckedAt,
	}
	if cache.Allergens != nil {
		values["allergens"] = cache.Allergens
	}

	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update %s %s dietary cache: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
