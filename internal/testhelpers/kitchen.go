// Package testhelpers holds in-memory fixtures shared by the engine's tests.
package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"prepcost/models"
)

// ErrNotFound is returned by Kitchen for unknown ids.
var ErrNotFound = errors.New("testhelpers: not found")

// Kitchen is an in-memory store with per-call failure injection. It
// satisfies the narrow store interfaces declared by the engine packages.
type Kitchen struct {
	mu sync.Mutex

	ingredients     map[uuid.UUID]*models.Ingredient
	recipes         map[uuid.UUID]*models.Recipe
	dishes          map[uuid.UUID]*models.Dish
	recipeRows      map[uuid.UUID][]models.RecipeIngredient
	dishRecipes     map[uuid.UUID][]models.DishRecipe
	dishIngredients map[uuid.UUID][]models.DishIngredient
	failures        map[string]error
	calls           map[string]int

	PriceWrites   map[uuid.UUID]float64
	DietaryWrites map[string]models.DietaryCache
}

func NewKitchen() *Kitchen {
	return &Kitchen{
		ingredients:     make(map[uuid.UUID]*models.Ingredient),
		recipes:         make(map[uuid.UUID]*models.Recipe),
		dishes:          make(map[uuid.UUID]*models.Dish),
		recipeRows:      make(map[uuid.UUID][]models.RecipeIngredient),
		dishRecipes:     make(map[uuid.UUID][]models.DishRecipe),
		dishIngredients: make(map[uuid.UUID][]models.DishIngredient),
		failures:        make(map[string]error),
		calls:           make(map[string]int),
		PriceWrites:     make(map[uuid.UUID]float64),
		DietaryWrites:   make(map[string]models.DietaryCache),
	}
}

func Float(v float64) *float64 { return &v }

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }

// Fail makes the named operation return err for id. Operation names match
// the method names, e.g. "RecipeIngredients". RecipeIngredientsFor also
// honours per-recipe "RecipeIngredients" failures.
func (k *Kitchen) Fail(op string, id uuid.UUID, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failures[failureKey(op, id)] = err
}

func failureKey(op string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", op, id)
}

// Calls reports how many times the named read was made.
func (k *Kitchen) Calls(op string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.calls[op]
}

func (k *Kitchen) failure(op string, id uuid.UUID) error {
	return k.failures[failureKey(op, id)]
}

// AddIngredient stores ing, assigning an id when missing.
func (k *Kitchen) AddIngredient(ing models.Ingredient) *models.Ingredient {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	stored := ing
	k.ingredients[ing.ID] = &stored
	return &stored
}

// AddRecipe stores r and returns its id.
func (k *Kitchen) AddRecipe(r models.Recipe) uuid.UUID {
	k.mu.Lock()
	defer k.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	stored := r
	k.recipes[r.ID] = &stored
	return r.ID
}

// AddRecipeRow links ing into recipeID at quantity.
func (k *Kitchen) AddRecipeRow(recipeID uuid.UUID, ing *models.Ingredient, quantity float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	row := models.RecipeIngredient{RecipeID: recipeID, Quantity: quantity, Ingredient: ing}
	row.ID = uuid.New()
	if ing != nil {
		row.IngredientID = ing.ID
		row.Unit = ing.Unit
	}
	k.recipeRows[recipeID] = append(k.recipeRows[recipeID], row)
}

// AddDish stores d and returns its id.
func (k *Kitchen) AddDish(d models.Dish) uuid.UUID {
	k.mu.Lock()
	defer k.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	stored := d
	k.dishes[d.ID] = &stored
	return d.ID
}

func (k *Kitchen) AddDishRecipe(dishID, recipeID uuid.UUID, quantity *float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	link := models.DishRecipe{DishID: dishID, RecipeID: recipeID, Quantity: quantity}
	link.ID = uuid.New()
	k.dishRecipes[dishID] = append(k.dishRecipes[dishID], link)
}

func (k *Kitchen) AddDishIngredient(dishID uuid.UUID, ing *models.Ingredient, quantity float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	row := models.DishIngredient{DishID: dishID, Quantity: quantity, Ingredient: ing}
	row.ID = uuid.New()
	if ing != nil {
		row.IngredientID = ing.ID
		row.Unit = ing.Unit
	}
	k.dishIngredients[dishID] = append(k.dishIngredients[dishID], row)
}

func (k *Kitchen) Recipe(_ context.Context, id uuid.UUID) (*models.Recipe, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("Recipe", id); err != nil {
		return nil, err
	}
	r, ok := k.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (k *Kitchen) RecipeIngredients(_ context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls["RecipeIngredients"]++
	if err := k.failure("RecipeIngredients", recipeID); err != nil {
		return nil, err
	}
	return append([]models.RecipeIngredient(nil), k.recipeRows[recipeID]...), nil
}

func (k *Kitchen) RecipeIngredientsFor(_ context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.RecipeIngredient, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls["RecipeIngredientsFor"]++
	out := make(map[uuid.UUID][]models.RecipeIngredient, len(recipeIDs))
	for _, id := range recipeIDs {
		if err := k.failure("RecipeIngredientsFor", id); err != nil {
			return nil, err
		}
		if err := k.failure("RecipeIngredients", id); err != nil {
			return nil, err
		}
		if rows := k.recipeRows[id]; len(rows) > 0 {
			out[id] = append([]models.RecipeIngredient(nil), rows...)
		}
	}
	return out, nil
}

func (k *Kitchen) Dish(_ context.Context, id uuid.UUID) (*models.Dish, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("Dish", id); err != nil {
		return nil, err
	}
	d, ok := k.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (k *Kitchen) DishRecipes(_ context.Context, dishID uuid.UUID) ([]models.DishRecipe, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("DishRecipes", dishID); err != nil {
		return nil, err
	}
	return append([]models.DishRecipe(nil), k.dishRecipes[dishID]...), nil
}

func (k *Kitchen) DishIngredients(_ context.Context, dishID uuid.UUID) ([]models.DishIngredient, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("DishIngredients", dishID); err != nil {
		return nil, err
	}
	return append([]models.DishIngredient(nil), k.dishIngredients[dishID]...), nil
}

func (k *Kitchen) SetMenuItemRecommendedPrice(_ context.Context, itemID uuid.UUID, price float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("SetMenuItemRecommendedPrice", itemID); err != nil {
		return err
	}
	k.PriceWrites[itemID] = price
	return nil
}

func (k *Kitchen) UpdateDietaryCache(_ context.Context, kind string, id uuid.UUID, cache models.DietaryCache) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.failure("UpdateDietaryCache", id); err != nil {
		return err
	}
	k.DietaryWrites[kind+":"+id.String()] = cache
	return nil
}

// PriceWrite returns the recorded price write for itemID.
func (k *Kitchen) PriceWrite(itemID uuid.UUID) (float64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.PriceWrites[itemID]
	return p, ok
}

// DietaryWrite returns the recorded dietary cache write for an entity.
func (k *Kitchen) DietaryWrite(kind string, id uuid.UUID) (models.DietaryCache, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	c, ok := k.DietaryWrites[kind+":"+id.String()]
	return c, ok
}
