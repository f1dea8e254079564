package models

import (
	"github.com/google/uuid"
)

// Entity kinds a menu item can point at.
const (
	EntityDish   = "dish"
	EntityRecipe = "recipe"
)

type MenuItem struct {
	Base
	MenuID      uuid.UUID `gorm:"type:uuid;not null;index" json:"menu_id"`
	Category    string    `json:"category"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	// --- Link ---
	// Exactly one of these is set on a valid item.
	DishID   *uuid.UUID `gorm:"type:uuid" json:"dish_id,omitempty"`
	RecipeID *uuid.UUID `gorm:"type:uuid" json:"recipe_id,omitempty"`
	Dish     *Dish      `gorm:"foreignKey:DishID" json:"dish,omitempty"`
	Recipe   *Recipe    `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`

	ActualSellingPrice      *float64 `json:"actual_selling_price,omitempty"`
	RecommendedSellingPrice *float64 `json:"recommended_selling_price,omitempty"`

	DietaryCache
}

// Target reports which entity the item prices. ok is false when the item
// links to neither or both.
func (m MenuItem) Target() (kind string, id uuid.UUID, ok bool) {
	hasDish := m.DishID != nil && *m.DishID != uuid.Nil
	hasRecipe := m.RecipeID != nil && *m.RecipeID != uuid.Nil

	switch {
	case hasDish && hasRecipe:
		return "", uuid.Nil, false
	case hasDish:
		return EntityDish, *m.DishID, true
	case hasRecipe:
		return EntityRecipe, *m.RecipeID, true
	default:
		return "", uuid.Nil, false
	}
}
