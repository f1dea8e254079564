package models

import (
	"time"

	"gorm.io/datatypes"
)

type Recipe struct {
	Base
	Name        string             `gorm:"not null" json:"name"`
	Description string             `gorm:"type:text" json:"description"`
	Yield       *float64           `gorm:"column:yield" json:"yield"`
	YieldUnit   string             `json:"yield_unit"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`

	DietaryCache
}

// DietaryCache mirrors the derived allergen and dietary columns cached on
// recipes, dishes and menu items. None of it is authoritative.
type DietaryCache struct {
	Allergens         datatypes.JSONSlice[string] `gorm:"column:allergens;default:'[]'" json:"allergens"`
	IsVegetarian      *bool                       `json:"is_vegetarian"`
	IsVegan           *bool                       `json:"is_vegan"`
	DietaryConfidence *string                     `json:"dietary_confidence"`
	DietaryMethod     *string                     `json:"dietary_method"`
	DietaryCheckedAt  *time.Time                  `json:"dietary_checked_at,omitempty"`
}
