package models

import "github.com/google/uuid"

type RecipeIngredient struct {
	Base
	RecipeID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"recipe_id"`
	IngredientID uuid.UUID   `gorm:"type:uuid;not null" json:"ingredient_id"`
	Quantity     float64     `gorm:"not null;default:0" json:"quantity"`
	Unit         string      `json:"unit"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
