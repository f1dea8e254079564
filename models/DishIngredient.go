package models

import "github.com/google/uuid"

type DishIngredient struct {
	Base
	DishID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"dish_id"`
	IngredientID uuid.UUID   `gorm:"type:uuid;not null" json:"ingredient_id"`
	Quantity     float64     `gorm:"not null;default:0" json:"quantity"`
	Unit         string      `json:"unit"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
