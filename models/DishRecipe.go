package models

import "github.com/google/uuid"

// DishRecipe embeds a recipe in a dish. Quantity multiplies the recipe's
// per-serving cost; nil means one serving.
type DishRecipe struct {
	Base
	DishID   uuid.UUID `gorm:"type:uuid;not null;index" json:"dish_id"`
	RecipeID uuid.UUID `gorm:"type:uuid;not null" json:"recipe_id"`
	Quantity *float64  `json:"quantity"`
	Recipe   *Recipe   `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}
