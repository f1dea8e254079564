package models

type Dish struct {
	Base
	Name         string           `gorm:"not null" json:"name"`
	Description  string           `gorm:"type:text" json:"description"`
	SellingPrice *float64         `json:"selling_price"`
	Recipes      []DishRecipe     `gorm:"foreignKey:DishID" json:"recipes,omitempty"`
	Ingredients  []DishIngredient `gorm:"foreignKey:DishID" json:"ingredients,omitempty"`

	DietaryCache
}
