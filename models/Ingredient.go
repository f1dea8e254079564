package models

import (
	"gorm.io/datatypes"
)

// Ingredient is a purchasable raw input. CostPerUnit excludes trim loss;
// CostPerUnitInclTrim, when set, already includes it.
type Ingredient struct {
	Base
	Name                    string                      `gorm:"not null" json:"name"`
	Unit                    string                      `gorm:"not null;default:g" json:"unit"`
	Category                string                      `json:"category"`
	CostPerUnit             *float64                    `json:"cost_per_unit"`
	CostPerUnitInclTrim     *float64                    `json:"cost_per_unit_incl_trim"`
	TrimPeelWastePercentage *float64                    `json:"trim_peel_waste_percentage"`
	YieldPercentage         *float64                    `json:"yield_percentage"`
	Allergens               datatypes.JSONSlice[string] `gorm:"column:allergens;default:'[]'" json:"allergens"`
}
