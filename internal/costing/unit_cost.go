package costing

import (
	"math"

	"prepcost/models"
)

// UnitCost is an ingredient's effective cost per costing unit.
type UnitCost struct {
	PerUnit float64
	// WasteApplied is set when PerUnit already includes trim and peel loss.
	WasteApplied bool
	// Missing is set when no usable cost is recorded; PerUnit is then 0.
	Missing bool
}

// ResolveUnitCost prefers the cost including trim over the raw cost.
func ResolveUnitCost(ing *models.Ingredient) UnitCost {
	if ing == nil {
		return UnitCost{Missing: true}
	}
	if ing.CostPerUnitInclTrim != nil && finite(*ing.CostPerUnitInclTrim) {
		c := *ing.CostPerUnitInclTrim
		return UnitCost{PerUnit: c, WasteApplied: true, Missing: c == 0}
	}
	if ing.CostPerUnit != nil && finite(*ing.CostPerUnit) {
		c := *ing.CostPerUnit
		return UnitCost{PerUnit: c, Missing: c == 0}
	}
	return UnitCost{Missing: true}
}

// RowCost costs one ingredient row:
//
//	base = quantity * perUnit * multiplier
//	base / (1 - waste/100)   unless waste is already applied
//	     / (yield/100)
//
// Waste outside (0, 100) leaves base unchanged. A nil or non-positive yield
// counts as 100.
func RowCost(quantity float64, cost UnitCost, wastePct, yieldPct *float64, multiplier float64) float64 {
	total := quantity * cost.PerUnit * multiplier

	if !cost.WasteApplied && WasteUsable(wastePct) && *wastePct > 0 {
		total = total / (1 - *wastePct/100)
	}

	return total / (effectiveYield(yieldPct) / 100)
}

// WasteUsable reports whether a waste percentage can be applied. nil counts
// as usable zero waste.
func WasteUsable(wastePct *float64) bool {
	if wastePct == nil {
		return true
	}
	w := *wastePct
	return finite(w) && w >= 0 && w < 100
}

func effectiveYield(yieldPct *float64) float64 {
	if yieldPct == nil || !finite(*yieldPct) || *yieldPct <= 0 {
		return 100
	}
	return *yieldPct
}

// QuantityOrOne turns a nullable link quantity into a usable multiplier.
func QuantityOrOne(q *float64) float64 {
	if q == nil || !finite(*q) || *q <= 0 {
		return 1
	}
	return *q
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
