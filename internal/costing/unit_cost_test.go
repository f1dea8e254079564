package costing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"prepcost/internal/testhelpers"
	"prepcost/models"
)

func TestResolveUnitCost(t *testing.T) {
	t.Parallel()

	f := testhelpers.Float
	cases := []struct {
		name string
		ing  *models.Ingredient
		want UnitCost
	}{
		{"nil ingredient", nil, UnitCost{Missing: true}},
		{"no costs", &models.Ingredient{}, UnitCost{Missing: true}},
		{"raw cost", &models.Ingredient{CostPerUnit: f(0.02)}, UnitCost{PerUnit: 0.02}},
		{"incl trim preferred", &models.Ingredient{CostPerUnit: f(0.02), CostPerUnitInclTrim: f(0.025)}, UnitCost{PerUnit: 0.025, WasteApplied: true}},
		{"zero incl trim is missing", &models.Ingredient{CostPerUnit: f(0.02), CostPerUnitInclTrim: f(0)}, UnitCost{WasteApplied: true, Missing: true}},
		{"NaN raw cost", &models.Ingredient{CostPerUnit: f(math.NaN())}, UnitCost{Missing: true}},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveUnitCost(tt.ing))
		})
	}
}

func TestRowCostFormula(t *testing.T) {
	t.Parallel()

	f := testhelpers.Float
	raw := UnitCost{PerUnit: 0.01}
	trimmed := UnitCost{PerUnit: 0.01, WasteApplied: true}

	cases := []struct {
		name       string
		quantity   float64
		cost       UnitCost
		waste      *float64
		yield      *float64
		multiplier float64
		want       float64
	}{
		{"waste and yield", 400, raw, f(20), f(90), 1, 4 / 0.8 / 0.9},
		{"waste already applied", 400, trimmed, f(20), f(90), 1, 4 / 0.9},
		{"defaults", 400, raw, nil, nil, 1, 4},
		{"zero yield means 100", 400, raw, nil, f(0), 1, 4},
		{"waste of 100 ignored", 400, raw, f(100), nil, 1, 4},
		{"negative waste ignored", 400, raw, f(-5), nil, 1, 4},
		{"multiplier", 400, raw, f(20), nil, 3, 12 / 0.8},
		{"missing cost", 400, UnitCost{Missing: true}, f(20), f(90), 1, 0},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RowCost(tt.quantity, tt.cost, tt.waste, tt.yield, tt.multiplier)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestQuantityOrOne(t *testing.T) {
	t.Parallel()

	f := testhelpers.Float
	assert.Equal(t, 1.0, QuantityOrOne(nil))
	assert.Equal(t, 1.0, QuantityOrOne(f(0)))
	assert.Equal(t, 1.0, QuantityOrOne(f(-2)))
	assert.Equal(t, 1.0, QuantityOrOne(f(math.Inf(1))))
	assert.Equal(t, 2.5, QuantityOrOne(f(2.5)))
}
