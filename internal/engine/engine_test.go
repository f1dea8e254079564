package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"prepcost/internal/dietary"
	"prepcost/internal/pricing"
	"prepcost/internal/schema"
	"prepcost/internal/store"
	"prepcost/internal/testhelpers"
	"prepcost/models"
)

type kitchen struct {
	menuID   uuid.UUID
	dishID   uuid.UUID
	recipeID uuid.UUID
}

func seed(t *testing.T, db *gorm.DB) kitchen {
	t.Helper()

	tomatoes := models.Ingredient{
		Name: "tomatoes", Unit: "g", Category: "produce",
		CostPerUnit: testhelpers.Float(0.01), TrimPeelWastePercentage: testhelpers.Float(20), YieldPercentage: testhelpers.Float(90),
	}
	cheese := models.Ingredient{Name: "parmesan", Unit: "g", Category: "dairy", CostPerUnit: testhelpers.Float(0.01), Allergens: []string{"dairy"}}
	require.NoError(t, db.Create(&tomatoes).Error)
	require.NoError(t, db.Create(&cheese).Error)

	sauce := models.Recipe{Name: "sauce", Yield: testhelpers.Float(4)}
	require.NoError(t, db.Create(&sauce).Error)
	require.NoError(t, db.Create(&models.RecipeIngredient{RecipeID: sauce.ID, IngredientID: tomatoes.ID, Quantity: 400, Unit: "g"}).Error)

	pasta := models.Dish{Name: "pasta"}
	require.NoError(t, db.Create(&pasta).Error)
	require.NoError(t, db.Create(&models.DishRecipe{DishID: pasta.ID, RecipeID: sauce.ID}).Error)
	require.NoError(t, db.Create(&models.DishIngredient{DishID: pasta.ID, IngredientID: cheese.ID, Quantity: 200, Unit: "g"}).Error)

	menu := models.Menu{Name: "dinner"}
	require.NoError(t, db.Create(&menu).Error)
	items := []models.MenuItem{
		{MenuID: menu.ID, Position: 1, DishID: &pasta.ID},
		{MenuID: menu.ID, Position: 2, RecipeID: &sauce.ID},
	}
	require.NoError(t, db.Create(&items).Error)

	return kitchen{menuID: menu.ID, dishID: pasta.ID, recipeID: sauce.ID}
}

func TestEngineCostsAndPrices(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewSQLiteDB(t)
	k := seed(t, db)
	e := New(store.New(db, nil), Options{})
	ctx := context.Background()

	recipeCost, err := e.ComputeRecipeCost(ctx, k.recipeID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.389, recipeCost, 0.001)

	dishCost, err := e.ComputeDishCost(ctx, k.dishID)
	require.NoError(t, err)
	assert.InDelta(t, recipeCost+2.00, dishCost, 1e-9)

	recipePrice, err := e.RecommendedPrice(ctx, models.EntityRecipe, k.recipeID)
	require.NoError(t, err)
	assert.InDelta(t, 5.99, recipePrice, 1e-9)

	dishPrice, err := e.RecommendedPrice(ctx, models.EntityDish, k.dishID)
	require.NoError(t, err)
	assert.InDelta(t, pricing.DishPrice(dishCost), dishPrice, 1e-9)

	_, err = e.RecommendedPrice(ctx, "menu", k.dishID)
	assert.ErrorIs(t, err, pricing.ErrUnknownEntityType)
}

func TestEngineMenuEnrichesAndCaches(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewSQLiteDB(t)
	k := seed(t, db)
	e := New(store.New(db, nil), Options{Concurrency: 1})
	ctx := context.Background()

	items, err := e.Menu(ctx, k.menuID)
	require.NoError(t, err)
	e.Tasks().Wait()

	require.Len(t, items, 2)
	pasta, sauce := items[0], items[1]

	assert.Equal(t, []string{"milk"}, pasta.Allergens)
	assert.True(t, *pasta.IsVegetarian)
	assert.False(t, *pasta.IsVegan)
	require.NotNil(t, pasta.RecommendedSellingPrice)

	assert.Empty(t, sauce.Allergens)
	assert.True(t, *sauce.IsVegan)
	assert.InDelta(t, 5.99, *sauce.RecommendedSellingPrice, 1e-9)

	var stored models.MenuItem
	require.NoError(t, db.First(&stored, "id = ?", sauce.ID).Error)
	require.NotNil(t, stored.RecommendedSellingPrice)
	assert.InDelta(t, 5.99, *stored.RecommendedSellingPrice, 1e-9)

	var dish models.Dish
	require.NoError(t, db.First(&dish, "id = ?", k.dishID).Error)
	require.NotNil(t, dish.IsVegan)
	assert.False(t, *dish.IsVegan)
}

func TestEngineMenuNotFound(t *testing.T) {
	t.Parallel()

	e := New(store.New(testhelpers.NewSQLiteDB(t), nil), Options{})
	_, err := e.Menu(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngineMenuWithoutDietaryColumns(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewSQLiteDB(t)
	k := seed(t, db)
	for _, column := range schema.DietaryColumns {
		require.NoError(t, db.Migrator().DropColumn(&models.Recipe{}, column))
		require.NoError(t, db.Migrator().DropColumn(&models.Dish{}, column))
	}

	s := store.New(db, nil)
	rules := dietary.NewRuleEngine(s, nil)
	e := New(s, Options{Dietary: rules})
	ctx := context.Background()

	for range 2 {
		items, err := e.Menu(ctx, k.menuID)
		require.NoError(t, err)
		e.Tasks().Wait()

		require.Len(t, items, 2)
		assert.Equal(t, []string{"milk"}, items[0].Allergens)
		require.NotNil(t, items[0].IsVegan)
		assert.False(t, *items[0].IsVegan)
	}
	assert.True(t, rules.CachingDisabled())
}
