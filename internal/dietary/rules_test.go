package dietary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepcost/internal/testhelpers"
	"prepcost/models"
)

func recipeOf(k *testhelpers.Kitchen, ingredients ...models.Ingredient) uuid.UUID {
	recipeID := k.AddRecipe(models.Recipe{Name: "test recipe"})
	for _, ing := range ingredients {
		k.AddRecipeRow(recipeID, k.AddIngredient(ing), 10)
	}
	return recipeID
}

func TestRuleEngineVerdicts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		ingredients []models.Ingredient
		vegetarian  bool
		vegan       bool
		confidence  string
		method      string
	}{
		{
			name:        "plant categories",
			ingredients: []models.Ingredient{{Name: "flour", Category: "grains"}, {Name: "tomato", Category: "produce"}},
			vegetarian:  true, vegan: true, confidence: ConfidenceHigh, method: MethodCategory,
		},
		{
			name:        "dairy category",
			ingredients: []models.Ingredient{{Name: "flour", Category: "grains"}, {Name: "mozzarella", Category: "dairy"}},
			vegetarian:  true, vegan: false, confidence: ConfidenceHigh, method: MethodCategory,
		},
		{
			name:        "meat category",
			ingredients: []models.Ingredient{{Name: "mince", Category: "meat"}, {Name: "onion", Category: "vegetables"}},
			vegetarian:  false, vegan: false, confidence: ConfidenceHigh, method: MethodCategory,
		},
		{
			name:        "keyword fallback",
			ingredients: []models.Ingredient{{Name: "Chicken thigh"}, {Name: "olive oil", Category: "oils"}},
			vegetarian:  false, vegan: false, confidence: ConfidenceMedium, method: MethodKeyword,
		},
		{
			name:        "plant phrase beats keyword",
			ingredients: []models.Ingredient{{Name: "Peanut butter"}, {Name: "eggplant"}},
			vegetarian:  true, vegan: true, confidence: ConfidenceMedium, method: MethodKeyword,
		},
		{
			name:        "unclassifiable",
			ingredients: []models.Ingredient{{Name: "house blend #4"}},
			vegetarian:  true, vegan: true, confidence: ConfidenceLow, method: MethodKeyword,
		},
		{
			name:        "allergen implies animal product",
			ingredients: []models.Ingredient{{Name: "house dressing", Category: "condiments", Allergens: []string{"egg"}}},
			vegetarian:  true, vegan: false, confidence: ConfidenceHigh, method: MethodCategory,
		},
		{
			name:        "allergen implies flesh",
			ingredients: []models.Ingredient{{Name: "worcestershire", Category: "condiments", Allergens: []string{"fish"}}},
			vegetarian:  false, vegan: false, confidence: ConfidenceHigh, method: MethodCategory,
		},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			k := testhelpers.NewKitchen()
			recipeID := recipeOf(k, tt.ingredients...)
			e := NewRuleEngine(k, nil)

			status, err := e.AggregateDietaryStatus(context.Background(), models.EntityRecipe, recipeID, true)
			require.NoError(t, err)
			require.NotNil(t, status)
			assert.Equal(t, tt.vegetarian, *status.IsVegetarian)
			assert.Equal(t, tt.vegan, *status.IsVegan)
			assert.Equal(t, tt.confidence, status.Confidence)
			assert.Equal(t, tt.method, status.Method)
		})
	}
}

func TestRuleEngineWithoutIngredientsIsUnknown(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	recipeID := k.AddRecipe(models.Recipe{Name: "empty"})

	status, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityRecipe, recipeID, true)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestRuleEngineCachesVerdict(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	recipeID := recipeOf(k, models.Ingredient{Name: "butter", Category: "dairy", Allergens: []string{"dairy"}})
	e := NewRuleEngine(k, nil)
	checked := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return checked }

	_, err := e.AggregateDietaryStatus(context.Background(), models.EntityRecipe, recipeID, true)
	require.NoError(t, err)

	cache, ok := k.DietaryWrite(models.EntityRecipe, recipeID)
	require.True(t, ok)
	assert.Equal(t, []string{"milk"}, []string(cache.Allergens))
	assert.True(t, *cache.IsVegetarian)
	assert.False(t, *cache.IsVegan)
	assert.Equal(t, ConfidenceHigh, *cache.DietaryConfidence)
	assert.Equal(t, checked, *cache.DietaryCheckedAt)
}

func TestRuleEngineCacheWriteFailureIsNotReturned(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	recipeID := recipeOf(k, models.Ingredient{Name: "rice", Category: "grains"})
	k.Fail("UpdateDietaryCache", recipeID, errors.New("column \"is_vegan\" does not exist"))

	status, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityRecipe, recipeID, true)
	require.NoError(t, err)
	assert.True(t, *status.IsVegan)
}

func TestRuleEngineReturnsCompleteCacheUnlessForced(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	recipeID := k.AddRecipe(models.Recipe{
		Name: "cached",
		DietaryCache: models.DietaryCache{
			IsVegetarian:      testhelpers.Bool(true),
			IsVegan:           testhelpers.Bool(true),
			DietaryConfidence: testhelpers.String(ConfidenceHigh),
			DietaryMethod:     testhelpers.String("manual"),
		},
	})
	k.AddRecipeRow(recipeID, k.AddIngredient(models.Ingredient{Name: "cream", Category: "dairy"}), 50)
	e := NewRuleEngine(k, nil)
	ctx := context.Background()

	cached, err := e.AggregateDietaryStatus(ctx, models.EntityRecipe, recipeID, false)
	require.NoError(t, err)
	assert.True(t, *cached.IsVegan)
	assert.Equal(t, "manual", cached.Method)

	forced, err := e.AggregateDietaryStatus(ctx, models.EntityRecipe, recipeID, true)
	require.NoError(t, err)
	assert.False(t, *forced.IsVegan)
}

func TestRuleEngineAggregatesDish(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	sauceID := recipeOf(k, models.Ingredient{Name: "tomato", Category: "produce"})
	dishID := k.AddDish(models.Dish{Name: "pizza"})
	k.AddDishRecipe(dishID, sauceID, nil)
	k.AddDishIngredient(dishID, k.AddIngredient(models.Ingredient{Name: "anchovies", Category: "seafood"}), 10)

	status, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityDish, dishID, true)
	require.NoError(t, err)
	assert.False(t, *status.IsVegetarian)

	_, ok := k.DietaryWrite(models.EntityDish, dishID)
	assert.True(t, ok)
}

func TestRuleEngineStoreFailure(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	recipeID := recipeOf(k, models.Ingredient{Name: "rice"})
	storeErr := errors.New("store down")
	k.Fail("RecipeIngredients", recipeID, storeErr)

	_, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityRecipe, recipeID, true)
	assert.ErrorIs(t, err, storeErr)
}

func TestRuleEngineBatchesDishRecipeRows(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	sauceID := recipeOf(k, models.Ingredient{Name: "tomato", Category: "produce"})
	doughID := recipeOf(k, models.Ingredient{Name: "flour", Category: "grain"})
	dishID := k.AddDish(models.Dish{Name: "marinara"})
	k.AddDishRecipe(dishID, sauceID, nil)
	k.AddDishRecipe(dishID, doughID, nil)

	status, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityDish, dishID, true)
	require.NoError(t, err)
	assert.True(t, *status.IsVegan)
	assert.Equal(t, 1, k.Calls("RecipeIngredientsFor"))
	assert.Zero(t, k.Calls("RecipeIngredients"))
}

func TestRuleEngineDishRecipeRowFailure(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	sauceID := recipeOf(k, models.Ingredient{Name: "tomato", Category: "produce"})
	dishID := k.AddDish(models.Dish{Name: "marinara"})
	k.AddDishRecipe(dishID, sauceID, nil)
	storeErr := errors.New("statement timeout")
	k.Fail("RecipeIngredientsFor", sauceID, storeErr)

	_, err := NewRuleEngine(k, nil).AggregateDietaryStatus(context.Background(), models.EntityDish, dishID, true)
	assert.ErrorIs(t, err, storeErr)
}

func TestRuleEngineStopsCachingOnMissingColumns(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	firstID := recipeOf(k, models.Ingredient{Name: "cream", Category: "dairy"})
	secondID := recipeOf(k, models.Ingredient{Name: "rice", Category: "grain"})
	k.Fail("UpdateDietaryCache", firstID, errors.New("no such column: allergens"))
	e := NewRuleEngine(k, nil)
	ctx := context.Background()

	first, err := e.AggregateDietaryStatus(ctx, models.EntityRecipe, firstID, true)
	require.NoError(t, err)
	assert.False(t, *first.IsVegan)
	assert.True(t, e.CachingDisabled())

	second, err := e.AggregateDietaryStatus(ctx, models.EntityRecipe, secondID, true)
	require.NoError(t, err)
	assert.True(t, *second.IsVegan)
	_, written := k.DietaryWrite(models.EntityRecipe, secondID)
	assert.False(t, written, "no cache writes after drift")
}

func TestRuleEngineKeepsCachingAfterOtherWriteErrors(t *testing.T) {
	t.Parallel()

	k := testhelpers.NewKitchen()
	firstID := recipeOf(k, models.Ingredient{Name: "cream", Category: "dairy"})
	secondID := recipeOf(k, models.Ingredient{Name: "rice", Category: "grain"})
	k.Fail("UpdateDietaryCache", firstID, errors.New("deadlock detected"))
	e := NewRuleEngine(k, nil)
	ctx := context.Background()

	_, err := e.AggregateDietaryStatus(ctx, models.EntityRecipe, firstID, true)
	require.NoError(t, err)
	assert.False(t, e.CachingDisabled())

	_, err = e.AggregateDietaryStatus(ctx, models.EntityRecipe, secondID, true)
	require.NoError(t, err)
	_, written := k.DietaryWrite(models.EntityRecipe, secondID)
	assert.True(t, written)
}
