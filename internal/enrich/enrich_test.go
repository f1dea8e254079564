package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prepcost/internal/allergen"
	"prepcost/internal/costing"
	"prepcost/internal/dietary"
	"prepcost/internal/pricing"
	"prepcost/internal/tasks"
	"prepcost/internal/testhelpers"
	"prepcost/models"
)

type dietaryMock struct {
	mock.Mock
}

func (m *dietaryMock) AggregateDietaryStatus(ctx context.Context, kind string, id uuid.UUID, force bool) (*dietary.Status, error) {
	args := m.Called(ctx, kind, id, force)
	if fn, ok := args.Get(0).(func()); ok {
		fn()
	}
	status, _ := args.Get(0).(*dietary.Status)
	return status, args.Error(1)
}

type kitchenFixture struct {
	kitchen  *testhelpers.Kitchen
	recipeID uuid.UUID
	dishIDs  []uuid.UUID
}

func newFixture(dishes int) kitchenFixture {
	k := testhelpers.NewKitchen()
	milk := k.AddIngredient(models.Ingredient{Name: "milk", Unit: "ml", CostPerUnit: testhelpers.Float(0.002), Allergens: []string{"dairy"}})
	oats := k.AddIngredient(models.Ingredient{Name: "oats", Unit: "g", CostPerUnit: testhelpers.Float(0.01), Allergens: []string{"oats"}})

	recipeID := k.AddRecipe(models.Recipe{Name: "porridge", Yield: testhelpers.Float(2)})
	k.AddRecipeRow(recipeID, oats, 200)
	k.AddRecipeRow(recipeID, milk, 500)

	f := kitchenFixture{kitchen: k, recipeID: recipeID}
	for i := 0; i < dishes; i++ {
		dishID := k.AddDish(models.Dish{Name: "bowl"})
		k.AddDishRecipe(dishID, recipeID, nil)
		f.dishIDs = append(f.dishIDs, dishID)
	}
	return f
}

func newPipeline(f kitchenFixture, diet dietary.Aggregator, concurrency int) (*Pipeline, *tasks.Runner) {
	calc := costing.NewCalculator(f.kitchen, nil, nil, costing.Options{})
	runner := tasks.NewRunner(8, nil)
	return New(Deps{
		Pricer:      pricing.NewRecommender(calc),
		Allergens:   allergen.NewAggregator(f.kitchen, nil, nil),
		Dietary:     diet,
		Cache:       f.kitchen,
		Tasks:       runner,
		Concurrency: concurrency,
	}), runner
}

func dishItem(menuID, dishID uuid.UUID, position int) models.MenuItem {
	item := models.MenuItem{MenuID: menuID, DishID: &dishID, Position: position}
	item.ID = uuid.New()
	return item
}

func TestEnrichDegradesOnlyFailingItems(t *testing.T) {
	t.Parallel()

	f := newFixture(4)
	menuID := uuid.New()
	ok := &dietary.Status{IsVegetarian: testhelpers.Bool(true), IsVegan: testhelpers.Bool(false), Confidence: "high", Method: dietary.MethodCategory}

	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityDish, f.dishIDs[0], true).Return(ok, nil)
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityDish, f.dishIDs[1], true).Return(nil, errors.New("classifier offline"))
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityDish, f.dishIDs[2], true).Return(func() { panic("nil map") }, nil)
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityDish, f.dishIDs[3], true).Return(ok, nil)

	p, runner := newPipeline(f, diet, 2)
	var items []models.MenuItem
	for i, dishID := range f.dishIDs {
		items = append(items, dishItem(menuID, dishID, i))
	}

	got := p.Enrich(context.Background(), items, menuID, true, true)
	runner.Wait()

	require.Len(t, got, len(items))
	for i, item := range got {
		assert.Equal(t, items[i].ID, item.ID, "order preserved")
	}

	for _, i := range []int{0, 3} {
		assert.Equal(t, []string{"milk", "gluten"}, got[i].Allergens)
		assert.True(t, *got[i].IsVegetarian)
		assert.False(t, *got[i].IsVegan)
		assert.Equal(t, "high", *got[i].DietaryConfidence)
	}
	for _, i := range []int{1, 2} {
		assert.NotNil(t, got[i].Allergens)
		assert.Empty(t, got[i].Allergens)
		assert.Nil(t, got[i].IsVegetarian)
		assert.Nil(t, got[i].IsVegan)
		assert.NotNil(t, got[i].RecommendedSellingPrice, "price survives dietary failure")
	}
	diet.AssertExpectations(t)
}

func TestEnrichUsesCachedPriceAndSchedulesWrites(t *testing.T) {
	t.Parallel()

	f := newFixture(2)
	menuID := uuid.New()
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, mock.Anything, mock.Anything, true).Return(nil, nil)
	p, runner := newPipeline(f, diet, 0)

	cached := dishItem(menuID, f.dishIDs[0], 0)
	cached.RecommendedSellingPrice = testhelpers.Float(19.99)
	fresh := dishItem(menuID, f.dishIDs[1], 1)

	got := p.Enrich(context.Background(), []models.MenuItem{cached, fresh}, menuID, true, true)
	runner.Wait()

	require.Len(t, got, 2)
	assert.Equal(t, 19.99, *got[0].RecommendedSellingPrice)
	_, wrote := f.kitchen.PriceWrite(cached.ID)
	assert.False(t, wrote)

	require.NotNil(t, got[1].RecommendedSellingPrice)
	written, wrote := f.kitchen.PriceWrite(fresh.ID)
	require.True(t, wrote)
	assert.Equal(t, *got[1].RecommendedSellingPrice, written)
	assert.Equal(t, int64(1), runner.Attempted())
}

func TestEnrichWithoutPricingColumns(t *testing.T) {
	t.Parallel()

	f := newFixture(1)
	menuID := uuid.New()
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, mock.Anything, mock.Anything, true).Return(nil, nil)
	p, runner := newPipeline(f, diet, 0)

	item := dishItem(menuID, f.dishIDs[0], 0)
	item.RecommendedSellingPrice = testhelpers.Float(9.99)

	got := p.Enrich(context.Background(), []models.MenuItem{item}, menuID, false, false)
	runner.Wait()

	require.Len(t, got, 1)
	assert.Nil(t, got[0].RecommendedSellingPrice)
	assert.Zero(t, runner.Attempted())
	assert.Nil(t, got[0].IsVegan, "unknown verdict stays unknown")
}

func TestEnrichCacheWriteFailureIsNotSurfaced(t *testing.T) {
	t.Parallel()

	f := newFixture(1)
	menuID := uuid.New()
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, mock.Anything, mock.Anything, true).Return(nil, nil)
	p, runner := newPipeline(f, diet, 0)

	item := dishItem(menuID, f.dishIDs[0], 0)
	f.kitchen.Fail("SetMenuItemRecommendedPrice", item.ID, errors.New("read-only replica"))

	got := p.Enrich(context.Background(), []models.MenuItem{item}, menuID, true, false)
	runner.Wait()

	require.NotNil(t, got[0].RecommendedSellingPrice)
	assert.Equal(t, int64(1), runner.Attempted())
	assert.Equal(t, int64(1), runner.Failed())
}

func TestEnrichOverridesContradictedVeganVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture(1)
	menuID := uuid.New()
	vegan := &dietary.Status{IsVegetarian: testhelpers.Bool(true), IsVegan: testhelpers.Bool(true), Confidence: "low", Method: dietary.MethodKeyword}
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityRecipe, f.recipeID, true).Return(vegan, nil)
	p, runner := newPipeline(f, diet, 0)

	item := models.MenuItem{MenuID: menuID, RecipeID: &f.recipeID}
	item.ID = uuid.New()

	got := p.Enrich(context.Background(), []models.MenuItem{item}, menuID, false, true)
	runner.Wait()

	require.NotNil(t, got[0].IsVegan)
	assert.False(t, *got[0].IsVegan)
	assert.Contains(t, got[0].Allergens, "milk")
}

func TestEnrichConsultsCachedAllergensOnlyWithDietaryColumns(t *testing.T) {
	t.Parallel()

	f := newFixture(1)
	menuID := uuid.New()
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, mock.Anything, mock.Anything, true).Return(nil, nil)
	p, runner := newPipeline(f, diet, 0)

	item := dishItem(menuID, f.dishIDs[0], 0)
	item.Dish = &models.Dish{Name: "bowl", DietaryCache: models.DietaryCache{Allergens: []string{"sesame"}}}

	withCache := p.Enrich(context.Background(), []models.MenuItem{item}, menuID, false, true)
	withoutCache := p.Enrich(context.Background(), []models.MenuItem{item}, menuID, false, false)
	runner.Wait()

	assert.Equal(t, []string{"sesame"}, withCache[0].Allergens)
	assert.Equal(t, []string{"milk", "gluten"}, withoutCache[0].Allergens)
}

func TestEnrichInvalidItem(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	diet := new(dietaryMock)
	p, runner := newPipeline(f, diet, 0)

	item := models.MenuItem{Category: "specials"}
	item.ID = uuid.New()

	got := p.Enrich(context.Background(), []models.MenuItem{item}, uuid.New(), true, true)
	runner.Wait()

	require.Len(t, got, 1)
	assert.Nil(t, got[0].RecommendedSellingPrice)
	assert.Empty(t, got[0].Allergens)
	diet.AssertNotCalled(t, "AggregateDietaryStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

type panickingPricer struct{}

func (panickingPricer) RecommendedPrice(context.Context, string, uuid.UUID) (float64, error) {
	panic("division by zero")
}

func TestEnrichRecoversPricingPanic(t *testing.T) {
	t.Parallel()

	f := newFixture(2)
	menuID := uuid.New()
	ok := &dietary.Status{IsVegetarian: testhelpers.Bool(true), IsVegan: testhelpers.Bool(false), Confidence: "high", Method: dietary.MethodCategory}
	diet := new(dietaryMock)
	diet.On("AggregateDietaryStatus", mock.Anything, models.EntityDish, mock.Anything, true).Return(ok, nil)
	runner := tasks.NewRunner(8, nil)
	p := New(Deps{
		Pricer:    panickingPricer{},
		Allergens: allergen.NewAggregator(f.kitchen, nil, nil),
		Dietary:   diet,
		Cache:     f.kitchen,
		Tasks:     runner,
	})

	cached := dishItem(menuID, f.dishIDs[0], 0)
	cached.RecommendedSellingPrice = testhelpers.Float(12.99)
	fresh := dishItem(menuID, f.dishIDs[1], 1)

	got := p.Enrich(context.Background(), []models.MenuItem{cached, fresh}, menuID, true, true)
	runner.Wait()

	require.Len(t, got, 2)
	assert.Equal(t, 12.99, *got[0].RecommendedSellingPrice)
	assert.True(t, *got[0].IsVegetarian)

	assert.Equal(t, fresh.ID, got[1].ID)
	assert.Nil(t, got[1].RecommendedSellingPrice)
	assert.Empty(t, got[1].Allergens)
	assert.Nil(t, got[1].IsVegan)
	assert.Zero(t, runner.Attempted())
}
