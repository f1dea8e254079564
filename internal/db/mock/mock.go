package mock

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prepcost/internal/db"
	applog "prepcost/internal/log"
	"prepcost/models"
)

// New returns an in-memory sqlite database seeded with a small representative kitchen.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:prepcost-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.Menu{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		if err := seed(ctx, database); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func ptr[T any](v T) *T {
	return &v
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	tx := database.WithContext(ctx)

	flour := models.Ingredient{Name: "Tipo 00 Flour", Unit: "g", Category: "grain", CostPerUnit: ptr(0.0024), Allergens: []string{"gluten", "wheat"}}
	tomatoes := models.Ingredient{Name: "Roma Tomatoes", Unit: "g", Category: "produce", CostPerUnit: ptr(0.01), TrimPeelWastePercentage: ptr(20.0), YieldPercentage: ptr(90.0)}
	basil := models.Ingredient{Name: "Basil", Unit: "g", Category: "herb", CostPerUnit: ptr(0.09), CostPerUnitInclTrim: ptr(0.12), TrimPeelWastePercentage: ptr(25.0)}
	mozzarella := models.Ingredient{Name: "Fior di Latte", Unit: "g", Category: "dairy", CostPerUnit: ptr(0.021), Allergens: []string{"dairy"}}
	oliveOil := models.Ingredient{Name: "Extra Virgin Olive Oil", Unit: "ml", Category: "oil", CostPerUnit: ptr(0.015)}
	beef := models.Ingredient{Name: "Beef Mince", Unit: "g", Category: "meat", CostPerUnit: ptr(0.018), YieldPercentage: ptr(80.0)}
	onion := models.Ingredient{Name: "Brown Onion", Unit: "g", Category: "produce", CostPerUnit: ptr(0.003), TrimPeelWastePercentage: ptr(10.0)}
	saffron := models.Ingredient{Name: "Saffron", Unit: "g", Category: "spice"}

	ingredients := []*models.Ingredient{&flour, &tomatoes, &basil, &mozzarella, &oliveOil, &beef, &onion, &saffron}
	for _, ingredient := range ingredients {
		if err := tx.Create(ingredient).Error; err != nil {
			return err
		}
	}

	dough := models.Recipe{Name: "Pizza Dough", Yield: ptr(4.0), YieldUnit: "bases"}
	sauce := models.Recipe{Name: "Napoli Sauce", Yield: ptr(4.0), YieldUnit: "portions"}
	ragu := models.Recipe{Name: "Beef Ragu", Yield: ptr(6.0), YieldUnit: "portions"}
	risotto := models.Recipe{Name: "Saffron Risotto Base"}

	recipes := []*models.Recipe{&dough, &sauce, &ragu, &risotto}
	for _, recipe := range recipes {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
	}

	recipeIngredients := []models.RecipeIngredient{
		{RecipeID: dough.ID, IngredientID: flour.ID, Quantity: 1000, Unit: "g"},
		{RecipeID: dough.ID, IngredientID: oliveOil.ID, Quantity: 40, Unit: "ml"},
		{RecipeID: sauce.ID, IngredientID: tomatoes.ID, Quantity: 400, Unit: "g"},
		{RecipeID: sauce.ID, IngredientID: basil.ID, Quantity: 10, Unit: "g"},
		{RecipeID: ragu.ID, IngredientID: beef.ID, Quantity: 1200, Unit: "g"},
		{RecipeID: ragu.ID, IngredientID: onion.ID, Quantity: 300, Unit: "g"},
		{RecipeID: ragu.ID, IngredientID: tomatoes.ID, Quantity: 800, Unit: "g"},
		{RecipeID: risotto.ID, IngredientID: saffron.ID, Quantity: 1, Unit: "g"},
	}
	for i := range recipeIngredients {
		if err := tx.Create(&recipeIngredients[i]).Error; err != nil {
			return err
		}
	}

	margherita := models.Dish{Name: "Margherita", Description: "Napoli sauce, fior di latte, basil."}
	if err := tx.Create(&margherita).Error; err != nil {
		return err
	}
	dishRecipes := []models.DishRecipe{
		{DishID: margherita.ID, RecipeID: dough.ID, Quantity: ptr(1.0)},
		{DishID: margherita.ID, RecipeID: sauce.ID, Quantity: ptr(1.0)},
	}
	for i := range dishRecipes {
		if err := tx.Create(&dishRecipes[i]).Error; err != nil {
			return err
		}
	}
	dishIngredients := []models.DishIngredient{
		{DishID: margherita.ID, IngredientID: mozzarella.ID, Quantity: 120, Unit: "g"},
		{DishID: margherita.ID, IngredientID: basil.ID, Quantity: 2, Unit: "g"},
	}
	for i := range dishIngredients {
		if err := tx.Create(&dishIngredients[i]).Error; err != nil {
			return err
		}
	}

	menu := models.Menu{Name: "Trattoria Dinner"}
	if err := tx.Create(&menu).Error; err != nil {
		return err
	}
	items := []models.MenuItem{
		{MenuID: menu.ID, Category: "Pizza", Position: 1, DishID: &margherita.ID},
		{MenuID: menu.ID, Category: "Pasta", Position: 2, RecipeID: &ragu.ID, ActualSellingPrice: ptr(26.0)},
		{MenuID: menu.ID, Category: "Specials", Position: 3, RecipeID: &risotto.ID},
	}
	for i := range items {
		if err := tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
