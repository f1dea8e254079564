package dietary

import (
	"strings"

	"prepcost/internal/allergen"
	"prepcost/models"
)

type class int

const (
	classPlant class = iota
	classAnimalProduct
	classAnimalFlesh
)

type basis int

const (
	basisCategory basis = iota
	basisKeyword
	basisUnknown
)

var categoryClasses = map[string]class{
	"meat": classAnimalFlesh, "beef": classAnimalFlesh, "pork": classAnimalFlesh, "lamb": classAnimalFlesh,
	"poultry": classAnimalFlesh, "game": classAnimalFlesh, "seafood": classAnimalFlesh, "fish": classAnimalFlesh,
	"shellfish": classAnimalFlesh, "gelatin": classAnimalFlesh, "gelatine": classAnimalFlesh,

	"dairy": classAnimalProduct, "eggs": classAnimalProduct, "egg": classAnimalProduct, "honey": classAnimalProduct,

	"vegetable": classPlant, "vegetables": classPlant, "produce": classPlant, "fruit": classPlant,
	"herb": classPlant, "herbs": classPlant, "spice": classPlant, "spices": classPlant, "grains": classPlant, "grain": classPlant, "flour": classPlant,
	"legumes": classPlant, "nuts": classPlant, "seeds": classPlant, "oil": classPlant, "oils": classPlant,
	"pantry": classPlant, "dry goods": classPlant, "condiments": classPlant, "beverages": classPlant,
	"plant protein": classPlant, "mushrooms": classPlant,
}

// plantPhrases win over the animal keywords they contain.
var plantPhrases = []string{
	"peanut butter", "nut butter", "cocoa butter", "apple butter", "butternut", "butter bean",
	"coconut milk", "coconut cream", "almond milk", "soy milk", "oat milk", "rice milk", "eggplant",
	"vegan", "plant-based", "cream of tartar", "vegetable stock", "mushroom stock",
}

var fleshKeywords = []string{
	"beef", "pork", "lamb", "veal", "mutton", "chicken", "duck", "turkey", "bacon", "prosciutto",
	"pancetta", "salami", "chorizo", "sausage", "mince", "fish", "salmon", "tuna", "anchov",
	"sardine", "prawn", "shrimp", "crab", "lobster", "squid", "calamari", "octopus", "mussel", "oyster",
	"scallop", "clam", "gelatin", "gelatine", "lard", "stock",
}

var productKeywords = []string{
	"milk", "cheese", "butter", "cream", "yoghurt", "yogurt", "egg", "honey", "mozzarella", "parmesan",
	"ricotta", "mascarpone", "feta", "ghee", "whey", "mayonnaise", "aioli",
}

var plantKeywords = []string{
	"flour", "oil", "salt", "sugar", "pepper", "tomato", "onion", "garlic", "basil", "herb", "rice",
	"pasta", "bean", "lentil", "potato", "carrot", "lettuce", "spinach", "mushroom", "lemon", "lime",
	"apple", "vinegar", "yeast", "water", "tofu", "tempeh", "seitan", "chilli", "chili", "spice",
}

func classify(ing *models.Ingredient, taxonomy *allergen.Taxonomy) (class, basis) {
	c, b := classifyByName(ing)

	// Allergens can only make an ingredient less vegan.
	codes := taxonomy.Consolidate(ing.Allergens)
	for _, code := range codes {
		switch code {
		case "fish", "crustacea", "molluscs":
			c = max(c, classAnimalFlesh)
		case "milk", "eggs":
			c = max(c, classAnimalProduct)
		}
	}
	return c, b
}

func classifyByName(ing *models.Ingredient) (class, basis) {
	category := strings.ToLower(strings.TrimSpace(ing.Category))
	if c, ok := categoryClasses[category]; ok {
		return c, basisCategory
	}

	name := strings.ToLower(ing.Name)
	for _, phrase := range plantPhrases {
		if strings.Contains(name, phrase) {
			return classPlant, basisKeyword
		}
	}
	if containsAny(name, fleshKeywords) {
		return classAnimalFlesh, basisKeyword
	}
	if containsAny(name, productKeywords) {
		return classAnimalProduct, basisKeyword
	}
	if containsAny(name, plantKeywords) {
		return classPlant, basisKeyword
	}
	return classPlant, basisUnknown
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
