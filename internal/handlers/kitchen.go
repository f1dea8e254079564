package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"prepcost/internal/allergen"
	"prepcost/internal/enrich"
	applog "prepcost/internal/log"
	"prepcost/internal/pricing"
	"prepcost/models"
)

type costResponse struct {
	Kind       string    `json:"kind"`
	ID         uuid.UUID `json:"id"`
	Cost       float64   `json:"cost"`
	Multiplier float64   `json:"multiplier,omitempty"`
}

type priceResponse struct {
	Kind             string    `json:"kind"`
	ID               uuid.UUID `json:"id"`
	Cost             float64   `json:"cost"`
	RecommendedPrice float64   `json:"recommended_price"`
	IncludesGST      bool      `json:"includes_gst"`
	FoodCostPercent  float64   `json:"food_cost_percent"`
}

type menuResponse struct {
	MenuID uuid.UUID     `json:"menu_id"`
	Items  []enrich.Item `json:"items"`
}

// resourcePath splits "/api/<collection>/<id>/<action>" into id and action.
func resourcePath(r *http.Request, prefix string) (uuid.UUID, string, bool) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	segments := strings.Split(path, "/")
	if len(segments) != 2 {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(segments[0])
	if err != nil {
		applog.Debug(r.Context(), "invalid identifier", "identifier", segments[0], "error", err)
		return uuid.Nil, "", false
	}
	return id, segments[1], true
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if costEngine == nil {
		applog.Debug(r.Context(), "engine request without engine configured")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// RecipeResource serves /api/recipes/{id}/cost and /api/recipes/{id}/price.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, action, ok := resourcePath(r, "/api/recipes")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "cost":
		multiplier := 1.0
		if raw := r.URL.Query().Get("multiplier"); raw != "" {
			m, err := strconv.ParseFloat(raw, 64)
			if err != nil || !(m > 0) {
				writeJSONError(w, http.StatusBadRequest, "multiplier must be a positive number")
				return
			}
			multiplier = m
		}
		cost, err := costEngine.ComputeRecipeCost(r.Context(), id, multiplier)
		if err != nil {
			writeEngineError(w, r, err, "unable to cost recipe")
			return
		}
		writeJSON(w, http.StatusOK, costResponse{Kind: models.EntityRecipe, ID: id, Cost: cost, Multiplier: multiplier})
	case "price":
		cost, err := costEngine.ComputeRecipeCost(r.Context(), id, 1)
		if err != nil {
			writeEngineError(w, r, err, "unable to cost recipe")
			return
		}
		price(w, models.EntityRecipe, id, cost)
	default:
		http.NotFound(w, r)
	}
}

// DishResource serves /api/dishes/{id}/cost and /api/dishes/{id}/price.
func DishResource(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, action, ok := resourcePath(r, "/api/dishes")
	if !ok || (action != "cost" && action != "price") {
		http.NotFound(w, r)
		return
	}

	cost, err := costEngine.ComputeDishCost(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err, "unable to cost dish")
		return
	}

	switch action {
	case "cost":
		writeJSON(w, http.StatusOK, costResponse{Kind: models.EntityDish, ID: id, Cost: cost})
	default:
		price(w, models.EntityDish, id, cost)
	}
}

// price derives the recommendation from a cost already computed for the
// request: dishes are priced GST exclusive, recipe servings GST inclusive.
func price(w http.ResponseWriter, kind string, id uuid.UUID, cost float64) {
	recommended, inclGST := pricing.DishPrice(cost), false
	if kind == models.EntityRecipe {
		recommended, inclGST = pricing.RecipePrice(cost), true
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Kind:             kind,
		ID:               id,
		Cost:             cost,
		RecommendedPrice: recommended,
		IncludesGST:      inclGST,
		FoodCostPercent:  pricing.FoodCostPercent(cost, recommended),
	})
}

// MenuResource serves /api/menus/{id}/items.
func MenuResource(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, action, ok := resourcePath(r, "/api/menus")
	if !ok || action != "items" {
		http.NotFound(w, r)
		return
	}

	items, err := costEngine.Menu(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err, "unable to load menu")
		return
	}
	writeJSON(w, http.StatusOK, menuResponse{MenuID: id, Items: items})
}

type allergenEntry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Allergens serves the closed allergen set in declaration order.
func Allergens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	taxonomy := allergen.Default()
	codes := taxonomy.Codes()
	entries := make([]allergenEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, allergenEntry{Code: code, Label: taxonomy.Label(code)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"allergens": entries})
}
