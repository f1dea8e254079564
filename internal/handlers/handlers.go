package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"prepcost/internal/enrich"
	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
	"prepcost/internal/pricing"
	"prepcost/internal/store"
)

// Engine is the engine surface the HTTP handlers call.
type Engine interface {
	ComputeRecipeCost(ctx context.Context, recipeID uuid.UUID, multiplier float64) (float64, error)
	ComputeDishCost(ctx context.Context, dishID uuid.UUID) (float64, error)
	Menu(ctx context.Context, menuID uuid.UUID) ([]enrich.Item, error)
}

var (
	costEngine Engine
	registry   *metrics.Registry
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(e Engine, reg *metrics.Registry) {
	costEngine = e
	registry = reg
}

// Metrics serves the prometheus registry.
func Metrics(w http.ResponseWriter, r *http.Request) {
	if registry == nil {
		http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		return
	}
	registry.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps engine errors onto status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		applog.Debug(r.Context(), "requested record not found", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, pricing.ErrUnknownEntityType):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		applog.Error(r.Context(), message, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, message)
	}
}
