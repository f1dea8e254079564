package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"prepcost/internal/handlers"
	applog "prepcost/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/metrics", handlers.Metrics)
	applog.Debug(context.Background(), "route registered", "path", "/metrics")
	mux.HandleFunc("/api/allergens", handlers.Allergens)
	applog.Debug(context.Background(), "route registered", "path", "/api/allergens")
	mux.HandleFunc("/api/recipes/", handlers.RecipeResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/recipes/")
	mux.HandleFunc("/api/dishes/", handlers.DishResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/dishes/")
	mux.HandleFunc("/api/menus/", handlers.MenuResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/menus/")
	return mux
}

// recoverRequests turns handler panics into 500s so one bad request cannot
// take the process down.
func recoverRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				applog.Error(r.Context(), "handler panic", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// scopeRequests tags every log line written while serving a request with a
// request id and the path.
func scopeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := applog.With(r.Context(), "request_id", id, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
