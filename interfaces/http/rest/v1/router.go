package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/mux"

	"github.com/Anidipta/Node-Learner/interfaces/http/rest/handlers"
	"github.com/Anidipta/Node-Learner/pkg/common"
)

// NewRouter creates the v1 API router. The v1 surface is the flat route
// shape of the first API iteration; it delegates to the same handlers as
// v2 and exists only until the remaining clients migrate. Request logging
// comes from the parent router's chain.
func NewRouter(
	explorationHandler *handlers.ExplorationHandler,
	treeHandler *handlers.TreeHandler,
	insightsHandler *handlers.InsightsHandler,
	authenticate func(http.Handler) http.Handler,
) *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Apply middleware
	v1.Use(deprecationHeaders)
	v1.Use(authenticate)

	// Exploration endpoints
	v1.HandleFunc("/explore", explorationHandler.StartExploration).Methods("POST")
	v1.HandleFunc("/resume", explorationHandler.ResumeExploration).Methods("POST")
	v1.HandleFunc("/graph/{sessionID}", bridge(explorationHandler.GetGraph)).Methods("GET")
	v1.HandleFunc("/expand/{sessionID}", bridge(explorationHandler.ExpandConcept)).Methods("POST")
	v1.HandleFunc("/focus/{sessionID}", bridge(explorationHandler.FocusConcept)).Methods("POST")
	v1.HandleFunc("/save/{sessionID}", bridge(explorationHandler.SaveTree)).Methods("POST")
	v1.HandleFunc("/end/{sessionID}", bridge(explorationHandler.EndSession)).Methods("POST")

	// Tree endpoints
	v1.HandleFunc("/trees", treeHandler.ListTrees).Methods("GET")
	v1.HandleFunc("/trees/{treeID}", bridge(treeHandler.GetTree)).Methods("GET")

	// Insights endpoints
	v1.HandleFunc("/history", insightsHandler.GetHistory).Methods("GET")
	v1.HandleFunc("/dashboard", insightsHandler.GetDashboardStats).Methods("GET")
	v1.HandleFunc("/explanation", insightsHandler.GetExplanation).Methods("GET")

	// Health check
	v1.HandleFunc("/health", healthCheck).Methods("GET")

	return router
}

// bridge copies gorilla path variables into the chi route context the
// shared handlers read their params from.
func bridge(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.NewRouteContext()
		for key, value := range mux.Vars(r) {
			rctx.URLParams.Add(key, value)
		}
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
		h(w, r.WithContext(ctx))
	}
}

// deprecationHeaders marks every v1 response as deprecated. It runs after
// the parent router has advertised v2, overwriting those headers.
func deprecationHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		w.Header().Set("X-API-Deprecated", "true")
		w.Header().Set("X-API-Deprecation-Date", "2026-06-01")
		w.Header().Set("X-API-Sunset-Date", "2026-12-01")
		next.ServeHTTP(w, r)
	})
}

// healthCheck provides a health check endpoint, in the v1 envelope like
// every other v1 response.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "v1",
	})
}
