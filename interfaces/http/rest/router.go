package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands/bus"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	"github.com/Anidipta/Node-Learner/interfaces/http/rest/handlers"
	"github.com/Anidipta/Node-Learner/interfaces/http/rest/middleware"
	v1 "github.com/Anidipta/Node-Learner/interfaces/http/rest/v1"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
	"github.com/Anidipta/Node-Learner/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	metrics      *observability.Collector
	authenticate middleware.AuthFunc
	tokenRefresh *middleware.TokenRefreshMiddleware
	logger       *zap.Logger
}

// NewRouter creates a new router instance. The metrics collector and the
// token refresh handler are optional; without them the /metrics and
// refresh endpoints are not mounted.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	metrics *observability.Collector,
	authenticate middleware.AuthFunc,
	tokenRefresh *middleware.TokenRefreshMiddleware,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		metrics:      metrics,
		authenticate: authenticate,
		tokenRefresh: tokenRefresh,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware. Panics answer as JSON internal errors rather
	// than chi's plain-text 500.
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(pkgerrors.NewErrorHandler(rt.logger).Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(versionMiddleware)
	if rt.metrics != nil {
		router.Use(rt.metrics.HTTPMiddleware)
	}

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8501", "https://*.nodelearner.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and observability
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	explorationHandler := handlers.NewExplorationHandler(rt.commandBus, rt.queryBus, rt.logger)
	treeHandler := handlers.NewTreeHandler(rt.queryBus, rt.logger)
	insightsHandler := handlers.NewInsightsHandler(rt.queryBus, rt.logger)

	// API v1 routes (legacy, deprecated)
	router.Mount("/api/v1", v1.NewRouter(explorationHandler, treeHandler, insightsHandler, rt.authenticate))

	// Token refresh validates its own token, so it sits outside the
	// authenticated group.
	if rt.tokenRefresh != nil {
		router.Post("/api/v2/auth/refresh", rt.tokenRefresh.RefreshToken)
	}

	// API v2 routes (current)
	router.Route("/api/v2", func(r chi.Router) {
		r.Use(rt.authenticate)

		// Exploration session endpoints
		r.Route("/explorations", func(r chi.Router) {
			r.Post("/", explorationHandler.StartExploration)
			r.Post("/resume", explorationHandler.ResumeExploration)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/graph", explorationHandler.GetGraph)
				r.Post("/expand", explorationHandler.ExpandConcept)
				r.Post("/auto-expand/step", explorationHandler.AutoExpandStep)
				r.Post("/focus", explorationHandler.FocusConcept)
				r.Delete("/nodes/{nodeID}", explorationHandler.RemoveConcept)
				r.Post("/links", explorationHandler.LinkConcepts)
				r.Post("/save", explorationHandler.SaveTree)
				r.Post("/end", explorationHandler.EndSession)
			})
		})

		// Saved tree endpoints
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", treeHandler.ListTrees)
			r.Get("/search", treeHandler.SearchTopics)
			r.Get("/{treeID}", treeHandler.GetTree)
		})

		// Insights endpoints
		r.Get("/history", insightsHandler.GetHistory)
		r.Get("/dashboard/stats", insightsHandler.GetDashboardStats)
		r.Get("/explanations", insightsHandler.GetExplanation)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	// Sessions live in memory and repositories are lazy, so there is
	// nothing to warm before accepting traffic.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware advertises the current API version. The v1 subrouter
// overwrites these headers with its own deprecation notice.
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v2")
		w.Header().Set("X-API-Latest", "v2")
		w.Header().Set("X-API-Deprecated", "false")
		next.ServeHTTP(w, r)
	})
}
