package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the service. It carries its
// own registry so repeated construction in tests never trips duplicate
// registration on the default one.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Exploration metrics
	ExpansionsTotal   *prometheus.CounterVec
	ExpansionDuration prometheus.Histogram
	ConceptsAdded     prometheus.Counter
	ConceptsRemoved   prometheus.Counter
	EdgesCreated      prometheus.Counter

	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	ActiveSessions  prometheus.Gauge
	TreesSaved      prometheus.Counter

	// Query bus metrics
	QueryOps      *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace.
// The collector is a process-wide singleton; the first namespace wins.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	expansionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Total number of concept expansions",
		},
		[]string{"mode", "status"},
	)

	expansionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_duration_seconds",
			Help:      "Concept expansion duration in seconds, explorer call included",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	conceptsAdded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concepts_added_total",
			Help:      "Total number of concepts added to graphs",
		},
	)

	conceptsRemoved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concepts_removed_total",
			Help:      "Total number of concepts removed from graphs",
		},
	)

	edgesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created",
		},
	)

	sessionsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of exploration sessions started",
		},
	)

	sessionsEnded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of exploration sessions ended",
		},
	)

	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live exploration sessions in the registry",
		},
	)

	treesSaved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trees_saved_total",
			Help:      "Total number of tree save operations",
		},
	)

	queryOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_operations_total",
			Help:      "Query bus operations by metric and query type",
		},
		[]string{"metric", "query"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query handler duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		expansionsTotal,
		expansionDuration,
		conceptsAdded,
		conceptsRemoved,
		edgesCreated,
		sessionsStarted,
		sessionsEnded,
		activeSessions,
		treesSaved,
		queryOps,
		queryDuration,
		cacheHits,
		cacheMisses,
	)

	globalCollector = &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		ExpansionsTotal:   expansionsTotal,
		ExpansionDuration: expansionDuration,
		ConceptsAdded:     conceptsAdded,
		ConceptsRemoved:   conceptsRemoved,
		EdgesCreated:      edgesCreated,
		SessionsStarted:   sessionsStarted,
		SessionsEnded:     sessionsEnded,
		ActiveSessions:    activeSessions,
		TreesSaved:        treesSaved,
		QueryOps:          queryOps,
		QueryDuration:     queryDuration,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler returns the scrape endpoint handler for this collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and latencies per chi route
// pattern. Mount it after chi's routing context so the pattern resolves
// to the template, not the raw path.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveQueryDuration records one query handler execution.
func (c *Collector) ObserveQueryDuration(query string, d time.Duration) {
	c.QueryDuration.WithLabelValues(query).Observe(d.Seconds())
}

// IncrementQueryOp counts one query bus operation.
func (c *Collector) IncrementQueryOp(metric, query string) {
	c.QueryOps.WithLabelValues(metric, query).Inc()
}
