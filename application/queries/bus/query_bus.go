// Package bus dispatches read operations to their registered handlers.
// Queries are flat value types so the caching middleware can render
// them into stable keys.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrHandlerNotFound means no handler was registered for the
	// query's type.
	ErrHandlerNotFound = errors.New("query handler not found")

	// ErrValidationFailed wraps the query's own Validate error.
	ErrValidationFailed = errors.New("query validation failed")
)

// Query is a read-only request against live or stored state.
type Query interface {
	Validate() error
}

// QueryHandler answers one query type.
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to the QueryHandler interface.
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus routes queries to handlers keyed by concrete type.
type QueryBus struct {
	handlers map[reflect.Type]QueryHandler
	mu       sync.RWMutex
}

// NewQueryBus creates an empty bus.
func NewQueryBus() *QueryBus {
	return &QueryBus{
		handlers: make(map[reflect.Type]QueryHandler),
	}
}

// Register binds a handler to queryType's concrete type. A second
// handler for the same type is a wiring bug and is rejected.
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.String())
	}

	b.handlers[t] = handler
	return nil
}

// Ask validates the query, dispatches it, and returns the handler's
// result. Callers type-assert the result to the query's result struct.
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w for query type %T", ErrHandlerNotFound, query)
	}

	return handler.Handle(ctx, query)
}

// Cache is the subset of the application cache the middleware needs.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CachingMiddleware serves repeated queries from cache. It is applied
// per handler, not bus-wide, so only reads whose staleness window is
// acceptable pay the cache.
type CachingMiddleware struct {
	cache Cache
	ttl   int // seconds
}

// NewCachingMiddleware creates a caching middleware with one TTL.
func NewCachingMiddleware(cache Cache, ttl int) *CachingMiddleware {
	return &CachingMiddleware{
		cache: cache,
		ttl:   ttl,
	}
}

// Wrap adds caching around next.
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		cacheKey := m.generateCacheKey(query)

		if cached, found := m.cache.Get(ctx, cacheKey); found {
			return cached, nil
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			return nil, err
		}

		// A failed cache write only costs the next caller a recompute.
		_ = m.cache.Set(ctx, cacheKey, result, m.ttl)

		return result, nil
	})
}

// generateCacheKey derives the key from the query's type and fields.
func (m *CachingMiddleware) generateCacheKey(query Query) string {
	return fmt.Sprintf("%T:%+v", query, query)
}

// Metrics is the subset of the collector the middleware needs.
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer measures one observation; Stop records it.
type Timer interface {
	Stop()
}

// MetricsMiddleware counts and times every query by type name.
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a metrics middleware.
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Wrap adds counting and timing around next.
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		queryType := reflect.TypeOf(query).Name()

		timer := m.metrics.StartTimer("query_duration", queryType)
		defer timer.Stop()

		m.metrics.Increment("query_count", queryType)

		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment("query_errors", queryType)
			return nil, err
		}

		m.metrics.Increment("query_success", queryType)
		return result, nil
	})
}
