package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

type fakeCache struct {
	store map[string]interface{}
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]interface{})}
}

func (f *fakeCache) Get(ctx context.Context, key string) (interface{}, bool) {
	value, ok := f.store[key]
	return value, ok
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	f.sets++
	f.store[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.store, key)
	return nil
}

func (f *fakeCache) Clear(ctx context.Context) error {
	f.store = make(map[string]interface{})
	return nil
}

func TestExplain_CachesResult(t *testing.T) {
	explorer := &fakeExplorer{explanation: "A graph is a set of vertices and edges."}
	cache := newFakeCache()
	svc := NewExplanationService(explorer, cache, 60, time.Second, zap.NewNop())

	first, err := svc.Explain(context.Background(), "Graph Theory")
	require.NoError(t, err)
	second, err := svc.Explain(context.Background(), "Graph Theory")
	require.NoError(t, err)

	assert.Equal(t, "A graph is a set of vertices and edges.", first)
	assert.Equal(t, first, second)
	// Only the first call reached the explorer
	assert.Equal(t, []string{"explain:Graph Theory"}, explorer.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestExplain_WorksWithoutCache(t *testing.T) {
	explorer := &fakeExplorer{explanation: "A vertex is a node of a graph."}
	svc := NewExplanationService(explorer, nil, 60, time.Second, zap.NewNop())

	explanation, err := svc.Explain(context.Background(), "Vertices")

	require.NoError(t, err)
	assert.Equal(t, "A vertex is a node of a graph.", explanation)
}

func TestExplain_EmptyTopicFails(t *testing.T) {
	svc := NewExplanationService(&fakeExplorer{}, nil, 60, time.Second, zap.NewNop())

	_, err := svc.Explain(context.Background(), "   ")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestExplain_ExplorerFailure(t *testing.T) {
	explorer := &fakeExplorer{explanationErr: errors.New("model unavailable")}
	cache := newFakeCache()
	svc := NewExplanationService(explorer, cache, 60, time.Second, zap.NewNop())

	_, err := svc.Explain(context.Background(), "Graph Theory")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsExpansionFailed(err))
	// Failures are never cached
	assert.Equal(t, 0, cache.sets)
}
