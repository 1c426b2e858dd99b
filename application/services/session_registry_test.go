package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

func newTestRegistry(cfg *config.DomainConfig) *SessionRegistry {
	return NewSessionRegistry(cfg, zap.NewNop())
}

func registeredTestSession(t *testing.T, registry *SessionRegistry) *aggregates.Session {
	t.Helper()
	session, err := aggregates.NewSession("user-1", "Graph Theory", nil)
	require.NoError(t, err)
	registry.Put(session)
	return session
}

func TestRegistry_WithRunsAgainstOwnedSession(t *testing.T) {
	registry := newTestRegistry(nil)
	session := registeredTestSession(t, registry)

	var seen string
	err := registry.With(session.ID(), "user-1", func(s *aggregates.Session) error {
		seen = s.Topic()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Graph Theory", seen)
}

func TestRegistry_WithUnknownSession(t *testing.T) {
	registry := newTestRegistry(nil)

	err := registry.With("missing", "user-1", func(s *aggregates.Session) error {
		t.Fatal("callback must not run")
		return nil
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRegistry_WithWrongOwnerReadsAsNotFound(t *testing.T) {
	registry := newTestRegistry(nil)
	session := registeredTestSession(t, registry)

	err := registry.With(session.ID(), "user-2", func(s *aggregates.Session) error {
		t.Fatal("callback must not run")
		return nil
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRegistry_RemoveForgetsSession(t *testing.T) {
	registry := newTestRegistry(nil)
	session := registeredTestSession(t, registry)
	require.Equal(t, 1, registry.Count())

	registry.Remove(session.ID())

	assert.Equal(t, 0, registry.Count())
	err := registry.With(session.ID(), "user-1", func(*aggregates.Session) error { return nil })
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRegistry_EvictIdleDropsExpiredSessions(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.SessionIdleTimeout = time.Hour
	registry := newTestRegistry(cfg)
	session, err := aggregates.NewSession("user-1", "Graph Theory", cfg)
	require.NoError(t, err)
	registry.Put(session)

	// Not yet idle
	evicted := registry.EvictIdle(time.Now())
	assert.Empty(t, evicted)
	assert.Equal(t, 1, registry.Count())

	// Two hours later it is long past its one-hour timeout
	evicted = registry.EvictIdle(time.Now().Add(2 * time.Hour))
	assert.Equal(t, []string{session.ID()}, evicted)
	assert.Equal(t, 0, registry.Count())
}

func TestRegistry_SerializesAccessPerSession(t *testing.T) {
	registry := newTestRegistry(nil)
	session := registeredTestSession(t, registry)

	// Concurrent focus switches on one session must not race; every
	// callback observes the session under the registry's mutex.
	require.NoError(t, session.SeedRoot("root summary"))

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.With(session.ID(), "user-1", func(s *aggregates.Session) error {
				counter++
				return s.Focus(s.Topic())
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
}
