package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// SessionRegistry owns every active exploration session. A session's
// operations are strictly sequential: the registry holds one mutex per
// session and runs each operation under it, so concurrent requests
// carrying the same session id serialize instead of racing on the graph.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*registeredSession
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

type registeredSession struct {
	mu      sync.Mutex
	session *aggregates.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(cfg *config.DomainConfig, logger *zap.Logger) *SessionRegistry {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SessionRegistry{
		sessions: make(map[string]*registeredSession),
		cfg:      cfg,
		logger:   logger,
	}
}

// Put registers a session under its id.
func (r *SessionRegistry) Put(session *aggregates.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = &registeredSession{session: session}

	r.logger.Debug("Session registered",
		zap.String("sessionID", session.ID()),
		zap.String("userID", session.UserID()),
		zap.String("topic", session.Topic()),
	)
}

// With runs fn while holding the session's lock. The userID must match
// the session's owner; a mismatch reports not-found rather than
// confirming that someone else's session id exists.
func (r *SessionRegistry) With(sessionID, userID string, fn func(*aggregates.Session) error) error {
	r.mu.RLock()
	entry, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return pkgerrors.NewSessionNotFoundError(sessionID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.UserID() != userID {
		return pkgerrors.NewSessionNotFoundError(sessionID)
	}
	return fn(entry.session)
}

// Remove drops a session from the registry. In-flight operations holding
// the session's lock finish normally; the session is simply no longer
// reachable for new requests.
func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes every session idle past the configured timeout and
// returns their ids. Unsaved work in an evicted session is dropped; the
// user walked away without ending it.
func (r *SessionRegistry) EvictIdle(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, entry := range r.sessions {
		if entry.session.IdleExpired(now) {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}

	if len(evicted) > 0 {
		r.logger.Info("Evicted idle sessions",
			zap.Int("count", len(evicted)),
			zap.Strings("sessionIDs", evicted),
		)
	}
	return evicted
}

// Sweep runs the idle eviction loop until ctx is cancelled.
func (r *SessionRegistry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.EvictIdle(now)
		}
	}
}
