// Package extensions provides the hook points the command pipeline and
// event publisher announce traffic on, and the plugin lifecycle that
// observers like the CloudWatch emitter attach through.
package extensions

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// HookPoint represents a point in the application where hooks can be registered
type HookPoint string

const (
	// Command hooks
	HookBeforeCommandExecute HookPoint = "before_command_execute"
	HookAfterCommandExecute  HookPoint = "after_command_execute"
	HookCommandFailed        HookPoint = "command_failed"

	// Session lifecycle hooks, fed from the domain event stream
	HookSessionStarted  HookPoint = "session_started"
	HookSessionEnded    HookPoint = "session_ended"
	HookSessionRecorded HookPoint = "session_recorded"

	// Graph mutation hooks
	HookGraphExpanded  HookPoint = "graph_expanded"
	HookConceptAdded   HookPoint = "concept_added"
	HookConceptRemoved HookPoint = "concept_removed"
	HookConceptsLinked HookPoint = "concepts_linked"
	HookFocusChanged   HookPoint = "focus_changed"
	HookTreeSaved      HookPoint = "tree_saved"
)

// Hook represents a function that can be executed at a hook point
type Hook func(ctx context.Context, data interface{}) error

// HookData is the payload handed to hooks. Which fields are set depends
// on the hook point; Metadata carries point-specific extras such as
// command duration or the number of nodes an expansion added.
type HookData struct {
	SessionID string                 `json:"session_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Topic     string                 `json:"topic,omitempty"`
	Operation string                 `json:"operation"`
	Payload   interface{}            `json:"payload,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// HookManager manages hooks for extension points
type HookManager struct {
	hooks  map[HookPoint][]Hook
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewHookManager creates a new hook manager
func NewHookManager(logger *zap.Logger) *HookManager {
	return &HookManager{
		hooks:  make(map[HookPoint][]Hook),
		logger: logger,
	}
}

// Register registers a hook for a specific hook point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute runs all hooks for a point in registration order and stops at
// the first failure.
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data interface{}) error {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}

	return nil
}

// ExecuteAsync runs hooks on their own goroutines. Async hook points are
// for observers, not participants: failures are logged and dropped, and
// a panicking hook must not take the process down with it.
func (m *HookManager) ExecuteAsync(ctx context.Context, point HookPoint, data interface{}) {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for _, hook := range hooks {
		go func(h Hook) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("Async hook panicked",
						zap.String("point", string(point)),
						zap.Any("panic", r),
					)
				}
			}()
			if err := h(ctx, data); err != nil {
				m.logger.Debug("Async hook failed",
					zap.String("point", string(point)),
					zap.Error(err),
				)
			}
		}(hook)
	}
}

// Clear removes all hooks for a specific hook point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hooks, point)
}

// ClearAll removes all registered hooks
func (m *HookManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[HookPoint][]Hook)
}
