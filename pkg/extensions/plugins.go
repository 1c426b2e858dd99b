package extensions

import (
	"context"
	"fmt"
	"sync"
)

// Plugin represents an extension plugin
type Plugin interface {
	// Name returns the plugin name
	Name() string

	// Version returns the plugin version
	Version() string

	// Initialize initializes the plugin
	Initialize(ctx context.Context) error

	// RegisterHooks registers the plugin's hooks
	RegisterHooks(manager *HookManager) error

	// Shutdown gracefully shuts down the plugin
	Shutdown(ctx context.Context) error
}

// PluginManager owns plugin registration and teardown. A plugin is live
// once Register returns: initialized and listening on its hook points.
type PluginManager struct {
	plugins     map[string]Plugin
	hookManager *HookManager
	mu          sync.RWMutex
}

// NewPluginManager creates a new plugin manager
func NewPluginManager(hookManager *HookManager) *PluginManager {
	return &PluginManager{
		plugins:     make(map[string]Plugin),
		hookManager: hookManager,
	}
}

// Register initializes a plugin and attaches its hooks.
func (m *PluginManager) Register(plugin Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := plugin.Name()
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	if err := plugin.Initialize(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize plugin %s: %w", name, err)
	}

	if err := plugin.RegisterHooks(m.hookManager); err != nil {
		return fmt.Errorf("failed to register hooks for plugin %s: %w", name, err)
	}

	m.plugins[name] = plugin
	return nil
}

// Unregister shuts a plugin down and forgets it. Its hooks stay on the
// manager; hook points are cheap and cleared wholesale on shutdown.
func (m *PluginManager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plugin, exists := m.plugins[name]
	if !exists {
		return fmt.Errorf("plugin %s not found", name)
	}

	if err := plugin.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("failed to shutdown plugin %s: %w", name, err)
	}

	delete(m.plugins, name)
	return nil
}

// GetPlugin retrieves a plugin by name
func (m *PluginManager) GetPlugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, exists := m.plugins[name]
	return plugin, exists
}

// ListPlugins returns a list of registered plugins
func (m *PluginManager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	return names
}

// Shutdown stops every registered plugin. Used on process exit; errors
// are collected so one misbehaving plugin cannot block the rest.
func (m *PluginManager) Shutdown(ctx context.Context) []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, plugin := range m.plugins {
		if err := plugin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", name, err))
		}
		delete(m.plugins, name)
	}
	return errs
}
