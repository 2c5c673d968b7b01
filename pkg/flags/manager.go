package flags

import (
	"errors"
	"sort"
	"sync"
)

// Manager is an optional aggregation layer holding multiple named
// loaders, one per declared flag group. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	loaders map[string]*Loader
}

// NewManager creates an empty loader registry.
func NewManager() *Manager {
	return &Manager{loaders: make(map[string]*Loader)}
}

// Register adds a loader under a unique name.
func (m *Manager) Register(name string, l *Loader) error {
	if l == nil {
		return ErrNilLoader
	}
	if name == "" {
		return errors.Join(ErrEmptyName, errors.New("loader name cannot be empty"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.loaders[name]; exists {
		return ErrLoaderExists
	}
	m.loaders[name] = l
	return nil
}

// Deregister removes a loader. Removing an unknown name is a no-op.
func (m *Manager) Deregister(name string) {
	m.mu.Lock()
	delete(m.loaders, name)
	m.mu.Unlock()
}

// Loader returns the loader registered under name.
func (m *Manager) Loader(name string) (*Loader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loaders[name]
	return l, ok
}

// Names returns the registered loader names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaders))
	for name := range m.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flags returns every flag across all registered loaders, grouped by
// loader name order.
func (m *Manager) Flags() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaders))
	for name := range m.loaders {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Handle
	for _, name := range names {
		out = append(out, m.loaders[name].Flags()...)
	}
	return out
}
