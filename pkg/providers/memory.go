package providers

import (
	"context"
	"sync"

	"github.com/flagkit/flagkit/pkg/codec"
)

// Memory is a writable in-memory provider. It is useful for tests,
// process-local overrides, and as the default store at the end of a
// provider chain. Values are deep-copied on the way in and out so callers
// cannot alias the stored containers.
type Memory struct {
	name string

	mu     sync.RWMutex
	values map[string]codec.Value

	subMu sync.Mutex
	subs  map[int]*memorySub
	next  int
}

type memorySub struct {
	ch   chan []string
	keys map[string]struct{}
}

// MemoryOption configures a Memory provider at construction.
type MemoryOption func(*Memory)

// WithMemoryName overrides the provider name. Useful when a chain holds
// several memory providers that exclusion lists need to tell apart.
func WithMemoryName(name string) MemoryOption {
	return func(m *Memory) {
		if name != "" {
			m.name = name
		}
	}
}

// WithMemoryValues seeds the provider with initial key/value pairs.
func WithMemoryValues(values map[string]codec.Value) MemoryOption {
	return func(m *Memory) {
		for k, v := range values {
			m.values[k] = v.Clone()
		}
	}
}

// NewMemory creates an empty in-memory provider.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		name:   "memory",
		values: make(map[string]codec.Value),
		subs:   make(map[int]*memorySub),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name identifies the provider.
func (m *Memory) Name() string { return m.name }

// Description is a short human-readable summary.
func (m *Memory) Description() string { return "in-memory key/value store" }

// Writable reports true; the memory provider accepts writes.
func (m *Memory) Writable() bool { return true }

// Lookup returns the stored value for the key.
func (m *Memory) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return codec.Absent(), false
	}
	return v.Clone(), true
}

// Store persists a value under the key; the absent variant removes it.
func (m *Memory) Store(ctx context.Context, key string, value codec.Value) error {
	m.mu.Lock()
	if value.IsAbsent() {
		delete(m.values, key)
	} else {
		m.values[key] = value.Clone()
	}
	m.mu.Unlock()

	m.notify(key)
	return nil
}

// Reset removes any stored value for the key. Resetting an unknown key is
// a no-op.
func (m *Memory) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()

	if existed {
		m.notify(key)
	}
	return nil
}

// Len returns the number of stored values.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Watch subscribes to change notifications. A nil keys slice means every
// key. Notifications are delivered best-effort: a subscriber that stops
// draining its channel misses updates rather than blocking writers.
func (m *Memory) Watch(ctx context.Context, keys []string) (<-chan []string, error) {
	sub := &memorySub{ch: make(chan []string, 16)}
	if keys != nil {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}

	m.subMu.Lock()
	id := m.next
	m.next++
	m.subs[id] = sub
	m.subMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (m *Memory) notify(key string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, sub := range m.subs {
		if sub.keys != nil {
			if _, watched := sub.keys[key]; !watched {
				continue
			}
		}
		select {
		case sub.ch <- []string{key}:
		default:
		}
	}
}
