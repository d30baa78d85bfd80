package bridge

import (
	"context"
	"sync"
)

// Memory is an in-process Bridge implementation.
//
// It holds the value tree in a map and dispatches updates synchronously
// to subscribers. Intended for tests and single-node development where
// no broker is available.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Memory struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[string]map[int]Handler
	nextID int
	closed bool
}

// NewMemory creates an empty in-process bridge.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]any),
		subs:   make(map[string]map[int]Handler),
	}
}

// SetValue writes a value and notifies subscribers on that path.
func (m *Memory) SetValue(_ context.Context, path string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.values[path] = value

	var handlers []Handler
	for _, h := range m.subs[path] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	// Dispatch outside the lock so handlers can call back into the bridge.
	for _, h := range handlers {
		h(value)
	}
	return nil
}

// GetValue reads the current value. Returns (nil, nil) for unset paths.
func (m *Memory) GetValue(_ context.Context, path string) (any, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.values[path], nil
}

// Subscribe registers a handler and fires it immediately with the current
// value when one exists.
func (m *Memory) Subscribe(path string, handler Handler) (func(), error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.subs[path] == nil {
		m.subs[path] = make(map[int]Handler)
	}
	id := m.nextID
	m.nextID++
	m.subs[path][id] = handler
	current, hasValue := m.values[path]
	m.mu.Unlock()

	if hasValue {
		handler(current)
	}

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if handlers, ok := m.subs[path]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(m.subs, path)
			}
		}
	}
	return cancel, nil
}

// Close drops all values and subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.values = make(map[string]any)
	m.subs = make(map[string]map[int]Handler)
	return nil
}
