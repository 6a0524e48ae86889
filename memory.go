package prefstore

import (
	"context"
	"sync"
)

// Memory implements Driver with thread-safe in-memory storage. It is the
// default backend; contents do not survive the process.
type Memory struct {
	mu        sync.RWMutex
	data      map[string][]byte
	listeners map[int]func(key string)
	next      int
}

// NewMemory creates an in-memory Driver instance.
func NewMemory() *Memory {
	return &Memory{
		data:      make(map[string][]byte),
		listeners: make(map[int]func(key string)),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = clone(value)
	fns := m.snapshotListeners()
	m.mu.Unlock()

	notify(fns, key)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	_, ok := m.data[key]
	delete(m.data, key)
	fns := m.snapshotListeners()
	m.mu.Unlock()

	if ok {
		notify(fns, key)
	}
	return nil
}

func (m *Memory) Contains(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys, nil
}

// Clear removes every entry, raising one notification per removed key.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	removed := make([]string, 0, len(m.data))
	for key := range m.data {
		removed = append(removed, key)
	}
	m.data = make(map[string][]byte)
	fns := m.snapshotListeners()
	m.mu.Unlock()

	for _, key := range removed {
		notify(fns, key)
	}
	return nil
}

func (m *Memory) Listen(fn func(key string)) (stop func(), err error) {
	m.mu.Lock()
	id := m.next
	m.next++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}, nil
}

// snapshotListeners must be called with m.mu held.
func (m *Memory) snapshotListeners() []func(string) {
	fns := make([]func(string), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(string), key string) {
	for _, fn := range fns {
		fn(key)
	}
}

func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

var _ Driver = (*Memory)(nil)
