package store

import "sync"

// KV is a generic interface for a key-value store.
// The ledger only needs point lookups and point writes; anything that can
// provide those (in-memory map, LevelDB, Postgres) can back it.
type KV interface {
	// Get returns the value stored under key. The second result reports
	// whether the key was present; a missing key is not an error.
	Get(key string) ([]byte, bool, error)
	// Put inserts or replaces the value stored under key. The value must
	// be durable before Put returns nil.
	Put(key string, value []byte) error
	Close() error
}

// Memory is an in-memory KV used by tests and the dev server.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *Memory) Close() error { return nil }
