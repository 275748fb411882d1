package interact

import (
	"context"
	"sync"
)

// SessionStore persists SessionState per visitor key.
type SessionStore interface {
	Load(ctx context.Context, key string) (SessionState, error)
	Save(ctx context.Context, key string, state SessionState) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]SessionState)}
}

// Load returns the stored state, or the zero state for an unknown key.
func (m *MemoryStore) Load(_ context.Context, key string) (SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[key], nil
}

func (m *MemoryStore) Save(_ context.Context, key string, state SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = state
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// keyedMutex serializes operations on the same visitor key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
