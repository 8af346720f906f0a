package state

import "sync"

type keyLock struct {
	mu   sync.Mutex
	refs int
}

type memoryManager[T Session] struct {
	mu       sync.RWMutex
	sessions map[string]T

	locksMu sync.Mutex
	locks   map[string]*keyLock
}

// NewMemoryManager constructs an in-memory Manager. Sessions do not survive restarts.
func NewMemoryManager[T Session]() Manager[T] {
	return &memoryManager[T]{
		sessions: make(map[string]T),
		locks:    make(map[string]*keyLock),
	}
}

// Get returns the session for key if one is active.
func (m *memoryManager[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok
}

func (m *memoryManager[T]) Set(key string, session T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = session
}

// Clear removes the session for key; a missing session is ignored.
func (m *memoryManager[T]) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// GetState returns the FSM state for key, or StateIdle if none exists.
func (m *memoryManager[T]) GetState(key string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.State()
	}
	return StateIdle
}

// InProgress reports whether key has an active non-idle session.
func (m *memoryManager[T]) InProgress(key string) bool {
	return m.GetState(key) != StateIdle
}

func (m *memoryManager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryManager[T]) Lock(key string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{}
		m.locks[key] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.locksMu.Unlock()
	}
}
