package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
	busy    bool
}

// MemoryStore keeps sessions in process. Sessions are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a store whose sessions expire ttl after their last
// save. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), ttl: ttl, now: time.Now}
}

// Create stores a new session. Creating an id that is already live returns
// the stored session unchanged.
func (m *MemoryStore) Create(ctx context.Context, id string) (*agent.Session, error) {
	s := agent.NewSession(newID(id))
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if e, ok := m.lookup(s.ID); ok {
		data = e.data
		m.mu.Unlock()
		var existing agent.Session
		if err := json.Unmarshal(data, &existing); err != nil {
			return nil, err
		}
		return &existing, nil
	}
	e := &memoryEntry{data: data}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[s.ID] = e
	m.mu.Unlock()
	return s, nil
}

// lookup returns the live entry for id. Caller holds m.mu.
func (m *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) && !e.busy {
		delete(m.entries, id)
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) Acquire(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(id)
	if !ok {
		return nil, agent.ErrSessionNotFound
	}
	if e.busy {
		return nil, agent.ErrTurnInProgress
	}
	e.busy = true
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			e.busy = false
			m.mu.Unlock()
		})
	}, nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*agent.Session, error) {
	m.mu.Lock()
	e, ok := m.lookup(id)
	var data []byte
	if ok {
		data = e.data
	}
	m.mu.Unlock()
	if !ok {
		return nil, agent.ErrSessionNotFound
	}
	var s agent.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *agent.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[s.ID]
	if !ok {
		e = &memoryEntry{}
		m.entries[s.ID] = e
	}
	e.data = data
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}
