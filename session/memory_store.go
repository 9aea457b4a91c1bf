package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process [Store] for development and tests. Records are kept
// encoded so callers never share mutable state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore] whose entries live for ttl after
// their last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && !m.now().Before(cur.expiresAt) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	r, err := Decode(entry.data)
	if err != nil {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[id] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || !m.now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return ErrNotFound
	}
	m.entries[id] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Rotate(_ context.Context, oldID, newID string) error {
	if oldID == newID {
		return errors.New("rotate requires distinct identifiers")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[oldID]
	if !ok {
		return nil
	}
	delete(m.entries, oldID)
	if !m.now().Before(entry.expiresAt) {
		return nil
	}
	entry.expiresAt = m.now().Add(m.ttl)
	m.entries[newID] = entry
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
