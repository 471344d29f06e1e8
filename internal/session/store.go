package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session has no thread yet
var ErrNotFound = errors.New("session not found")

// Store maps session ids to agent thread ids
type Store interface {
	// Get returns the thread id of a session or ErrNotFound
	Get(ctx context.Context, sessionID string) (string, error)

	// PutIfAbsent stores threadID unless the session already has a thread,
	// and returns whichever thread id is stored afterwards
	PutIfAbsent(ctx context.Context, sessionID, threadID string) (string, error)
}

type memoryEntry struct {
	threadID  string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Entries expire after ttl of
// inactivity; expired entries are swept at most once per ttl, on insert.
type MemoryStore struct {
	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the thread id of a session and extends its expiry
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	now := m.now()
	if !now.Before(entry.expiresAt) {
		delete(m.entries, sessionID)
		return "", ErrNotFound
	}
	entry.expiresAt = now.Add(m.ttl)
	m.entries[sessionID] = entry
	return entry.threadID, nil
}

// PutIfAbsent stores threadID for a session without a live thread
func (m *MemoryStore) PutIfAbsent(ctx context.Context, sessionID, threadID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, ok := m.entries[sessionID]; ok && now.Before(entry.expiresAt) {
		return entry.threadID, nil
	}
	if now.Sub(m.lastSweep) >= m.ttl {
		m.sweep(now)
	}
	m.entries[sessionID] = memoryEntry{threadID: threadID, expiresAt: now.Add(m.ttl)}
	return threadID, nil
}

// sweep drops expired entries; callers hold mu
func (m *MemoryStore) sweep(now time.Time) {
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.lastSweep = now
}
