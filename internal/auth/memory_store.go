package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

// MemoryStore is the in-process session store used when no DATABASE_URL is
// configured. Sessions die with the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionRecord
}

var _ core.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.SessionRecord)}
}

func (m *MemoryStore) Save(_ context.Context, rec *models.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	if prev, ok := m.sessions[rec.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.sessions[rec.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", core.ErrNotFound)
	}
	return &rec, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteSessionsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.sessions {
		if rec.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
