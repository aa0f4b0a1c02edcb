// internal/session/memory.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"returns-insights/internal/models"
)

// MemoryStore keeps sessions in process memory. Sessions are stored as
// JSON so Get always hands back a detached copy.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-process session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (m *MemoryStore) Put(_ context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = raw
	return nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.data[s.ID]
	if !ok {
		if s.Version != 0 {
			return ErrNotFound
		}
	} else {
		var stored models.Session
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("failed to decode session %s: %w", s.ID, err)
		}
		if stored.Version != s.Version {
			return ErrVersionConflict
		}
	}

	s.Version++
	encoded, err := json.Marshal(s)
	if err != nil {
		s.Version--
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	m.data[s.ID] = encoded
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
