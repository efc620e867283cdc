package session

import (
	"context"
	"sync"
	"time"
)

// Store persists the theme of each session.
type Store interface {
	// Theme returns the theme saved for id; ok is false when there is none.
	Theme(ctx context.Context, id string) (t Theme, ok bool, err error)
	// SetTheme saves the theme for id, replacing any earlier value.
	SetTheme(ctx context.Context, id string, t Theme) error
	// Prune removes sessions not updated since before.
	Prune(ctx context.Context, before time.Time) (int, error)
}

type memoryEntry struct {
	theme   Theme
	updated time.Time
}

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

// Theme implements Store.
func (s *MemoryStore) Theme(ctx context.Context, id string) (Theme, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e.theme, ok, nil
}

// SetTheme implements Store.
func (s *MemoryStore) SetTheme(ctx context.Context, id string, t Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{theme: t, updated: time.Now()}
	return nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.updated.Before(before) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
