package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voxgate/internal/voiceprint/models"
)

// InMemory keeps voiceprints in process memory.
//
// Entries are immutable once published: Put clones the voiceprint and swaps a
// fresh *models.Entry into the map, so the critical section is a dimension
// check plus a pointer assignment. Readers can therefore never observe a
// partially written vector, and the lock is never held across decode or
// embedding work.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
	dim     int // pinned by the first successful Put; 0 until then
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]*models.Entry),
	}
}

// Put stores the voiceprint for identity, overwriting any existing entry.
// The first successful Put pins the registry's embedding dimension.
func (s *InMemory) Put(_ context.Context, identity string, print models.Voiceprint) (*models.Entry, error) {
	// Clone outside the lock; the map only ever holds private copies.
	entry := &models.Entry{
		Identity:  identity,
		Print:     print.Clone(),
		UpdatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		if print.Dim() == 0 {
			return nil, fmt.Errorf("empty voiceprint: %w", ErrDimensionMismatch)
		}
		s.dim = print.Dim()
	} else if print.Dim() != s.dim {
		return nil, fmt.Errorf("got dim %d, registry pinned to %d: %w",
			print.Dim(), s.dim, ErrDimensionMismatch)
	}

	s.entries[identity] = entry
	return entry, nil
}

// Get returns the entry for identity. The returned voiceprint is a copy.
func (s *InMemory) Get(_ context.Context, identity string) (*models.Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[identity]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return &models.Entry{
		Identity:  entry.Identity,
		Print:     entry.Print.Clone(),
		UpdatedAt: entry.UpdatedAt,
	}, nil
}

// Delete removes the entry for identity.
func (s *InMemory) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[identity]; !ok {
		return ErrNotFound
	}
	delete(s.entries, identity)
	return nil
}

// Count returns the number of enrolled identities.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
