package snapshot

import (
	"fmt"
	"sync"
)

// ErrNotFound is returned when no snapshot exists under the given name.
var ErrNotFound = fmt.Errorf("snapshot not found")

// InMemoryStore is a volatile SnapshotStore implementation keeping blobs in
// a process local map. It is safe for concurrent access and best suited for
// tests or ephemeral sessions. Blobs are copied on save / retrieval to avoid
// accidental external mutation of internal buffers.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewInMemoryStore constructs an empty in-memory snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

// Put stores (or overwrites) the blob under the given name.
func (s *InMemoryStore) Put(name string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[name] = cp
	return nil
}

// Get returns a copy of the stored blob or ErrNotFound.
func (s *InMemoryStore) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// List returns the stored snapshot names. The slice is a fresh copy and safe
// for caller mutation.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.blobs))
	for name := range s.blobs {
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the blob if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, name)
	return nil
}
