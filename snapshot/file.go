package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// snapshotExt is the on-disk file suffix for stored snapshots.
const snapshotExt = ".snapshot.json"

// FileStore is a durable SnapshotStore keeping one file per snapshot inside
// a directory. Writes go through a temporary file plus rename so a crashed
// save never leaves a truncated snapshot behind.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates (if needed) the directory and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put stores (or overwrites) the blob under the given name.
func (s *FileStore) Put(name string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(name)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Get returns the stored blob or ErrNotFound.
func (s *FileStore) Get(name string) ([]byte, error) {
	blob, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return blob, nil
}

// List returns the stored snapshot names.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), snapshotExt))
	}
	return names, nil
}

// Delete removes the snapshot if present or returns ErrNotFound.
func (s *FileStore) Delete(name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *FileStore) path(name string) string {
	// Snapshot names become file names; path separators are flattened.
	safe := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(name)
	return filepath.Join(s.dir, safe+snapshotExt)
}
