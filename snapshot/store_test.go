package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- In-Memory Store Tests --------------------

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put("review", []byte("v1")))
	require.NoError(t, store.Put("review", []byte("v2")))

	blob, err := store.Get("review")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"review"}, names)

	require.NoError(t, store.Delete("review"))
	assert.ErrorIs(t, store.Delete("review"), ErrNotFound)
}

func TestInMemoryStore_CopiesBlobs(t *testing.T) {
	store := NewInMemoryStore()

	blob := []byte("original")
	require.NoError(t, store.Put("review", blob))
	blob[0] = 'X'

	got, err := store.Get("review")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get("review")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

// -------------------- File Store Tests --------------------

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put("review", []byte(`{"version":1}`)))

	blob, err := store.Get("review")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), blob)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"review"}, names)

	require.NoError(t, store.Delete("review"))
	assert.ErrorIs(t, store.Delete("review"), ErrNotFound)
}

func TestFileStore_FlattensSeparators(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("team/review", []byte("x")))

	// The name never escapes the store directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "team_review.snapshot.json", entries[0].Name())

	blob, err := store.Get("team/review")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), blob)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("review", []byte("x")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("y"), 0o644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"review"}, names)
}

func TestNewFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	_, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
