package core

// SnapshotStore defines the interface for persisted session snapshots.
// Implementations should be thread-safe and key blobs by an opaque name.
// Short method names (Put/Get/List/Delete) mirror other store interfaces for
// consistency.
type SnapshotStore interface {
	Put(name string, blob []byte) error
	Get(name string) ([]byte, error)
	List() ([]string, error)
	Delete(name string) error
}
