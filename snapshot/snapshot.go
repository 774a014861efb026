// Package snapshot persists whole sessions: tasks, committed ledger rows,
// metadata and (optionally) the bulk data payload, as one opaque JSON blob.
// The snapshot is an explicit struct the session builds deliberately; the
// data payload is included only when the session was constructed with
// IncludeData. Restoring re-validates every cell through its task kind so a
// JSON round-trip is exact for tasks and ledger content.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labelloop/labelloop/core"
	"github.com/labelloop/labelloop/internal/util"
)

// FormatVersion identifies the snapshot wire schema.
const FormatVersion = 1

// Snapshot is the serializable point-in-time capture of a session.
type Snapshot struct {
	Version  int           `json:"version"`
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	User     string        `json:"user,omitempty"`
	Captured time.Time     `json:"captured"`
	Tasks    []core.Task   `json:"tasks"`
	Records  []core.Record `json:"records"`
	Data     []DataItem    `json:"data,omitempty"` // Present only when the session includes data
}

// DataItem is the serialized form of one dataset item.
type DataItem struct {
	ID     core.ItemID  `json:"id"`
	Fields []core.Field `json:"fields"`
}

// Capture builds a snapshot of the session. The data payload is enumerated
// through the dataset contract only when the session was constructed with
// IncludeData; a session without data always captures without payload.
func Capture(sess *core.Session) (*Snapshot, error) {
	snap := &Snapshot{
		Version:  FormatVersion,
		ID:       util.NewID(),
		Name:     sess.Name(),
		User:     sess.User(),
		Captured: time.Now(),
		Tasks:    sess.Tasks(),
		Records:  sess.Ledger().Records(),
	}

	if !sess.IncludeData() {
		return snap, nil
	}

	data, err := sess.Data()
	if err != nil {
		// IncludeData with nothing attached: capture without payload.
		return snap, nil
	}

	snap.Data = make([]DataItem, 0, data.Len())
	for _, id := range data.IDs() {
		fields, err := data.Fields(id)
		if err != nil {
			return nil, &core.PersistenceError{Op: "capture", Err: err}
		}
		snap.Data = append(snap.Data, DataItem{ID: id, Fields: fields})
	}
	return snap, nil
}

// Restore rebuilds a session from a snapshot. Every ledger cell passes
// through its task kind's validation, canonicalizing decoded JSON values
// back into the kind's domain. A snapshot without a data payload restores a
// session whose data accessor reports core.ErrNoData; ledger inspection
// stays usable and a dataset can be re-attached afterwards.
func Restore(snap *Snapshot, optFns ...func(o *core.SessionOptions)) (*core.Session, error) {
	if snap == nil {
		return nil, &core.PersistenceError{Op: "restore", Err: fmt.Errorf("snapshot is nil")}
	}
	if snap.Version != FormatVersion {
		return nil, &core.PersistenceError{Op: "restore", Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}

	sess, err := core.NewSession(snap.Tasks, func(o *core.SessionOptions) {
		o.Name = snap.Name
		o.User = snap.User
		for _, fn := range optFns {
			fn(o)
		}
		if len(snap.Data) > 0 {
			o.Data = &restoredDataset{items: snap.Data}
			o.IncludeData = true
		}
	})
	if err != nil {
		return nil, &core.PersistenceError{Op: "restore", Err: err}
	}

	for _, rec := range snap.Records {
		if err := sess.Ledger().Restore(rec); err != nil {
			return nil, &core.PersistenceError{Op: "restore", Err: err}
		}
	}
	return sess, nil
}

// Encode serializes a snapshot to its opaque wire form.
func Encode(snap *Snapshot) ([]byte, error) {
	blob, err := json.Marshal(snap)
	if err != nil {
		return nil, &core.PersistenceError{Op: "encode", Err: err}
	}
	return blob, nil
}

// Decode parses an opaque wire blob back into a snapshot. Malformed input
// or a schema mismatch fails with core.PersistenceError without partially
// populating anything.
func Decode(blob []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, &core.PersistenceError{Op: "decode", Err: err}
	}
	if snap.Version != FormatVersion {
		return nil, &core.PersistenceError{Op: "decode", Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}
	if len(snap.Tasks) == 0 {
		return nil, &core.PersistenceError{Op: "decode", Err: fmt.Errorf("snapshot carries no tasks")}
	}
	return &snap, nil
}

// restoredDataset replays a captured data payload behind the dataset
// contract, preserving the original id order.
type restoredDataset struct {
	items []DataItem
}

// IDs implements core.Dataset.
func (d *restoredDataset) IDs() []core.ItemID {
	ids := make([]core.ItemID, len(d.items))
	for i, item := range d.items {
		ids[i] = item.ID
	}
	return ids
}

// Fields implements core.Dataset.
func (d *restoredDataset) Fields(id core.ItemID) ([]core.Field, error) {
	for _, item := range d.items {
		if item.ID == id {
			return append([]core.Field{}, item.Fields...), nil
		}
	}
	return nil, &core.UnknownIDError{ID: id}
}

// Len implements core.Dataset.
func (d *restoredDataset) Len() int { return len(d.items) }
