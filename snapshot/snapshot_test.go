package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelloop/labelloop/core"
	"github.com/labelloop/labelloop/dataset"
	"github.com/labelloop/labelloop/internal/testutil"
)

func capturedSession(t *testing.T, includeData bool) *core.Session {
	t.Helper()

	tasks := []core.Task{
		testutil.NewTaskBuilder("adverse").Choice("0", "1", "3").Build(),
		testutil.NewTaskBuilder("score").Int().Nullable().Build(),
	}

	table := core.NewTable("title")
	require.NoError(t, table.Append("n-17", "storm warning"))
	require.NoError(t, table.Append("n-42", "fraud probe"))

	frame, err := dataset.NewFrame(table)
	require.NoError(t, err)

	b := testutil.NewSessionBuilder("adverse-media").
		Tasks(tasks...).
		Data(frame).
		User("kim").
		Commit("n-17", map[string]any{"adverse": "1", "score": 4})
	if includeData {
		b = b.IncludeData()
	}
	return b.Build()
}

// -------------------- Capture Tests --------------------

func TestCapture_WithoutData(t *testing.T) {
	snap, err := Capture(capturedSession(t, false))
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, snap.Version)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "adverse-media", snap.Name)
	assert.Equal(t, "kim", snap.User)
	assert.False(t, snap.Captured.IsZero())
	assert.Len(t, snap.Tasks, 2)
	assert.Len(t, snap.Records, 1)
	assert.Empty(t, snap.Data)
}

func TestCapture_WithData(t *testing.T) {
	snap, err := Capture(capturedSession(t, true))
	require.NoError(t, err)

	require.Len(t, snap.Data, 2)
	assert.Equal(t, core.ItemID("n-17"), snap.Data[0].ID)
	assert.Equal(t, []core.Field{{Label: "title", Value: "storm warning"}}, snap.Data[0].Fields)
}

// -------------------- Round-Trip Tests --------------------

func TestEncodeDecodeRestore_RoundTrip(t *testing.T) {
	snap, err := Capture(capturedSession(t, true))
	require.NoError(t, err)

	blob, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)

	sess, err := Restore(decoded)
	require.NoError(t, err)

	assert.Equal(t, "adverse-media", sess.Name())
	assert.Equal(t, "kim", sess.User())
	assert.True(t, sess.IncludeData())

	// JSON numbers come back canonicalized into the task kind's domain.
	rec, ok := sess.Ledger().Get("n-17")
	require.True(t, ok)
	assert.Equal(t, "1", rec.Values["adverse"])
	assert.Equal(t, int64(4), rec.Values["score"])

	data, err := sess.Data()
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{"n-17", "n-42"}, data.IDs())

	// The restored session skips the already committed item on the next run.
	merged, err := sess.Merged()
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{"n-17"}, merged.IDs())
}

func TestRestore_WithoutDataPayload(t *testing.T) {
	snap, err := Capture(capturedSession(t, false))
	require.NoError(t, err)

	blob, err := Encode(snap)
	require.NoError(t, err)
	decoded, err := Decode(blob)
	require.NoError(t, err)

	sess, err := Restore(decoded)
	require.NoError(t, err)

	// Ledger inspection stays usable; data access reports no data until a
	// dataset is re-attached.
	assert.Equal(t, 1, sess.Ledger().Len())
	_, err = sess.Data()
	assert.ErrorIs(t, err, core.ErrNoData)

	ds, err := dataset.New([]string{"storm warning"})
	require.NoError(t, err)
	sess.AttachData(ds)
	_, err = sess.Data()
	assert.NoError(t, err)
}

func TestRestore_PreservesCommitMetadata(t *testing.T) {
	then := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		Version: FormatVersion,
		Name:    "adverse-media",
		Tasks:   []core.Task{testutil.NewTaskBuilder("adverse").Choice("0", "1").Build()},
		Records: []core.Record{{
			ID:        "n-17",
			Values:    map[string]any{"adverse": "1"},
			User:      "kim",
			Timestamp: then,
		}},
	}

	sess, err := Restore(snap)
	require.NoError(t, err)

	rec, ok := sess.Ledger().Get("n-17")
	require.True(t, ok)
	assert.Equal(t, "kim", rec.User)
	assert.True(t, then.Equal(rec.Timestamp))
}

// -------------------- Failure Tests --------------------

func TestRestore_Invalid(t *testing.T) {
	var perr *core.PersistenceError

	_, err := Restore(nil)
	require.ErrorAs(t, err, &perr)

	_, err = Restore(&Snapshot{Version: 99})
	require.ErrorAs(t, err, &perr)

	// A record that fails task validation rejects the whole restore.
	_, err = Restore(&Snapshot{
		Version: FormatVersion,
		Tasks:   []core.Task{testutil.NewTaskBuilder("adverse").Choice("0", "1").Build()},
		Records: []core.Record{{ID: "n-17", Values: map[string]any{"adverse": "7"}}},
	})
	require.ErrorAs(t, err, &perr)
}

func TestDecode_Invalid(t *testing.T) {
	var perr *core.PersistenceError

	_, err := Decode([]byte("not json"))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Op)

	_, err = Decode([]byte(`{"version":99,"tasks":[]}`))
	require.ErrorAs(t, err, &perr)

	_, err = Decode([]byte(`{"version":1,"tasks":[]}`))
	require.ErrorAs(t, err, &perr)
}
