package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTasks(t *testing.T) []Task {
	t.Helper()

	adverse, err := NewTask("adverse", ChoiceKind{Choices: []string{"0", "1", "3"}})
	require.NoError(t, err)

	political, err := NewTask("political", BoolKind{}, func(o *Task) { o.Nullable = true })
	require.NoError(t, err)

	return []Task{adverse, political}
}

// -------------------- Ledger Tests --------------------

func TestLedger_Upsert(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	err = ledger.Upsert("a", map[string]any{"adverse": "1", "political": true}, "kim")
	require.NoError(t, err)

	assert.True(t, ledger.Has("a"))
	assert.Equal(t, 1, ledger.Len())

	rec, ok := ledger.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", rec.Values["adverse"])
	assert.Equal(t, true, rec.Values["political"])
	assert.Equal(t, "kim", rec.User)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestLedger_UpsertOverwrites(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	require.NoError(t, ledger.Upsert("a", map[string]any{"adverse": "0"}, "kim"))
	require.NoError(t, ledger.Upsert("b", map[string]any{"adverse": "1"}, "kim"))
	require.NoError(t, ledger.Upsert("a", map[string]any{"adverse": "3"}, "lee"))

	assert.Equal(t, 2, ledger.Len())

	rec, _ := ledger.Get("a")
	assert.Equal(t, "3", rec.Values["adverse"])
	assert.Equal(t, "lee", rec.User)

	// Overwriting keeps the original row position.
	records := ledger.Records()
	require.Len(t, records, 2)
	assert.Equal(t, ItemID("a"), records[0].ID)
	assert.Equal(t, ItemID("b"), records[1].ID)
}

func TestLedger_UpsertAtomicity(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	// One valid plus one invalid answer must leave the ledger unchanged.
	err = ledger.Upsert("a", map[string]any{"adverse": "1", "political": "maybe"}, "kim")
	require.Error(t, err)

	var invalid *InvalidAnswerError
	assert.ErrorAs(t, err, &invalid)
	assert.False(t, ledger.Has("a"))
	assert.Equal(t, 0, ledger.Len())
}

func TestLedger_UpsertUnknownTask(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	err = ledger.Upsert("a", map[string]any{"mood": "great"}, "kim")
	require.Error(t, err)
	assert.False(t, ledger.Has("a"))
}

func TestLedger_MissingAnswers(t *testing.T) {
	scored, err := NewTask("score", IntKind{}, func(o *Task) { o.Default = 0 })
	require.NoError(t, err)
	note, err := NewTask("note", TextKind{}, func(o *Task) { o.Nullable = true })
	require.NoError(t, err)
	strict, err := NewTask("strict", BoolKind{})
	require.NoError(t, err)

	ledger, err := NewLedger([]Task{scored, note, strict})
	require.NoError(t, err)

	// Missing nullable answers become nil, missing defaults apply, but a
	// missing required answer rejects the commit.
	err = ledger.Upsert("a", map[string]any{"score": 9}, "")
	require.Error(t, err)

	require.NoError(t, ledger.Upsert("a", map[string]any{"strict": true}, ""))
	rec, _ := ledger.Get("a")
	assert.Equal(t, int64(0), rec.Values["score"])
	assert.Nil(t, rec.Values["note"])
	assert.Equal(t, true, rec.Values["strict"])
}

func TestLedger_RestoreKeepsMetadata(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	then := time.Date(2023, 11, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, ledger.Restore(Record{
		ID:        "a",
		Values:    map[string]any{"adverse": "1", "political": nil},
		User:      "kim",
		Timestamp: then,
	}))

	rec, ok := ledger.Get("a")
	require.True(t, ok)
	assert.Equal(t, "kim", rec.User)
	assert.True(t, then.Equal(rec.Timestamp))
	assert.Nil(t, rec.Values["political"])
}

func TestLedger_Table(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	require.NoError(t, ledger.Upsert("b", map[string]any{"adverse": "1"}, ""))
	require.NoError(t, ledger.Upsert("a", map[string]any{"adverse": "0", "political": false}, ""))

	table := ledger.Table()
	assert.Equal(t, []string{"adverse", "political"}, table.Columns())
	assert.Equal(t, []ItemID{"b", "a"}, table.IDs())

	cell, err := table.Cell("a", "political")
	require.NoError(t, err)
	assert.Equal(t, false, cell)
}

// -------------------- Merge Tests --------------------

type fakeDataset struct {
	ids    []ItemID
	fields map[ItemID][]Field
}

func (d *fakeDataset) IDs() []ItemID { return d.ids }
func (d *fakeDataset) Len() int      { return len(d.ids) }
func (d *fakeDataset) Fields(id ItemID) ([]Field, error) {
	fields, ok := d.fields[id]
	if !ok {
		return nil, &UnknownIDError{ID: id}
	}
	return fields, nil
}

func TestLedger_MergeWith(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	ds := &fakeDataset{
		ids: []ItemID{"a", "b", "c"},
		fields: map[ItemID][]Field{
			"a": {{Label: "title", Value: "storm warning"}},
			"b": {{Label: "title", Value: "fraud probe"}},
			"c": {{Label: "title", Value: "quarterly report"}},
		},
	}

	// Commit out of dataset order; merge follows dataset order and skips
	// unannotated ids.
	require.NoError(t, ledger.Upsert("c", map[string]any{"adverse": "0"}, ""))
	require.NoError(t, ledger.Upsert("a", map[string]any{"adverse": "1", "political": true}, ""))

	merged, err := ledger.MergeWith(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"DATA/title", "ANNOTATIONS/adverse", "ANNOTATIONS/political"}, merged.Columns())
	assert.Equal(t, []ItemID{"a", "c"}, merged.IDs())

	cell, err := merged.Cell("a", "DATA/title")
	require.NoError(t, err)
	assert.Equal(t, "storm warning", cell)
}

func TestLedger_MergeWithNilDataset(t *testing.T) {
	ledger, err := NewLedger(testTasks(t))
	require.NoError(t, err)

	_, err = ledger.MergeWith(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

// -------------------- Table Import Tests --------------------

func TestLedgerFromTable(t *testing.T) {
	table := NewTable("score", "flag", "note")
	require.NoError(t, table.Append("a", int64(4), true, "fine"))
	require.NoError(t, table.Append("b", int64(2), false, nil))

	tasks, ledger, err := LedgerFromTable(table)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "int", tasks[0].Kind.Name())
	assert.Equal(t, "bool", tasks[1].Kind.Name())
	assert.Equal(t, "str", tasks[2].Kind.Name())
	assert.False(t, tasks[0].Nullable)
	assert.True(t, tasks[2].Nullable)

	assert.Equal(t, 2, ledger.Len())
	rec, _ := ledger.Get("b")
	assert.Equal(t, int64(2), rec.Values["score"])
	assert.Nil(t, rec.Values["note"])
}

func TestLedgerFromTable_MixedColumnSeedsAsText(t *testing.T) {
	table := NewTable("label")
	require.NoError(t, table.Append("a", "fine"))
	require.NoError(t, table.Append("b", int64(2)))
	require.NoError(t, table.Append("c", true))

	tasks, ledger, err := LedgerFromTable(table)
	require.NoError(t, err)
	assert.Equal(t, "str", tasks[0].Kind.Name())

	rec, _ := ledger.Get("b")
	assert.Equal(t, "2", rec.Values["label"])
	rec, _ = ledger.Get("c")
	assert.Equal(t, "true", rec.Values["label"])
}

func TestLedgerFromTable_Empty(t *testing.T) {
	_, _, err := LedgerFromTable(NewTable())
	assert.Error(t, err)

	_, _, err = LedgerFromTable(nil)
	assert.Error(t, err)
}

// -------------------- Table Tests --------------------

func TestTable_AppendArity(t *testing.T) {
	table := NewTable("x", "y")
	assert.Error(t, table.Append("a", 1))
	assert.NoError(t, table.Append("a", 1, 2))
}

func TestTable_WriteCSV(t *testing.T) {
	table := NewTable("adverse", "political")
	require.NoError(t, table.Append("a", "1", true))
	require.NoError(t, table.Append("b", "0", nil))

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	assert.Equal(t, "id,adverse,political\na,1,true\nb,0,\n", buf.String())
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "true", FormatCell(true))
	assert.Equal(t, "42", FormatCell(int64(42)))
	assert.Equal(t, "2.5", FormatCell(2.5))
	assert.Equal(t, "a,b", FormatCell([]string{"a", "b"}))
	assert.Equal(t, "2024-05-01T12:00:00Z", FormatCell(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}
