package core

import (
	"fmt"
	"sync"
	"time"
)

// Record is one committed ledger row: the full set of validated answers for
// an item plus commit metadata.
type Record struct {
	ID        ItemID         `json:"id"`
	Values    map[string]any `json:"values"` // task name -> validated answer
	User      string         `json:"user,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// clone returns a deep copy of the record safe for independent mutation.
func (r Record) clone() Record {
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Record{ID: r.ID, Values: values, User: r.User, Timestamp: r.Timestamp}
}

// Ledger is the authoritative store of committed answers, keyed by item id
// with one column per task. It is safe for concurrent access.
//
// Contract:
//   - Upsert validates the complete candidate row before any write, so a
//     partially invalid answer set never changes the ledger
//   - exported views (Table, Records) return defensive copies
//   - row order is insertion order, column order is task declaration order
type Ledger struct {
	mu    sync.RWMutex
	tasks []Task
	order []ItemID
	rows  map[ItemID]Record
}

// NewLedger creates an empty ledger over the given task sequence.
func NewLedger(tasks []Task) (*Ledger, error) {
	if err := validateTasks(tasks); err != nil {
		return nil, err
	}
	return &Ledger{
		tasks: append([]Task{}, tasks...),
		rows:  make(map[ItemID]Record),
	}, nil
}

// Tasks returns a copy of the task sequence in declaration order.
func (l *Ledger) Tasks() []Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Task{}, l.tasks...)
}

// Has reports whether a committed row exists for id.
func (l *Ledger) Has(id ItemID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.rows[id]
	return ok
}

// Len returns the number of committed rows.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// Get returns a copy of the committed record for id.
func (l *Ledger) Get(id ItemID) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	row, ok := l.rows[id]
	if !ok {
		return Record{}, false
	}
	return row.clone(), true
}

// Upsert validates the supplied answers against every session task and
// writes/overwrites the full row for id. Tasks absent from values fall back
// to their default (or nil where nullable); unknown task names and
// validation failures reject the whole commit, leaving the ledger unchanged.
func (l *Ledger) Upsert(id ItemID, values map[string]any, user string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for name := range values {
		if !l.hasTaskLocked(name) {
			return &InvalidAnswerError{Task: name, Raw: values[name], Reason: "no such task"}
		}
	}

	// Stage the complete row before touching committed state.
	staged := make(map[string]any, len(l.tasks))
	for _, task := range l.tasks {
		raw, supplied := values[task.Name]
		var (
			normalized any
			err        error
		)
		if supplied {
			normalized, err = task.Validate(raw)
		} else {
			normalized, err = task.Missing()
		}
		if err != nil {
			return err
		}
		staged[task.Name] = normalized
	}

	if _, exists := l.rows[id]; !exists {
		l.order = append(l.order, id)
	}
	l.rows[id] = Record{ID: id, Values: staged, User: user, Timestamp: time.Now()}
	return nil
}

// Restore inserts a record keeping its original commit metadata. Intended
// for snapshot restoration; values are validated like a regular commit,
// which canonicalizes decoded JSON numbers back into their kind's domain.
func (l *Ledger) Restore(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[string]any, len(l.tasks))
	for _, task := range l.tasks {
		raw, supplied := rec.Values[task.Name]
		var (
			normalized any
			err        error
		)
		if supplied && raw != nil {
			normalized, err = task.Validate(raw)
		} else if task.Nullable {
			normalized = nil
		} else {
			normalized, err = task.Missing()
		}
		if err != nil {
			return err
		}
		staged[task.Name] = normalized
	}

	if _, exists := l.rows[rec.ID]; !exists {
		l.order = append(l.order, rec.ID)
	}
	l.rows[rec.ID] = Record{ID: rec.ID, Values: staged, User: rec.User, Timestamp: rec.Timestamp}
	return nil
}

// Records returns copies of all committed records in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := make([]Record, 0, len(l.order))
	for _, id := range l.order {
		records = append(records, l.rows[id].clone())
	}
	return records
}

// Table exports all rows as a flat tabular view. Column order is task
// declaration order, row order is insertion order.
func (l *Ledger) Table() *Table {
	l.mu.RLock()
	defer l.mu.RUnlock()

	columns := make([]string, len(l.tasks))
	for i, task := range l.tasks {
		columns[i] = task.Name
	}

	table := NewTable(columns...)
	for _, id := range l.order {
		row := l.rows[id]
		cells := make([]any, len(l.tasks))
		for i, task := range l.tasks {
			cells[i] = row.Values[task.Name]
		}
		// Arity is correct by construction.
		_ = table.Append(id, cells...)
	}
	return table
}

// MergeWith joins the dataset's fields and the ledger's columns by item id
// under the DATA and ANNOTATIONS column groups. The result is a read-only
// projection in dataset id order, covering only committed ids.
func (l *Ledger) MergeWith(ds Dataset) (*Table, error) {
	if ds == nil {
		return nil, ErrNoData
	}

	l.mu.RLock()
	tasks := append([]Task{}, l.tasks...)
	l.mu.RUnlock()

	var columns []string
	var merged *Table

	for _, id := range ds.IDs() {
		row, ok := l.Get(id)
		if !ok {
			continue
		}
		fields, err := ds.Fields(id)
		if err != nil {
			return nil, err
		}

		if merged == nil {
			columns = make([]string, 0, len(fields)+len(tasks))
			for _, f := range fields {
				columns = append(columns, "DATA/"+f.Label)
			}
			for _, task := range tasks {
				columns = append(columns, "ANNOTATIONS/"+task.Name)
			}
			merged = NewTable(columns...)
		}

		cells := make([]any, 0, len(columns))
		for _, f := range fields {
			cells = append(cells, f.Value)
		}
		for _, task := range tasks {
			cells = append(cells, row.Values[task.Name])
		}
		if err := merged.Append(id, cells...); err != nil {
			return nil, fmt.Errorf("failed to merge row %q: %w", string(id), err)
		}
	}

	if merged == nil {
		merged = NewTable()
	}
	return merged, nil
}

// LedgerFromTable reconstructs a task sequence plus a seeded ledger from a
// previously exported table. Each column becomes a task whose kind is
// inferred from its cell values; columns containing nil cells infer as
// nullable. Existing cell values seed the ledger directly.
func LedgerFromTable(table *Table) ([]Task, *Ledger, error) {
	if table == nil || len(table.Columns()) == 0 {
		return nil, nil, fmt.Errorf("cannot infer tasks from an empty table")
	}

	columns := table.Columns()
	rows := table.Rows()

	tasks := make([]Task, 0, len(columns))
	for i, column := range columns {
		cells := make([]any, 0, len(rows))
		nullable := false
		for _, row := range rows {
			if row.Cells[i] == nil {
				nullable = true
			}
			cells = append(cells, row.Cells[i])
		}
		task, err := NewTask(column, InferKind(cells), func(o *Task) {
			o.Nullable = nullable
		})
		if err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, task)
	}

	ledger, err := NewLedger(tasks)
	if err != nil {
		return nil, nil, err
	}

	for _, row := range rows {
		values := make(map[string]any, len(columns))
		for i, column := range columns {
			cell := row.Cells[i]
			// Mixed-type columns fall back to text; render their cells as
			// text so externally produced tables still seed.
			if _, text := tasks[i].Kind.(TextKind); text && cell != nil {
				cell = FormatCell(cell)
			}
			values[column] = cell
		}
		if err := ledger.Upsert(row.ID, values, ""); err != nil {
			return nil, nil, fmt.Errorf("failed to seed row %q: %w", string(row.ID), err)
		}
	}

	return tasks, ledger, nil
}

func (l *Ledger) hasTaskLocked(name string) bool {
	for _, task := range l.tasks {
		if task.Name == name {
			return true
		}
	}
	return false
}
