package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Table is a minimal ordered tabular value used for ledger export/import and
// merged views. Rows are keyed by ItemID and kept in insertion order.
type Table struct {
	columns []string
	rows    []TableRow
	index   map[ItemID]int
}

// TableRow is one row of a Table: an id plus one cell per column.
type TableRow struct {
	ID    ItemID `json:"id"`
	Cells []any  `json:"cells"`
}

// NewTable creates an empty table with the given column labels.
func NewTable(columns ...string) *Table {
	return &Table{
		columns: append([]string{}, columns...),
		index:   make(map[ItemID]int),
	}
}

// Columns returns a copy of the column labels in declaration order.
func (t *Table) Columns() []string {
	return append([]string{}, t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Append adds or overwrites the row for id. The number of cells must match
// the number of columns. Overwriting keeps the row's original position.
func (t *Table) Append(id ItemID, cells ...any) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row %q has %d cells, table has %d columns", string(id), len(cells), len(t.columns))
	}
	row := TableRow{ID: id, Cells: append([]any{}, cells...)}
	if pos, ok := t.index[id]; ok {
		t.rows[pos] = row
		return nil
	}
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
	return nil
}

// Lookup returns the row for id, with cells copied to prevent callers from
// mutating internal state.
func (t *Table) Lookup(id ItemID) (TableRow, bool) {
	pos, ok := t.index[id]
	if !ok {
		return TableRow{}, false
	}
	row := t.rows[pos]
	return TableRow{ID: row.ID, Cells: append([]any{}, row.Cells...)}, true
}

// Cell returns the value at (id, column).
func (t *Table) Cell(id ItemID, column string) (any, error) {
	pos, ok := t.index[id]
	if !ok {
		return nil, &UnknownIDError{ID: id}
	}
	for i, c := range t.columns {
		if c == column {
			return t.rows[pos].Cells[i], nil
		}
	}
	return nil, fmt.Errorf("unknown column %q", column)
}

// IDs returns the row ids in insertion order.
func (t *Table) IDs() []ItemID {
	ids := make([]ItemID, len(t.rows))
	for i, row := range t.rows {
		ids[i] = row.ID
	}
	return ids
}

// Rows returns a defensive copy of all rows in insertion order.
func (t *Table) Rows() []TableRow {
	rows := make([]TableRow, len(t.rows))
	for i, row := range t.rows {
		rows[i] = TableRow{ID: row.ID, Cells: append([]any{}, row.Cells...)}
	}
	return rows
}

// WriteCSV writes the table with a header row ("id" followed by the column
// labels). Nil cells render as empty strings.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"id"}, t.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(t.columns)+1)
	for _, row := range t.rows {
		record[0] = string(row.ID)
		for i, cell := range row.Cells {
			record[i+1] = FormatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %q: %w", string(row.ID), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders a canonical cell value as text for display and export.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case time.Time:
		return c.Format(time.RFC3339)
	case []string:
		out := ""
		for i, s := range c {
			if i > 0 {
				out += ","
			}
			out += s
		}
		return out
	default:
		return fmt.Sprintf("%v", c)
	}
}
