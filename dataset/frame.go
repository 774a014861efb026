package dataset

import (
	"fmt"

	"github.com/labelloop/labelloop/core"
)

// Frame adapts a *core.Table. Options select the identifier column (default:
// the table's intrinsic row key) and the subset of columns to display.
type Frame struct {
	ids    []core.ItemID
	index  map[core.ItemID]int
	labels []string
	cells  [][]any
}

// NewFrame creates a tabular dataset over the given table.
func NewFrame(table *core.Table, optFns ...func(o *Options)) (*Frame, error) {
	if table == nil {
		return nil, fmt.Errorf("table must not be nil")
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	columns := table.Columns()
	display := opts.Columns
	if len(display) == 0 {
		// An id column is promoted to the row key; it leaves the default
		// display set.
		display = make([]string, 0, len(columns))
		for _, c := range columns {
			if c != opts.IDColumn {
				display = append(display, c)
			}
		}
	}

	displayIdx := make([]int, len(display))
	for i, label := range display {
		pos := columnIndex(columns, label)
		if pos < 0 {
			return nil, fmt.Errorf("unknown display column %q", label)
		}
		displayIdx[i] = pos
	}

	idIdx := -1
	if opts.IDColumn != "" {
		if idIdx = columnIndex(columns, opts.IDColumn); idIdx < 0 {
			return nil, fmt.Errorf("unknown id column %q", opts.IDColumn)
		}
	}

	rows := table.Rows()
	f := &Frame{
		ids:    make([]core.ItemID, 0, len(rows)),
		index:  make(map[core.ItemID]int, len(rows)),
		labels: append([]string{}, display...),
		cells:  make([][]any, 0, len(rows)),
	}

	for _, row := range rows {
		id := row.ID
		if idIdx >= 0 {
			id = core.ItemID(core.FormatCell(row.Cells[idIdx]))
		}
		if _, dup := f.index[id]; dup {
			return nil, fmt.Errorf("duplicate item id %q in column %q", string(id), opts.IDColumn)
		}

		cells := make([]any, len(displayIdx))
		for i, pos := range displayIdx {
			cells[i] = row.Cells[pos]
		}

		f.index[id] = len(f.ids)
		f.ids = append(f.ids, id)
		f.cells = append(f.cells, cells)
	}

	return f, nil
}

// IDs implements core.Dataset.
func (f *Frame) IDs() []core.ItemID {
	return append([]core.ItemID{}, f.ids...)
}

// Fields implements core.Dataset.
func (f *Frame) Fields(id core.ItemID) ([]core.Field, error) {
	pos, ok := f.index[id]
	if !ok {
		return nil, &core.UnknownIDError{ID: id}
	}
	fields := make([]core.Field, len(f.labels))
	for i, label := range f.labels {
		fields[i] = core.Field{Label: label, Value: f.cells[pos][i]}
	}
	return fields, nil
}

// Len implements core.Dataset.
func (f *Frame) Len() int { return len(f.ids) }

func columnIndex(columns []string, label string) int {
	for i, c := range columns {
		if c == label {
			return i
		}
	}
	return -1
}
