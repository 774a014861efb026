package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/labelloop/labelloop/core"
)

// ReadCSV reads a header-driven CSV document into a *core.Table. Row keys
// are positional (0..n-1); use a Frame with an IDColumn option to re-key by
// a column. Cells are typed by inference: integer, then float, then boolean,
// then text. Empty cells become nil.
func ReadCSV(r io.Reader) (*core.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	table := core.NewTable(header...)
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", i, err)
		}

		cells := make([]any, len(record))
		for j, raw := range record {
			cells[j] = parseCell(raw)
		}
		if err := table.Append(core.IndexID(i), cells...); err != nil {
			return nil, fmt.Errorf("failed to append csv row %d: %w", i, err)
		}
	}

	return table, nil
}

// parseCell types a raw CSV cell: int, then float, then bool, then text.
func parseCell(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
