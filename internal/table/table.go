// Package table provides a small ordered-column string table. It exists so
// the scoring pipeline can derive new columns while preserving every
// pass-through column byte-for-byte and keeping the original row order.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is an in-memory tabular dataset: a header plus rows of string cells.
// Cells are stored exactly as read; numeric interpretation happens at the
// access layer via Float.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// New creates an empty table with the given header. Duplicate column names
// are rejected.
func New(header []string) (*Table, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	return &Table{
		header: append([]string(nil), header...),
		index:  index,
	}, nil
}

// FromRows creates a table from a header and data rows. Short rows are
// right-padded with empty cells; long rows are rejected.
func FromRows(header []string, rows [][]string) (*Table, error) {
	t, err := New(header)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := t.AppendRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return t, nil
}

// Header returns a copy of the column names in order.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a data row, padding short rows to the table width.
func (t *Table) AppendRow(row []string) error {
	if len(row) > len(t.header) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.header))
	}
	padded := make([]string, len(t.header))
	copy(padded, row)
	t.rows = append(t.rows, padded)
	return nil
}

// AddColumn appends a new empty column on the right. Adding an existing
// column is an error: derived columns must never clobber source data.
func (t *Table) AddColumn(name string) error {
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("column %q already exists", name)
	}
	t.index[name] = len(t.header)
	t.header = append(t.header, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	return nil
}

// Get returns the cell at (row, column name), or "" for an unknown column.
func (t *Table) Get(row int, name string) string {
	col, ok := t.index[name]
	if !ok {
		return ""
	}
	return t.rows[row][col]
}

// Set writes the cell at (row, column name). Unknown columns are a no-op;
// callers create columns explicitly with AddColumn.
func (t *Table) Set(row int, name, value string) {
	col, ok := t.index[name]
	if !ok {
		return
	}
	t.rows[row][col] = value
}

// Float parses the cell at (row, column name) as a number. The second return
// is false for empty, missing, or non-numeric cells.
func (t *Table) Float(row int, name string) (float64, bool) {
	raw := strings.TrimSpace(t.Get(row, name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Filter returns a new table containing the rows keep reports true for, in
// their original order. Row slices are shared with the receiver.
func (t *Table) Filter(keep func(row int) bool) *Table {
	index := make(map[string]int, len(t.index))
	for name, col := range t.index {
		index[name] = col
	}
	out := &Table{
		header: append([]string(nil), t.header...),
		index:  index,
	}
	for i := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, t.rows[i])
		}
	}
	return out
}

// Rows returns the underlying data rows. The slice is shared; callers must
// not mutate it.
func (t *Table) Rows() [][]string {
	return t.rows
}
