// Package csvio loads and saves spill tables as CSV files with a header row.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

// Load reads a CSV file into a table. The first row is the header; short data
// rows are padded with empty cells.
func Load(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: no header row", path)
	}

	tbl, err := table.FromRows(records[0], records[1:])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return tbl, nil
}

// Save writes the table to a CSV file, creating parent directories as needed.
func Save(path string, tbl *table.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tbl.Header()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range tbl.Rows() {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
