// Package ingest reads the retail and movie datasets from CSV exports.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
)

// table is a header-addressed CSV stream.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func newTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", common.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}
	return &table{reader: reader, columns: columns, line: 1}, nil
}

// normalizeColumn makes "Customer ID", "customer_id" and a BOM-prefixed "CustomerID" equivalent.
func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

// require resolves column names to indices, failing on the first one that is absent.
func (t *table) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		col, ok := t.columns[normalizeColumn(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingColumn, name)
		}
		idx[i] = col
	}
	return idx, nil
}

// optional resolves a column name to an index, or -1.
func (t *table) optional(name string) int {
	if col, ok := t.columns[normalizeColumn(name)]; ok {
		return col
	}
	return -1
}

// next returns the next record, or io.EOF.
func (t *table) next() ([]string, error) {
	record, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", t.line+1, err)
	}
	t.line++
	return record, nil
}

// field returns the trimmed cell at col, or "" when the row is short or col is -1.
func field(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
