// Package table provides the in-memory tabular data model the agent
// operates on: named, ordered columns over position-aligned rows.
package table

import (
	"fmt"
	"math"
	"strconv"
)

// Table is a two-dimensional, named-column, ordered-row dataset.
// Cells are untyped; a nil cell (or NaN float) represents a missing value.
// Tables are treated as immutable by the operation layer: transformations
// build a new Table and the caller swaps references on success.
type Table struct {
	columns []string
	rows    [][]any
}

// New constructs a Table from a header and rows.
// Column names must be unique and every row must match the header width.
func New(columns []string, rows [][]any) (*Table, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(columns))
		}
	}
	return &Table{columns: columns, rows: rows}, nil
}

// MustNew is New for static test fixtures; it panics on invalid input.
func MustNew(columns []string, rows [][]any) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in order. The slice is a copy.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.rows) == 0 || len(t.columns) == 0
}

// ColumnIndex returns the position of a column by name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Cell returns the value at (row, col). Callers must pass valid indexes.
func (t *Table) Cell(row, col int) any { return t.rows[row][col] }

// Column returns all values of the named column, aligned by row position.
func (t *Table) Column(name string) ([]any, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, true
}

// Row returns a copy of the row at the given index.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// SetCell overwrites the value at (row, col). Only freshly cloned
// tables should be mutated; shared references are treated as immutable.
func (t *Table) SetCell(row, col int, v any) { t.rows[row][col] = v }

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		r := make([]any, len(row))
		copy(r, row)
		rows[i] = r
	}
	return &Table{columns: cols, rows: rows}
}

// IsMissing reports whether a cell value represents a missing entry.
// Both nil and NaN floats count as missing, mirroring how empty CSV
// cells and undefined arithmetic results are stored.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok {
		return math.IsNaN(f)
	}
	return false
}

// FormatValue renders a cell for display and for string-based matching.
// Floats that carry integral values print without a trailing ".0" so a
// numeric column loaded from CSV matches the text the user typed.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ToFloat converts a cell to float64 for row-wise arithmetic.
// Missing and non-numeric cells convert to NaN, which then propagates
// through the derived-column math the same way pandas NaN would.
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
