// Package core provides the in-memory table model shared by every pipeline stage.
// This package has no I/O dependencies and can be used by any loader or sink.
package core

import (
	"fmt"
	"math"
	"strconv"
)

// ColumnType represents the semantic type of a table column.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnCategorical
	ColumnInteger
	ColumnFloat
)

// String returns the lowercase name of the column type.
func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnCategorical:
		return "categorical"
	case ColumnInteger:
		return "integer"
	case ColumnFloat:
		return "float"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Numeric reports whether values of this type are int64 or float64.
func (t ColumnType) Numeric() bool {
	return t == ColumnInteger || t == ColumnFloat
}

// Column describes one table column.
type Column struct {
	Name string
	Type ColumnType

	// Levels lists the category labels in their ordinal order.
	// Only meaningful for ColumnCategorical; nil means "order by value".
	Levels []string
}

// Row holds one value per table column, in column order.
// A value is string (text, categorical), int64, float64, or nil when missing.
type Row []any

// Table is an ordered sequence of rows sharing one column schema.
// Tables are treated as immutable once a stage hands them on: every
// transform returns a new Table and leaves its input untouched.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row

	index map[string]int
}

// NewTable creates an empty table with the given columns.
// Panics if two columns share a name.
func NewTable(name string, columns ...Column) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.Columns {
		if _, exists := t.index[c.Name]; exists {
			panic(fmt.Sprintf("duplicate column: %s", c.Name))
		}
		t.index[c.Name] = i
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Header returns the column names in order.
func (t *Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Column returns the named column definition.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// mustIndex returns the column position or an error naming the table.
func (t *Table) mustIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("table %q: column not found: %s", t.Name, name)
	}
	return i, nil
}

// Append validates a row against the schema and adds it.
func (t *Table) Append(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %q: row has %d values, expected %d", t.Name, len(row), len(t.Columns))
	}
	for i, v := range row {
		if !conforms(t.Columns[i].Type, v) {
			return fmt.Errorf("table %q: column %s: value %v (%T) is not %s",
				t.Name, t.Columns[i].Name, v, v, t.Columns[i].Type)
		}
	}
	t.Rows = append(t.Rows, row)
	return nil
}

func conforms(typ ColumnType, v any) bool {
	if v == nil {
		return true
	}
	switch typ {
	case ColumnText, ColumnCategorical:
		_, ok := v.(string)
		return ok
	case ColumnInteger:
		_, ok := v.(int64)
		return ok
	case ColumnFloat:
		_, ok := v.(float64)
		return ok
	}
	return false
}

// Value returns the value at row i of the named column (nil if missing or unknown column).
func (t *Table) Value(i int, column string) any {
	c, ok := t.index[column]
	if !ok {
		return nil
	}
	return t.Rows[i][c]
}

// Float returns a numeric value as float64.
// Returns false if the value is missing or not numeric.
func (t *Table) Float(i int, column string) (float64, bool) {
	return AsFloat(t.Value(i, column))
}

// Text returns a string value. Returns false if missing.
func (t *Table) Text(i int, column string) (string, bool) {
	s, ok := t.Value(i, column).(string)
	return s, ok
}

// AsFloat converts an int64 or float64 value to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// WithColumn returns a copy of the table with one extra column appended.
// values must hold exactly one entry per row.
func (t *Table) WithColumn(col Column, values []any) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("table %q: column %s has %d values, expected %d",
			t.Name, col.Name, len(values), len(t.Rows))
	}
	if _, exists := t.index[col.Name]; exists {
		return nil, fmt.Errorf("table %q: column already exists: %s", t.Name, col.Name)
	}

	out := NewTable(t.Name, append(append([]Column(nil), t.Columns...), col)...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		if !conforms(col.Type, values[i]) {
			return nil, fmt.Errorf("table %q: column %s row %d: value %v (%T) is not %s",
				t.Name, col.Name, i, values[i], values[i], col.Type)
		}
		nr := make(Row, len(r)+1)
		copy(nr, r)
		nr[len(r)] = values[i]
		out.Rows[i] = nr
	}
	return out, nil
}

// Project returns a new table containing only the named columns, in the given order.
func (t *Table) Project(name string, columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	cols := make([]Column, len(columns))
	for i, c := range columns {
		pos, err := t.mustIndex(c)
		if err != nil {
			return nil, err
		}
		idx[i] = pos
		cols[i] = t.Columns[pos]
	}

	out := NewTable(name, cols...)
	out.Rows = make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		nr := make(Row, len(idx))
		for i, pos := range idx {
			nr[i] = row[pos]
		}
		out.Rows[r] = nr
	}
	return out, nil
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(i int, row Row) bool) *Table {
	out := NewTable(t.Name, t.Columns...)
	for i, row := range t.Rows {
		if keep(i, row) {
			out.Rows = append(out.Rows, append(Row(nil), row...))
		}
	}
	return out
}

// Head returns a new table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Filter(func(i int, _ Row) bool { return i < n })
}

// Records returns the rows formatted as strings, in column order.
// Used by text-based sinks.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = FormatValue(v)
		}
		out[i] = rec
	}
	return out
}

// FormatValue renders a cell value for text output.
// Missing values and NaN render as empty; infinities as "inf" / "-inf".
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		switch {
		case math.IsNaN(n):
			return ""
		case math.IsInf(n, 1):
			return "inf"
		case math.IsInf(n, -1):
			return "-inf"
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
