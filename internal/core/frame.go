package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is an in-memory CSV table. A cell with Valid=false is null.
type Table struct {
	Columns []string
	Rows    [][]pgtype.Text
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1 if it is absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with this name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendStrings appends a row of raw values, converting each through ToPgText.
// Short rows are padded with nulls.
func (t *Table) AppendStrings(values ...string) {
	row := make([]pgtype.Text, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = ToPgText(values[i])
		}
	}
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]pgtype.Text, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = cloneRow(row)
	}
	return out
}

// Filter returns a new table holding copies of the rows for which keep
// returns true. The receiver is not modified.
func (t *Table) Filter(keep func(row []pgtype.Text) bool) *Table {
	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, cloneRow(row))
		}
	}
	return out
}

// Column returns the cells of one column, or nil if it is absent.
func (t *Table) Column(name string) []pgtype.Text {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	cells := make([]pgtype.Text, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells
}

// Strings returns the rows as raw strings, with null cells as "".
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			if c.Valid {
				rec[j] = c.String
			}
		}
		out[i] = rec
	}
	return out
}

// NullCounts returns the number of null cells per column.
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for j, col := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if !row[j].Valid {
				n++
			}
		}
		counts[col] = n
	}
	return counts
}

// DistinctCounts returns the number of distinct non-null values per column.
func (t *Table) DistinctCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for j, col := range t.Columns {
		seen := make(map[string]struct{})
		for _, row := range t.Rows {
			if row[j].Valid {
				seen[row[j].String] = struct{}{}
			}
		}
		counts[col] = len(seen)
	}
	return counts
}

// Equal reports whether two tables have the same columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if !rowsEqual(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

func cloneRow(row []pgtype.Text) []pgtype.Text {
	c := make([]pgtype.Text, len(row))
	copy(c, row)
	return c
}

func rowsEqual(a, b []pgtype.Text) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Valid != b[i].Valid {
			return false
		}
		if a[i].Valid && a[i].String != b[i].String {
			return false
		}
	}
	return true
}
