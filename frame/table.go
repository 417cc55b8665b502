package frame

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrHeaderMismatch  = errors.New("header mismatch")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is an ordered set of rows sharing one header. Operations never mutate
// the receiver; they return a new Table.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Value
}

// New validates that every row matches the header width.
func New(name string, columns []string, rows [][]Value) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &Table{Name: name, Columns: slices.Clone(columns), Rows: rows}, nil
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Width() int {
	return len(t.Columns)
}

// Index returns the position of a column, or -1.
func (t *Table) Index(column string) int {
	return slices.Index(t.Columns, column)
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Column returns a copy of the values of one column.
func (t *Table) Column(column string) ([]Value, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, column, t.Name)
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// MissingColumns lists the requested columns that the table does not have, in request order.
func (t *Table) MissingColumns(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Clone deep-copies the rows.
func (t *Table) Clone() *Table {
	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Clone(row)
	}
	return &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Rows: rows}
}

// Renamed returns a shallow copy carrying a different table name.
func (t *Table) Renamed(name string) *Table {
	return &Table{Name: name, Columns: t.Columns, Rows: t.Rows}
}

// WithColumn sets a column, replacing it in place if it exists and appending otherwise.
func (t *Table) WithColumn(column string, values []Value) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %q has %d values, table %s has %d rows", column, len(values), t.Name, len(t.Rows))
	}
	out := t.Clone()
	idx := out.Index(column)
	if idx < 0 {
		out.Columns = append(out.Columns, column)
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], values[i])
		}
		return out, nil
	}
	for i := range out.Rows {
		out.Rows[i][idx] = values[i]
	}
	return out, nil
}

// WithConstant sets a column holding the same value on every row.
func (t *Table) WithConstant(column string, v Value) *Table {
	out := t.Clone()
	idx := out.Index(column)
	if idx < 0 {
		out.Columns = append(out.Columns, column)
	}
	for i := range out.Rows {
		if idx < 0 {
			out.Rows[i] = append(out.Rows[i], v)
		} else {
			out.Rows[i][idx] = v
		}
	}
	return out
}

// Drop removes the named columns; names that are absent are ignored.
func (t *Table) Drop(columns ...string) *Table {
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if !slices.Contains(columns, c) {
			keep = append(keep, i)
		}
	}
	return t.project(keep)
}

// Rename maps column names; names not in the mapping are kept.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if to, ok := mapping[c]; ok {
			out.Columns[i] = to
		}
	}
	return out
}

// Select projects the table onto the given columns in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	if missing := t.MissingColumns(columns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s in table %s", ErrColumnNotFound, strings.Join(missing, ", "), t.Name)
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	return t.project(idx), nil
}

func (t *Table) project(idx []int) *Table {
	columns := make([]string, len(idx))
	for i, j := range idx {
		columns[i] = t.Columns[j]
	}
	rows := make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]Value, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return &Table{Name: t.Name, Columns: columns, Rows: rows}
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	rows := make([][]Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(row) {
			rows = append(rows, slices.Clone(row))
		}
	}
	return &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Rows: rows}
}

// DropDuplicates keeps the first row of every distinct combination of the
// subset columns. An empty subset compares whole rows.
func (t *Table) DropDuplicates(subset ...string) (*Table, error) {
	idx := make([]int, 0, len(subset))
	for _, c := range subset {
		i := t.Index(c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, c, t.Name)
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		for i := range t.Columns {
			idx = append(idx, i)
		}
	}

	seen := make(map[string]bool, len(t.Rows))
	return t.Filter(func(row []Value) bool {
		key := rowKey(row, idx)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	}), nil
}

// Distinct drops rows that are identical across all columns.
func (t *Table) Distinct() *Table {
	idx := make([]int, len(t.Columns))
	for i := range idx {
		idx[i] = i
	}
	seen := make(map[string]bool, len(t.Rows))
	return t.Filter(func(row []Value) bool {
		key := rowKey(row, idx)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}

func rowKey(row []Value, idx []int) string {
	var b strings.Builder
	for _, i := range idx {
		b.WriteString(row[i].key())
		b.WriteByte(0)
	}
	return b.String()
}

// DropAllMissingColumns removes columns in which every cell is missing.
func (t *Table) DropAllMissingColumns() *Table {
	keep := make([]int, 0, len(t.Columns))
	for i := range t.Columns {
		for _, row := range t.Rows {
			if !row[i].IsMissing() {
				keep = append(keep, i)
				break
			}
		}
	}
	return t.project(keep)
}

// DropMissing removes rows whose value in column is missing.
func (t *Table) DropMissing(column string) (*Table, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, column, t.Name)
	}
	return t.Filter(func(row []Value) bool {
		return !row[idx].IsMissing()
	}), nil
}

// SortBy orders rows by one column, ascending and stable, with missing values last.
func (t *Table) SortBy(column string) (*Table, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, column, t.Name)
	}
	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return less(out.Rows[i][idx], out.Rows[j][idx])
	})
	return out, nil
}

// MissingCount is the number of missing cells in the table.
func (t *Table) MissingCount() int {
	n := 0
	for _, row := range t.Rows {
		for _, v := range row {
			if v.IsMissing() {
				n++
			}
		}
	}
	return n
}

// MissingByColumn counts missing cells per column.
func (t *Table) MissingByColumn() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		counts[c] = 0
		for _, row := range t.Rows {
			if row[i].IsMissing() {
				counts[c]++
			}
		}
	}
	return counts
}

// IsNumeric reports whether every present value in the column is a Number.
// Columns with no present values are not numeric.
func (t *Table) IsNumeric(column string) bool {
	idx := t.Index(column)
	if idx < 0 {
		return false
	}
	seen := false
	for _, row := range t.Rows {
		switch row[idx].Kind {
		case Missing:
			continue
		case Number:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// FillMissing replaces the remaining missing cells: numeric columns get
// numeric, every other column gets other.
func (t *Table) FillMissing(numeric, other Value) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		fill := other
		if t.IsNumeric(c) {
			fill = numeric
		}
		for _, row := range out.Rows {
			if row[i].IsMissing() {
				row[i] = fill
			}
		}
	}
	return out
}

// Equal reports whether two tables have the same header and cells.
func (t *Table) Equal(o *Table) bool {
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i, row := range t.Rows {
		for j, v := range row {
			if !v.Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// Concat stacks tables with identical headers. The result takes the first table's name.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("received no tables to concatenate")
	}

	header := tables[0].Columns
	for i, part := range tables[1:] {
		if len(part.Columns) != len(header) {
			return nil, fmt.Errorf("%w: mismatched number of columns in part %d: expected %d, got %d", ErrHeaderMismatch, i+2, len(header), len(part.Columns))
		}
		for j, col := range header {
			if part.Columns[j] != col {
				return nil, fmt.Errorf("%w: mismatched column name in part %d: expected '%s', got '%s' at position %d", ErrHeaderMismatch, i+2, col, part.Columns[j], j+1)
			}
		}
	}

	var rows [][]Value
	for _, part := range tables {
		for _, row := range part.Rows {
			rows = append(rows, slices.Clone(row))
		}
	}
	return &Table{Name: tables[0].Name, Columns: slices.Clone(header), Rows: rows}, nil
}
