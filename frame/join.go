package frame

import (
	"fmt"
	"slices"
)

const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// LeftJoin keeps every row of left and appends the non-key columns of right
// from the rows whose key matches. Unmatched rows get missing values, a key
// repeated in right fans the left row out, and missing keys never match.
// Column names present on both sides (other than the key) are suffixed with
// LeftSuffix and RightSuffix; a suffixed name that already exists is an
// ErrDuplicateColumn error.
func LeftJoin(left, right *Table, key string) (*Table, error) {
	lk := left.Index(key)
	if lk < 0 {
		return nil, fmt.Errorf("%w: join key %q in table %s", ErrColumnNotFound, key, left.Name)
	}
	rk := right.Index(key)
	if rk < 0 {
		return nil, fmt.Errorf("%w: join key %q in table %s", ErrColumnNotFound, key, right.Name)
	}

	var rightCols []int
	for i := range right.Columns {
		if i != rk {
			rightCols = append(rightCols, i)
		}
	}

	columns := make([]string, 0, len(left.Columns)+len(rightCols))
	for i, c := range left.Columns {
		if i != lk && slices.Contains(right.Columns, c) {
			c += LeftSuffix
		}
		columns = append(columns, c)
	}
	for _, i := range rightCols {
		c := right.Columns[i]
		if slices.Contains(left.Columns, c) {
			c += RightSuffix
		}
		columns = append(columns, c)
	}
	for i, c := range columns {
		if slices.Contains(columns[i+1:], c) {
			return nil, fmt.Errorf("%w: joining %s onto %s yields %q twice", ErrDuplicateColumn, right.Name, left.Name, c)
		}
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		if row[rk].IsMissing() {
			continue
		}
		k := row[rk].key()
		index[k] = append(index[k], i)
	}

	rows := make([][]Value, 0, len(left.Rows))
	for _, row := range left.Rows {
		var matches []int
		if !row[lk].IsMissing() {
			matches = index[row[lk].key()]
		}
		if len(matches) == 0 {
			out := make([]Value, 0, len(columns))
			out = append(out, row...)
			out = append(out, make([]Value, len(rightCols))...)
			rows = append(rows, out)
			continue
		}
		for _, m := range matches {
			out := make([]Value, 0, len(columns))
			out = append(out, row...)
			for _, i := range rightCols {
				out = append(out, right.Rows[m][i])
			}
			rows = append(rows, out)
		}
	}

	return &Table{Name: left.Name, Columns: columns, Rows: rows}, nil
}
