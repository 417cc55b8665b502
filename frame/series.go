package frame

import (
	"math"
)

// FillForward replaces each missing value with the nearest preceding present value.
func FillForward(values []Value) []Value {
	out := make([]Value, len(values))
	last := Null
	for i, v := range values {
		if v.IsMissing() {
			out[i] = last
			continue
		}
		out[i] = v
		last = v
	}
	return out
}

// FillBackward replaces each missing value with the nearest following present value.
func FillBackward(values []Value) []Value {
	out := make([]Value, len(values))
	next := Null
	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]
		if v.IsMissing() {
			out[i] = next
			continue
		}
		out[i] = v
		next = v
	}
	return out
}

// FillForwardBackward applies FillForward then FillBackward to the named
// columns, or to every column when none are named. Absent names are ignored.
func (t *Table) FillForwardBackward(columns ...string) *Table {
	if len(columns) == 0 {
		columns = t.Columns
	}
	out := t.Clone()
	for _, c := range columns {
		idx := out.Index(c)
		if idx < 0 {
			continue
		}
		values, _ := out.Column(c)
		filled := FillBackward(FillForward(values))
		for i, row := range out.Rows {
			row[idx] = filled[i]
		}
	}
	return out
}

// RollingMean is the mean over a trailing window of at most size
// observations. Windows shorter than size at the start of the series still
// produce a value; missing observations are skipped.
func RollingMean(values []Value, size int) []Value {
	out := make([]Value, len(values))
	for i := range values {
		sum, n := 0.0, 0
		for _, v := range values[max(0, i-size+1) : i+1] {
			if v.Kind == Number {
				sum += v.Num
				n++
			}
		}
		if n == 0 {
			out[i] = Null
			continue
		}
		out[i] = NumberValue(sum / float64(n))
	}
	return out
}

// RollingStd is the sample standard deviation over a trailing window with the
// same partial-window rule as RollingMean. A window with fewer than two
// observations yields Null.
func RollingStd(values []Value, size int) []Value {
	out := make([]Value, len(values))
	for i := range values {
		var window []float64
		for _, v := range values[max(0, i-size+1) : i+1] {
			if v.Kind == Number {
				window = append(window, v.Num)
			}
		}
		if len(window) < 2 {
			out[i] = Null
			continue
		}
		mean := 0.0
		for _, x := range window {
			mean += x
		}
		mean /= float64(len(window))
		ss := 0.0
		for _, x := range window {
			ss += (x - mean) * (x - mean)
		}
		out[i] = NumberValue(math.Sqrt(ss / float64(len(window)-1)))
	}
	return out
}

// PctChange is the relative change versus the previous observation. The first
// observation, and any pair involving a missing or zero base, is Null.
func PctChange(values []Value) []Value {
	out := make([]Value, len(values))
	for i := range values {
		if i == 0 {
			out[i] = Null
			continue
		}
		prev, cur := values[i-1], values[i]
		if prev.Kind != Number || cur.Kind != Number || prev.Num == 0 {
			out[i] = Null
			continue
		}
		out[i] = NumberValue(cur.Num/prev.Num - 1)
	}
	return out
}

// MapColumn applies fn to every cell of one column.
func (t *Table) MapColumn(column string, fn func(Value) Value) (*Table, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		values[i] = fn(v)
	}
	return t.WithColumn(column, values)
}
