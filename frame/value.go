package frame

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	Missing Kind = iota
	String
	Number
	Date
	Bool
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.999999999-07:00"
)

// dateLayouts are tried in order when a cell is read from CSV.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	DateTimeLayout,
	time.RFC3339,
	time.RFC3339Nano,
}

// missingTokens are the textual markers written for missing cells by common dataframe tools.
var missingTokens = map[string]bool{
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"N/A":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"<NA>": true,
	"NaT":  true,
}

// Value is a single table cell.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
	Flag bool
}

// Null is the missing value.
var Null = Value{}

func StringValue(s string) Value {
	return Value{Kind: String, Str: s}
}

// NumberValue returns a Number, or Null for NaN and infinities.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return Value{Kind: Number, Num: f}
}

func DateValue(t time.Time) Value {
	return Value{Kind: Date, Time: t}
}

func BoolValue(b bool) Value {
	return Value{Kind: Bool, Flag: b}
}

func (v Value) IsMissing() bool {
	return v.Kind == Missing
}

// Equal reports whether two values hold the same kind and content.
// Dates compare by instant.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Missing:
		return true
	case String:
		return v.Str == o.Str
	case Number:
		return v.Num == o.Num
	case Date:
		return v.Time.Equal(o.Time)
	case Bool:
		return v.Flag == o.Flag
	}
	return false
}

// String formats the value the way it is written to CSV.
func (v Value) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Date:
		return formatDate(v.Time)
	case Bool:
		if v.Flag {
			return "True"
		}
		return "False"
	}
	return ""
}

// key is a hashable identity used for de-duplication and join lookups.
func (v Value) key() string {
	switch v.Kind {
	case Date:
		return "d:" + v.Time.UTC().Format(time.RFC3339Nano)
	case Missing:
		return "m:"
	}
	return string(rune('a'+v.Kind)) + ":" + v.String()
}

func formatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

// ParseCell infers a Value from a CSV field.
func ParseCell(s string) Value {
	if s == "" || missingTokens[s] {
		return Null
	}
	if strings.EqualFold(s, "true") {
		return BoolValue(true)
	}
	if strings.EqualFold(s, "false") {
		return BoolValue(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(f)
	}
	if t, ok := parseDate(s); ok {
		return DateValue(t)
	}
	return StringValue(s)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsDate coerces a value to a Date. Strings are parsed with the accepted
// layouts; anything that cannot be read as a calendar date becomes Null.
func AsDate(v Value) Value {
	switch v.Kind {
	case Date:
		return v
	case String:
		if t, ok := parseDate(strings.TrimSpace(v.Str)); ok {
			return DateValue(t)
		}
	}
	return Null
}

// CalendarDay maps a Date to midnight UTC of the calendar day in the value's own zone.
func CalendarDay(v Value) Value {
	d := AsDate(v)
	if d.IsMissing() {
		return Null
	}
	y, m, day := d.Time.Date()
	return DateValue(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// less orders values of the same kind; missing sorts after everything.
func less(a, b Value) bool {
	if a.Kind == Missing {
		return false
	}
	if b.Kind == Missing {
		return true
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	switch a.Kind {
	case Number:
		return a.Num < b.Num
	case Date:
		return a.Time.Before(b.Time)
	case Bool:
		return !a.Flag && b.Flag
	}
	return a.Str < b.Str
}
