package frame

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"time"
)

// FromAny converts a value scanned from a database driver into a Value.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case string:
		return StringValue(x)
	case []byte:
		return StringValue(string(x))
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int8:
		return NumberValue(float64(x))
	case int16:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case uint8:
		return NumberValue(float64(x))
	case uint16:
		return NumberValue(float64(x))
	case uint32:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case *big.Int:
		if x == nil {
			return Null
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return NumberValue(f)
	case time.Time:
		return DateValue(x)
	case interface{ Float64() float64 }:
		return NumberValue(x.Float64())
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return Null
		}
		if _, same := inner.(driver.Valuer); same {
			return ParseCell(fmt.Sprint(inner))
		}
		return FromAny(inner)
	}
	return ParseCell(fmt.Sprint(v))
}
