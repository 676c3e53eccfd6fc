package hypermorph

import (
	"fmt"
	"strconv"
	"time"
)

// CastValue canonicalizes a raw batch value to the Go representation of the
// attribute's declared value type. Loaders produce whatever their format
// hands them (parquet rows carry int64/float64/string/bool, delimited text
// carries strings), so every value entering a column passes through here
// once, at construction time. A nil input stays nil and marks a missing
// value.
func CastValue(t ValueType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, x)
			}
			return b, nil
		}
	case TypeInt8:
		if n, ok := toInt64(v); ok {
			if n < -128 || n > 127 {
				return nil, fmt.Errorf("%w: %d overflows int8", ErrTypeMismatch, n)
			}
			return int8(n), nil
		}
	case TypeInt16:
		if n, ok := toInt64(v); ok {
			if n < -32768 || n > 32767 {
				return nil, fmt.Errorf("%w: %d overflows int16", ErrTypeMismatch, n)
			}
			return int16(n), nil
		}
	case TypeInt32:
		if n, ok := toInt64(v); ok {
			if n < -2147483648 || n > 2147483647 {
				return nil, fmt.Errorf("%w: %d overflows int32", ErrTypeMismatch, n)
			}
			return int32(n), nil
		}
	case TypeInt64, TypeTimestamp:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case TypeDate:
		switch x := v.(type) {
		case string:
			day, err := time.Parse("2006-01-02", x)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a date", ErrTypeMismatch, x)
			}
			return day.Unix() / 86400, nil
		default:
			if n, ok := toInt64(v); ok {
				return n, nil
			}
		}
	case TypeFloat32:
		if f, ok := toFloat64(v); ok {
			return float32(f), nil
		}
	case TypeFloat64:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot cast %T value %v to %s", ErrTypeMismatch, v, v, t)
}

// toInt64 converts any integer representation, including numeric strings,
// to int64.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// toFloat64 converts any numeric representation, including numeric strings,
// to float64.
func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// NumericValue converts a canonical typed value to float64 for comparisons.
// The second return is false for non-numeric values.
func NumericValue(v any) (float64, bool) {
	return toFloat64(v)
}

// TextValue renders a canonical typed value for text exports.
func TextValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
