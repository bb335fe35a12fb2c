package typeconv

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// NULL converts to the zero value in every converter below; pointer targets
// keep NULL as nil instead.

func integer[T constraints.Integer](raw any) (T, error) {
	var zero T
	switch v := raw.(type) {
	case nil:
		return zero, nil
	case int64:
		return fitSigned[T](v)
	case int32:
		return fitSigned[T](int64(v))
	case int16:
		return fitSigned[T](int64(v))
	case int8:
		return fitSigned[T](int64(v))
	case int:
		return fitSigned[T](int64(v))
	case uint64:
		return fitUnsigned[T](v)
	case uint32:
		return fitUnsigned[T](uint64(v))
	case uint16:
		return fitUnsigned[T](uint64(v))
	case uint8:
		return fitUnsigned[T](uint64(v))
	case uint:
		return fitUnsigned[T](uint64(v))
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return zero, fmt.Errorf("%v is not an integer: %w", v, ErrUnsupported)
		}
		return fitSigned[T](int64(v))
	case *big.Int:
		if v.IsInt64() {
			return fitSigned[T](v.Int64())
		}
		if v.IsUint64() {
			return fitUnsigned[T](v.Uint64())
		}
		return zero, fmt.Errorf("%v overflows %T: %w", v, zero, ErrUnsupported)
	case []byte:
		return parseInteger[T](string(v))
	case string:
		return parseInteger[T](v)
	default:
		return zero, unsupported(raw, fmt.Sprintf("%T", zero))
	}
}

func parseInteger[T constraints.Integer](s string) (T, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fitSigned[T](n)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to parse %q as %T: %w", s, zero, err)
	}
	return fitUnsigned[T](n)
}

func fitSigned[T constraints.Integer](v int64) (T, error) {
	out := T(v)
	if int64(out) != v || (v < 0) != (out < 0) {
		return 0, fmt.Errorf("%d overflows %T: %w", v, out, ErrUnsupported)
	}
	return out, nil
}

func fitUnsigned[T constraints.Integer](v uint64) (T, error) {
	out := T(v)
	if out < 0 || uint64(out) != v {
		return 0, fmt.Errorf("%d overflows %T: %w", v, out, ErrUnsupported)
	}
	return out, nil
}

func float[T constraints.Float](raw any) (T, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		return fitFloat[T](v)
	case float32:
		return T(v), nil
	case int64:
		return T(v), nil
	case int32:
		return T(v), nil
	case int16:
		return T(v), nil
	case int8:
		return T(v), nil
	case int:
		return T(v), nil
	case uint64:
		return T(v), nil
	case uint32:
		return T(v), nil
	case uint16:
		return T(v), nil
	case uint8:
		return T(v), nil
	case uint:
		return T(v), nil
	case []byte:
		return parseFloat[T](string(v))
	case string:
		return parseFloat[T](v)
	default:
		var zero T
		return zero, unsupported(raw, fmt.Sprintf("%T", zero))
	}
}

// fitFloat rejects finite values that become infinite in T.
func fitFloat[T constraints.Float](v float64) (T, error) {
	out := T(v)
	if !math.IsInf(v, 0) && math.IsInf(float64(out), 0) {
		return 0, fmt.Errorf("%v overflows %T: %w", v, out, ErrUnsupported)
	}
	return out, nil
}

func parseFloat[T constraints.Float](s string) (T, error) {
	var zero T
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return zero, fmt.Errorf("failed to parse %q as %T: %w", s, zero, err)
	}
	return fitFloat[T](f)
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int16:
		return v != 0, nil
	case int8:
		return v != 0, nil
	case int:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case uint32:
		return v != 0, nil
	case uint16:
		return v != 0, nil
	case uint8:
		return v != 0, nil
	case uint:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	default:
		return false, unsupported(raw, "bool")
	}
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	case int64, int32, int16, int8, int, uint64, uint32, uint16, uint8, uint, float64, float32, bool:
		return fmt.Sprint(v), nil
	default:
		return "", unsupported(raw, "string")
	}
}

func toBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.Clone(v), nil
	case string:
		return []byte(v), nil
	default:
		return nil, unsupported(raw, "[]byte")
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	default:
		return time.Time{}, unsupported(raw, "time.Time")
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse %q as time: %w", s, ErrUnsupported)
}

// passThrough serves the empty interface. Byte slices are copied because
// drivers may reuse them.
func passThrough(raw any) (any, error) {
	if b, ok := raw.([]byte); ok {
		return bytes.Clone(b), nil
	}
	return raw, nil
}
