package sqlbase

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/formatter"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Codecs (driver values <-> Go values)
// --------------------------------------------------------------------------

// codec converts a Go value to a statement argument and a scanned column back
type codec[T any] struct {
	toArg func(v T) (any, error)
	scan  func(src any) (T, error)
}

// newKeyCodec returns the codec of a key kind
func newKeyCodec[K comparable](kind db.KeyKind) codec[K] {
	var toArg, scan any
	switch kind {
	case db.KeyText:
		toArg = func(k string) (any, error) { return k, nil }
		scan = scanString
	case db.KeyInt32:
		toArg = func(k int32) (any, error) { return int64(k), nil }
		scan = scanIntN[int32]
	case db.KeyInt64:
		toArg = func(k int64) (any, error) { return k, nil }
		scan = scanInt64
	case db.KeyFloat32:
		toArg = func(k float32) (any, error) { return float64(k), nil }
		scan = func(src any) (float32, error) { f, err := scanFloat64(src); return float32(f), err }
	case db.KeyFloat64:
		toArg = func(k float64) (any, error) { return k, nil }
		scan = scanFloat64
	case db.KeyUUID:
		toArg = func(k uuid.UUID) (any, error) { b := k; return b[:], nil }
		scan = scanUUID
	}
	return codec[K]{
		toArg: toArg.(func(K) (any, error)),
		scan:  scan.(func(any) (K, error)),
	}
}

// newNumericCodec returns the codec of a numeric kind, values are bound natively
func newNumericCodec[V any](kind db.NumericKind) codec[V] {
	var toArg, scan any
	switch kind {
	case db.NumInt16:
		toArg = func(v int16) (any, error) { return int64(v), nil }
		scan = scanIntN[int16]
	case db.NumInt32:
		toArg = func(v int32) (any, error) { return int64(v), nil }
		scan = scanIntN[int32]
	case db.NumInt64:
		toArg = func(v int64) (any, error) { return v, nil }
		scan = scanInt64
	case db.NumUint8:
		toArg = func(v uint8) (any, error) { return int64(v), nil }
		scan = scanIntN[uint8]
	case db.NumUint16:
		toArg = func(v uint16) (any, error) { return int64(v), nil }
		scan = scanIntN[uint16]
	case db.NumUint32:
		toArg = func(v uint32) (any, error) { return int64(v), nil }
		scan = scanIntN[uint32]
	case db.NumUint64:
		toArg = func(v uint64) (any, error) {
			if v > math.MaxInt64 {
				return strconv.FormatUint(v, 10), nil
			}
			return int64(v), nil
		}
		scan = scanUint64
	case db.NumFloat32:
		toArg = func(v float32) (any, error) { return float64(v), nil }
		scan = func(src any) (float32, error) { f, err := scanFloat64(src); return float32(f), err }
	case db.NumFloat64:
		toArg = func(v float64) (any, error) { return v, nil }
		scan = scanFloat64
	case db.NumDecimal:
		toArg = func(v decimal.Decimal) (any, error) { return v.String(), nil }
		scan = func(src any) (decimal.Decimal, error) {
			var d decimal.Decimal
			err := d.Scan(src)
			return d, err
		}
	}
	return codec[V]{
		toArg: toArg.(func(V) (any, error)),
		scan:  scan.(func(any) (V, error)),
	}
}

// newBlobCodec returns the codec that stores values through a formatter
func newBlobCodec[V any](f formatter.Formatter) codec[V] {
	return codec[V]{
		toArg: func(v V) (any, error) {
			return f.ToStorage(v)
		},
		scan: func(src any) (V, error) {
			var v V
			switch b := src.(type) {
			case []byte:
				return v, f.ToObject(b, &v)
			case string:
				return v, f.ToObject([]byte(b), &v)
			default:
				return v, fmt.Errorf("unexpected value column type %T", src)
			}
		},
	}
}

// --------------------------------------------------------------------------
// Scan helpers
// --------------------------------------------------------------------------

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into string", src)
	}
}

func scanInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		// integral values only
		if v != math.Trunc(v) || v < -(1<<63) || v >= 1<<63 {
			return 0, fmt.Errorf("cannot scan float64 %v into int64", v)
		}
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot scan %T into int64", src)
	}
}

// scanIntN scans an integer column and fails if the value does not fit into T
func scanIntN[T int16 | int32 | uint8 | uint16 | uint32](src any) (T, error) {
	i, err := scanInt64(src)
	if err != nil {
		return 0, err
	}
	if int64(T(i)) != i {
		return 0, fmt.Errorf("value %d overflows %T", i, T(0))
	}
	return T(i), nil
}

// scanUint64 accepts exact representations only. A float64 can not hold every
// uint64 and engines fall back to REAL once an integer column overflows.
func scanUint64(src any) (uint64, error) {
	switch v := src.(type) {
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("value %d overflows uint64", v)
		}
		return uint64(v), nil
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case string:
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot scan %T into uint64", src)
	}
}

func scanFloat64(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot scan %T into float64", src)
	}
}

func scanUUID(src any) (uuid.UUID, error) {
	switch v := src.(type) {
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("cannot scan %T into uuid", src)
	}
}
