package db

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Numeric Kinds
// --------------------------------------------------------------------------

// NumericKind is the closed set of value types an IncrementingDict supports.
type NumericKind uint8

const (
	NumInt16 NumericKind = iota + 1
	NumInt32
	NumInt64
	NumUint8
	NumUint16
	NumUint32
	NumUint64
	NumFloat32
	NumFloat64
	NumDecimal // decimal.Decimal
)

func (n NumericKind) String() string {
	switch n {
	case NumInt16:
		return "int16"
	case NumInt32:
		return "int32"
	case NumInt64:
		return "int64"
	case NumUint8:
		return "uint8"
	case NumUint16:
		return "uint16"
	case NumUint32:
		return "uint32"
	case NumUint64:
		return "uint64"
	case NumFloat32:
		return "float32"
	case NumFloat64:
		return "float64"
	case NumDecimal:
		return "decimal"
	default:
		return ""
	}
}

// NumericKindOf resolves the NumericKind of V.
// ErrUnsupportedValueType is returned for every other type.
func NumericKindOf[V any]() (NumericKind, error) {
	var zero V
	switch any(zero).(type) {
	case int16:
		return NumInt16, nil
	case int32:
		return NumInt32, nil
	case int64:
		return NumInt64, nil
	case uint8:
		return NumUint8, nil
	case uint16:
		return NumUint16, nil
	case uint32:
		return NumUint32, nil
	case uint64:
		return NumUint64, nil
	case float32:
		return NumFloat32, nil
	case float64:
		return NumFloat64, nil
	case decimal.Decimal:
		return NumDecimal, nil
	default:
		return 0, NewError(ErrCUnsupportedValueType, "", "", "unsupported value type "+typeName[V]())
	}
}

// Adder returns the addition of V's numeric kind. Integer kinds wrap around on overflow.
func Adder[V any]() (func(a, b V) V, error) {
	kind, err := NumericKindOf[V]()
	if err != nil {
		return nil, err
	}

	var fn any
	switch kind {
	case NumInt16:
		fn = func(a, b int16) int16 { return a + b }
	case NumInt32:
		fn = func(a, b int32) int32 { return a + b }
	case NumInt64:
		fn = func(a, b int64) int64 { return a + b }
	case NumUint8:
		fn = func(a, b uint8) uint8 { return a + b }
	case NumUint16:
		fn = func(a, b uint16) uint16 { return a + b }
	case NumUint32:
		fn = func(a, b uint32) uint32 { return a + b }
	case NumUint64:
		fn = func(a, b uint64) uint64 { return a + b }
	case NumFloat32:
		fn = func(a, b float32) float32 { return a + b }
	case NumFloat64:
		fn = func(a, b float64) float64 { return a + b }
	case NumDecimal:
		fn = func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }
	}
	return fn.(func(a, b V) V), nil
}

// typeName returns a printable name of T
func typeName[T any]() string {
	return fmt.Sprintf("%T", *new(T))
}
