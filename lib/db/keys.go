package db

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Key Kinds
// --------------------------------------------------------------------------

// KeyKind is the closed set of key types a dictionary can be ordered by.
type KeyKind uint8

const (
	KeyText    KeyKind = iota + 1 // string, ordered by bytes
	KeyInt32                      // int32, ordered numerically
	KeyInt64                      // int64, ordered numerically
	KeyFloat32                    // float32, ordered numerically
	KeyFloat64                    // float64, ordered numerically
	KeyUUID                       // uuid.UUID, ordered by its 16 raw bytes
)

func (k KeyKind) String() string {
	switch k {
	case KeyText:
		return "text"
	case KeyInt32:
		return "int32"
	case KeyInt64:
		return "int64"
	case KeyFloat32:
		return "float32"
	case KeyFloat64:
		return "float64"
	case KeyUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// KeyKindOf resolves the KeyKind of K. Backends call it once at construction.
func KeyKindOf[K comparable]() (KeyKind, error) {
	var zero K
	switch any(zero).(type) {
	case string:
		return KeyText, nil
	case int32:
		return KeyInt32, nil
	case int64:
		return KeyInt64, nil
	case float32:
		return KeyFloat32, nil
	case float64:
		return KeyFloat64, nil
	case uuid.UUID:
		return KeyUUID, nil
	default:
		return 0, NewError(ErrCUnsupportedKeyType, "", "", "unsupported key type "+typeName[K]())
	}
}

// Comparator returns the ordering function for K. The result is negative if a < b,
// zero if a == b and positive if a > b.
//
// Note: Floats are compared with cmp.Compare, which orders NaN before every other value.
func Comparator[K comparable]() (func(a, b K) int, error) {
	var zero K
	var fn any
	switch any(zero).(type) {
	case string:
		fn = strings.Compare
	case int32:
		fn = cmp.Compare[int32]
	case int64:
		fn = cmp.Compare[int64]
	case float32:
		fn = cmp.Compare[float32]
	case float64:
		fn = cmp.Compare[float64]
	case uuid.UUID:
		fn = func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }
	default:
		return nil, NewError(ErrCUnsupportedKeyType, "", "", "unsupported key type "+typeName[K]())
	}
	return fn.(func(a, b K) int), nil
}
