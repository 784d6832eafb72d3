package bolt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/google/uuid"
)

// keyPrefix precedes every stored key, bbolt does not accept empty keys
const keyPrefix byte = 'k'

// keyCodec converts keys to bytes whose lexicographic order equals the key order
type keyCodec[K comparable] struct {
	encode func(k K) []byte
	decode func(b []byte) (K, error)
}

func newKeyCodec[K comparable](kind db.KeyKind) keyCodec[K] {
	var enc, dec any
	switch kind {
	case db.KeyText:
		enc = func(k string) []byte { return append([]byte{keyPrefix}, k...) }
		dec = func(b []byte) (string, error) { return string(b), nil }
	case db.KeyInt32:
		enc = func(k int32) []byte {
			return binary.BigEndian.AppendUint32([]byte{keyPrefix}, uint32(k)^(1<<31))
		}
		dec = func(b []byte) (int32, error) {
			if len(b) != 4 {
				return 0, fmt.Errorf("invalid int32 key length %d", len(b))
			}
			return int32(binary.BigEndian.Uint32(b) ^ (1 << 31)), nil
		}
	case db.KeyInt64:
		enc = func(k int64) []byte {
			return binary.BigEndian.AppendUint64([]byte{keyPrefix}, uint64(k)^(1<<63))
		}
		dec = func(b []byte) (int64, error) {
			if len(b) != 8 {
				return 0, fmt.Errorf("invalid int64 key length %d", len(b))
			}
			return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
		}
	case db.KeyFloat32:
		enc = func(k float32) []byte {
			if k == 0 {
				k = 0 // -0 and +0 are the same key
			}
			bits := math.Float32bits(k)
			if bits>>31 == 1 {
				bits = ^bits
			} else {
				bits ^= 1 << 31
			}
			return binary.BigEndian.AppendUint32([]byte{keyPrefix}, bits)
		}
		dec = func(b []byte) (float32, error) {
			if len(b) != 4 {
				return 0, fmt.Errorf("invalid float32 key length %d", len(b))
			}
			bits := binary.BigEndian.Uint32(b)
			if bits>>31 == 1 {
				bits ^= 1 << 31
			} else {
				bits = ^bits
			}
			return math.Float32frombits(bits), nil
		}
	case db.KeyFloat64:
		enc = func(k float64) []byte {
			if k == 0 {
				k = 0
			}
			bits := math.Float64bits(k)
			if bits>>63 == 1 {
				bits = ^bits
			} else {
				bits ^= 1 << 63
			}
			return binary.BigEndian.AppendUint64([]byte{keyPrefix}, bits)
		}
		dec = func(b []byte) (float64, error) {
			if len(b) != 8 {
				return 0, fmt.Errorf("invalid float64 key length %d", len(b))
			}
			bits := binary.BigEndian.Uint64(b)
			if bits>>63 == 1 {
				bits ^= 1 << 63
			} else {
				bits = ^bits
			}
			return math.Float64frombits(bits), nil
		}
	case db.KeyUUID:
		enc = func(k uuid.UUID) []byte { return append([]byte{keyPrefix}, k[:]...) }
		dec = func(b []byte) (uuid.UUID, error) { return uuid.FromBytes(b) }
	}

	encode := enc.(func(K) []byte)
	decode := dec.(func([]byte) (K, error))
	return keyCodec[K]{
		encode: encode,
		decode: func(b []byte) (K, error) {
			if len(b) == 0 || b[0] != keyPrefix {
				var zero K
				return zero, fmt.Errorf("invalid stored key %x", b)
			}
			return decode(b[1:])
		},
	}
}
