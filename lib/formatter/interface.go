package formatter

import "fmt"

// Formatter converts domain values to the opaque bytes a backend stores and back.
// Backends never inspect the bytes.
type Formatter interface {
	// ToStorage encodes a value.
	// It returns the encoded byte array and an error if any
	ToStorage(v any) ([]byte, error)
	// ToObject decodes data into out, which must be a non-nil pointer.
	// It returns an error if any
	ToObject(data []byte, out any) error
	// Name returns the name the formatter is selected by (see ByName)
	Name() string
}

// Encode is a typed shortcut for f.ToStorage
func Encode[T any](f Formatter, v T) ([]byte, error) {
	return f.ToStorage(v)
}

// Decode is a typed shortcut for f.ToObject
func Decode[T any](f Formatter, data []byte) (T, error) {
	var v T
	err := f.ToObject(data, &v)
	return v, err
}

// Names lists the names accepted by ByName
var Names = []string{"msgpack", "json", "gob"}

// Default returns the formatter used when none is configured
func Default() Formatter {
	return NewMsgpackFormatter()
}

// ByName creates a formatter by its name
func ByName(name string) (Formatter, error) {
	switch name {
	case "", "msgpack":
		return NewMsgpackFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "gob":
		return NewGOBFormatter(), nil
	default:
		return nil, fmt.Errorf("invalid formatter %s", name)
	}
}
