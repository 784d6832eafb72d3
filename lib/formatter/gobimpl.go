package formatter

import (
	"bytes"
	"encoding/gob"
)

// NewGOBFormatter creates a new formatter using Go's binary gob format
func NewGOBFormatter() Formatter {
	return &gobFormatterImpl{}
}

// gobFormatterImpl implements the Formatter interface using gob encoding.
// Every value is encoded with its own encoder, so each blob carries its type information.
type gobFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see formatter.Formatter)
// --------------------------------------------------------------------------

func (g gobFormatterImpl) ToStorage(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobFormatterImpl) ToObject(data []byte, out any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return dec.Decode(out)
}

func (g gobFormatterImpl) Name() string {
	return "gob"
}
