package formatter

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackFormatter creates a new formatter using msgpack encoding
func NewMsgpackFormatter() Formatter {
	return &msgpackFormatterImpl{}
}

// msgpackFormatterImpl implements the Formatter interface using msgpack encoding.
// Map keys are sorted, so equal values always produce equal bytes.
type msgpackFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see formatter.Formatter)
// --------------------------------------------------------------------------

func (m msgpackFormatterImpl) ToStorage(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T using msgpack: %w", v, err)
	}
	return buf.Bytes(), nil
}

func (m msgpackFormatterImpl) ToObject(data []byte, out any) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode msgpack into %T: %w", out, err)
	}
	return nil
}

func (m msgpackFormatterImpl) Name() string {
	return "msgpack"
}
