package formatter

import (
	"encoding/json"
)

// NewJSONFormatter creates a new formatter using json encoding
func NewJSONFormatter() Formatter {
	return &jsonFormatterImpl{}
}

// jsonFormatterImpl implements the Formatter interface using json encoding
type jsonFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see formatter.Formatter)
// --------------------------------------------------------------------------

func (j jsonFormatterImpl) ToStorage(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonFormatterImpl) ToObject(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func (j jsonFormatterImpl) Name() string {
	return "json"
}
