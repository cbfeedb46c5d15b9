package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Free text field that also accepts JSON numbers and booleans, stored as their literal text.
// Clients commonly send semester or batch numbers unquoted.
type Text string

// Text for a field that must be present. JSON false and numeric zero count as absent, so they
// fail `validate:"required"` the same way a missing or empty value does.
type RequiredText string

// Decodes a JSON scalar into its text. `truthy` is false for null, "", false and zero.
func decodeText(data []byte) (text string, truthy bool, err error) {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		return "", false, nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err = json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		return s, s != "", nil
	}

	var v any
	if err = json.Unmarshal(data, &v); err != nil {
		return "", false, err
	}

	switch val := v.(type) {
	case float64:
		return string(data), val != 0, nil
	case bool:
		return string(data), val, nil
	default:
		return "", false, fmt.Errorf("expected text, got %s", data)
	}
}

func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	text, _, err := decodeText(data)
	if err != nil {
		return err
	}

	*t = Text(text)
	return nil
}

func (t *RequiredText) UnmarshalJSON(data []byte) error {
	text, truthy, err := decodeText(data)
	if err != nil {
		return err
	}

	if !truthy {
		*t = ""
		return nil
	}

	*t = RequiredText(text)
	return nil
}
