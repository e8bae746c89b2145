package db

import (
	"encoding/json"
	"fmt"
)

// StringList encodes a string slice for a JSONB column. A nil slice is stored as [].
func StringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(payload), nil
}

// ParseStringList decodes a JSONB string array. NULL and empty input decode to an empty slice.
func ParseStringList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return out, nil
}
