// AngelaMos | 2026
// jsoncol.go

package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// ScanJSON decodes a jsonb column into dst. NULL leaves dst untouched.
func ScanJSON(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan json: unsupported type %T", src)
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, dst)
}

// JSONValue encodes v for a jsonb column.
func JSONValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

// StringList is a jsonb array of strings.
type StringList []string

func (l *StringList) Scan(src any) error {
	var out []string
	if err := ScanJSON(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return JSONValue([]string(l))
}

func (l StringList) Contains(s string) bool {
	return slices.Contains(l, s)
}

// JSONMap is a free-form jsonb object.
type JSONMap map[string]any

func (m *JSONMap) Scan(src any) error {
	out := map[string]any{}
	if err := ScanJSON(src, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return JSONValue(map[string]any(m))
}
