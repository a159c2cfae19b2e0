package configstore

import (
	"encoding/json"
	"strings"
)

// ValueType is the declared type of a configuration value.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
	TypeList   ValueType = "list"
	TypeDict   ValueType = "dict"
)

// Entry is a stored configuration setting with its metadata. EnvName is
// the primary storage key and must be globally unique; Path is a dotted
// identifier whose first segment is the default category.
type Entry struct {
	Value    any       `json:"value"`
	Type     ValueType `json:"type"`
	Category string    `json:"category"`
	Path     string    `json:"path"`
	EnvName  string    `json:"env_name"`
}

// LastSegment returns the final dotted segment of the entry's path.
func (e *Entry) LastSegment() string {
	parts := strings.Split(e.Path, ".")
	return parts[len(parts)-1]
}

// Decode normalizes the JSON-decoded value to the entry's declared
// type. JSON numbers arrive as float64; int entries are converted back.
func (e *Entry) Decode() any {
	switch e.Type {
	case TypeInt:
		if f, ok := e.Value.(float64); ok {
			return int(f)
		}
	case TypeBool:
		if b, ok := e.Value.(bool); ok {
			return b
		}
	}
	return e.Value
}

func (e *Entry) marshal() ([]byte, error) {
	return json.Marshal(e)
}

func unmarshalEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
