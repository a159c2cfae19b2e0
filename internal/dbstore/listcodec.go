package dbstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// List-typed column values are stored as a Postgres array literal on
// Postgres and as JSON text elsewhere. Both encodings preserve element
// order and scalar values, so a stored list reads back as the same
// sequence.

func encodeList(driver Driver, values []any) (string, error) {
	if driver == DriverPostgres {
		return encodePGArray(values), nil
	}

	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("dbstore: failed to encode list value: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return parsePGArray(raw)
	}

	var out []any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("dbstore: failed to decode list value: %w", err)
	}
	return out, nil
}

func encodePGArray(values []any) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch x := v.(type) {
		case string:
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(x, `\`, `\\`), `"`, `\"`))
			sb.WriteByte('"')
		default:
			sb.WriteString(fmt.Sprintf("%v", x))
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func parsePGArray(raw string) ([]any, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
	if body == "" {
		return []any{}, nil
	}

	out := []any{}
	var elem strings.Builder
	inQuotes := false
	quoted := false
	escaped := false

	flush := func() {
		s := elem.String()
		elem.Reset()
		if quoted {
			out = append(out, s)
		} else {
			out = append(out, parseScalar(s))
		}
		quoted = false
	}

	for _, r := range body {
		switch {
		case escaped:
			elem.WriteRune(r)
			escaped = false
		case r == '\\' && inQuotes:
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case r == ',' && !inQuotes:
			flush()
		default:
			elem.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("dbstore: unterminated quote in array literal %q", raw)
	}
	flush()

	return out, nil
}

// parseScalar interprets an unquoted array element as the most specific
// scalar it reads as.
func parseScalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// asList reports whether a record value is list-typed and normalizes it
// to []any.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}
