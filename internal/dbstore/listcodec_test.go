package dbstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGArrayRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"strings", []any{"a", "b"}, []any{"a", "b"}},
		{"ints", []any{1, 2, 3}, []any{int64(1), int64(2), int64(3)}},
		{"mixed", []any{"x", 2, true}, []any{"x", int64(2), true}},
		{"quoting", []any{`he said "hi"`, `back\slash`, "with,comma"}, []any{`he said "hi"`, `back\slash`, "with,comma"}},
		{"empty", []any{}, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := encodeList(DriverPostgres, tt.in)
			require.NoError(t, err)

			decoded, err := decodeList(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded)
		})
	}
}

func TestJSONListRoundTrip(t *testing.T) {
	encoded, err := encodeList(DriverSQLite, []any{"a", 1, true})
	require.NoError(t, err)
	assert.Equal(t, `["a",1,true]`, encoded)

	decoded, err := decodeList(encoded)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", float64(1), true}, decoded)
}

func TestDecodeListBadInput(t *testing.T) {
	_, err := decodeList(`{"unterminated`)
	assert.Error(t, err)

	_, err = decodeList(`not json`)
	assert.Error(t, err)
}
