package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStable(t *testing.T) {
	c := Config{
		Provider: "whisper",
		Fields: map[string]string{
			"model":   "openai/whisper-small",
			"device":  "cuda",
			"api_key": "secret",
		},
	}

	assert.Equal(t, c.Fingerprint(), c.Fingerprint())
}

func TestFingerprintIgnoresFieldOrder(t *testing.T) {
	a := Config{Provider: "whisper", Fields: map[string]string{"model": "m", "device": "cpu"}}
	b := Config{Provider: "whisper", Fields: map[string]string{"device": "cpu", "model": "m"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintChangesPerField(t *testing.T) {
	base := Config{
		Provider: "whisper",
		Fields:   map[string]string{"model": "m", "device": "cpu", "api_key": "k"},
	}

	for field := range base.Fields {
		changed := Config{Provider: base.Provider, Fields: map[string]string{}}
		for k, v := range base.Fields {
			changed.Fields[k] = v
		}
		changed.Fields[field] = "other"

		assert.NotEqual(t, base.Fingerprint(), changed.Fingerprint(), "changing %s must change the fingerprint", field)
	}
}

func TestFingerprintChangesWithProvider(t *testing.T) {
	a := Config{Provider: "whisper", Fields: map[string]string{"model": "m"}}
	b := Config{Provider: "zonos", Fields: map[string]string{"model": "m"}}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintIgnoresExtra(t *testing.T) {
	a := Config{Provider: "piper", Fields: map[string]string{"model": "m"}}
	b := Config{Provider: "piper", Fields: map[string]string{"model": "m"}, Extra: map[string]any{"bin": "/usr/bin/piper"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Key/value concatenation must not collide across boundaries.
	a := Config{Provider: "p", Fields: map[string]string{"ab": "c"}}
	b := Config{Provider: "p", Fields: map[string]string{"a": "bc"}}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
