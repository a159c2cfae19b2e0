package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Config resolves a provider client request. Fields holds exactly the
// settings that determine the behavioral identity of the underlying
// resource (model name, device, credential); changing any of them
// changes the fingerprint and forces a rebuild. Extra carries
// non-identity knobs (binary paths, timeouts) passed through to the
// builder without affecting the fingerprint.
type Config struct {
	Provider string
	Fields   map[string]string
	Extra    map[string]any
}

// Fingerprint derives a stable digest of the provider kind and every
// identity field. It is a pure function: equal configs always produce
// equal fingerprints, and any identity-field change produces a
// different one.
func (c Config) Fingerprint() string {
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(c.Provider))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(c.Fields[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
