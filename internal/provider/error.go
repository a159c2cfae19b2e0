package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error definitions for the provider package.
var (
	ErrNotInitialized    = errors.New("provider resources were never acquired")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// UnsupportedProviderError reports a request for a provider kind the
// factory does not know, naming the known kinds.
type UnsupportedProviderError struct {
	Kind  string
	Known []string
}

func (e *UnsupportedProviderError) Error() string {
	known := append([]string(nil), e.Known...)
	sort.Strings(known)
	return fmt.Sprintf("unsupported provider %q (known: %s)", e.Kind, strings.Join(known, ", "))
}

// ProcessingError wraps a failure that occurred while executing a
// provider operation.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
