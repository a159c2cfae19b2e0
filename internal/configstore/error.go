package configstore

import "errors"

// Error definitions for the configstore package.
var (
	ErrNotFound = errors.New("configuration not found")
)
