package service

import "errors"

// ErrUnavailable reports that the resolved provider client cannot serve
// requests right now.
var ErrUnavailable = errors.New("service: provider not available")
