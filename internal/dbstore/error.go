package dbstore

import (
	"errors"
	"strings"
)

// ErrEmptyCondition rejects condition-scoped writes with no conditions,
// preventing accidental full-table deletion.
var ErrEmptyCondition = errors.New("dbstore: empty condition set")

// ErrBadIdentifier rejects table or column names outside the safe
// identifier alphabet.
var ErrBadIdentifier = errors.New("dbstore: invalid identifier")

// ConnErrorKind classifies a connection-level failure.
type ConnErrorKind string

const (
	ConnRefused          ConnErrorKind = "connection_refused"
	ConnAuthFailed       ConnErrorKind = "auth_failed"
	ConnDatabaseNotFound ConnErrorKind = "database_not_found"
	ConnHostNotFound     ConnErrorKind = "host_not_found"
	ConnTimeout          ConnErrorKind = "timeout"
	ConnSSL              ConnErrorKind = "ssl_error"
	ConnPermissionDenied ConnErrorKind = "permission_denied"
	ConnUnknown          ConnErrorKind = "unknown"
)

// ConnError is a classified connection failure with remediation hints
// suitable for surfacing to an operator.
type ConnError struct {
	Kind  ConnErrorKind
	Hints []string
	Err   error
}

func (e *ConnError) Error() string {
	return "dbstore: " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

const unknownErrLimit = 200

// ClassifyErr pattern-matches a driver error into the ConnError
// taxonomy. Driver errors carry no stable codes across engines, so the
// match is on the message text. Unrecognized errors come back as
// ConnUnknown with the message truncated.
func ClassifyErr(err error) *ConnError {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused"):
		return &ConnError{Kind: ConnRefused, Err: err, Hints: []string{
			"check that the database server is running",
			"check the host and port in the connection URL",
		}}
	case strings.Contains(msg, "password authentication failed"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "authentication failed"):
		return &ConnError{Kind: ConnAuthFailed, Err: err, Hints: []string{
			"check the username and password in the connection URL",
		}}
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "database"),
		strings.Contains(msg, "unknown database"):
		return &ConnError{Kind: ConnDatabaseNotFound, Err: err, Hints: []string{
			"create the database or fix the database name in the connection URL",
		}}
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "name or service not known"),
		strings.Contains(msg, "could not translate host name"):
		return &ConnError{Kind: ConnHostNotFound, Err: err, Hints: []string{
			"check the hostname in the connection URL and DNS resolution",
		}}
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return &ConnError{Kind: ConnTimeout, Err: err, Hints: []string{
			"check network connectivity and firewall rules",
			"raise the connection timeout if the server is slow to respond",
		}}
	case strings.Contains(msg, "ssl"), strings.Contains(msg, "tls"):
		return &ConnError{Kind: ConnSSL, Err: err, Hints: []string{
			"check the server TLS configuration and the client sslmode",
		}}
	case strings.Contains(msg, "permission denied"):
		return &ConnError{Kind: ConnPermissionDenied, Err: err, Hints: []string{
			"check the database user grants",
		}}
	default:
		truncated := err.Error()
		if len(truncated) > unknownErrLimit {
			truncated = truncated[:unknownErrLimit] + "..."
		}
		return &ConnError{Kind: ConnUnknown, Err: errors.New(truncated)}
	}
}
