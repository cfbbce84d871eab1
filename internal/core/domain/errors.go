package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotSupported indicates the source kind does not implement
	// the requested operation, such as issue listing on a
	// filesystem source.
	ErrNotSupported = errors.New("operation not supported by source")

	// ErrNotConfigured indicates a required settings section is
	// missing, such as an empty backend endpoint.
	ErrNotConfigured = errors.New("not configured")

	// ErrInvalidInventory indicates an inventory file that could
	// not be parsed into items.
	ErrInvalidInventory = errors.New("invalid inventory")

	// ErrNoSyncState indicates an incremental run was requested for
	// a source that has never completed a full run.
	ErrNoSyncState = errors.New("no sync state recorded")
)

// ValidationError marks an item rejected before any network call.
// Rejected items are counted in the run summary, never uploaded.
type ValidationError struct {
	// URI is the rejected item.
	URI string

	// Reason is a short human-readable cause.
	Reason string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.URI, e.Reason)
}

// FetchError wraps a failed remote operation against the backend, a
// repository host or a WebDAV share.
type FetchError struct {
	// Op names the failed operation, such as "upload" or "diff".
	Op string

	// URL is the request URL with credentials masked.
	URL string

	// StatusCode is the HTTP status, 0 for transport failures.
	StatusCode int

	// Err is the underlying error, nil when the status alone
	// describes the failure.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// StateError marks an inconsistency in run state, such as a diff
// response missing URIs or a corrupt sync-state record. State errors
// are fatal for the run and never advance the sync cursor.
type StateError struct {
	// Source is the source identifier the state belongs to.
	Source string

	// Reason is a short human-readable cause.
	Reason string
}

// Error implements the error interface.
func (e StateError) Error() string {
	return fmt.Sprintf("state error for %s: %s", e.Source, e.Reason)
}

// IsAuthorization returns true if err is a remote failure with a 401
// or 403 status. Authorization failures abort the run immediately
// instead of being counted per item.
func IsAuthorization(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.StatusCode == http.StatusUnauthorized || fe.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if err is a remote failure with a 404
// status.
func IsNotFound(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.StatusCode == http.StatusNotFound
}

// IsValidation returns true if err is an item validation rejection.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
