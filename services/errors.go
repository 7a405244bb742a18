package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a local, recoverable input problem such as a missing
	// selection or an empty header label. Nothing is mutated.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a catalog id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrIndexOutOfRange is returned for row positions outside the store.
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrLocked is returned when deleting an accepted quotation.
	ErrLocked = errors.New("quotation is locked")
)

// FormatError reports a submitted field whose value could not be parsed.
type FormatError struct {
	Field string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid value %q for field %s", e.Value, e.Field)
}

// NetworkError wraps a transport failure or an unreadable response from a
// quick-add endpoint.
type NetworkError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejection carries the message of a {"status":"error"} response.
type ServerRejection struct {
	Message string
}

func (e *ServerRejection) Error() string {
	return "server rejected request: " + e.Message
}

// FieldError reports a quotation header field that failed validation on save.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return ErrValidation }
