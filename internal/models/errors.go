package models

import (
	"errors"
	"fmt"
)

// Domain errors shared by the schedule, table and recorder packages.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("subject not found")

	ErrInvalidSubjectID   = errors.New("subject id is required")
	ErrInvalidSubjectName = errors.New("subject name is required")
	ErrInvalidCPF         = errors.New("cpf is required")
	ErrInvalidFrequency   = fmt.Errorf("%w: verify frequency must not be negative", ErrInvalidArgument)
)

// TransportError wraps a failure reported by the subject service or the
// network between us and it.
type TransportError struct {
	// Op names the remote operation (fetch, record_visit).
	Op string

	// StatusCode is the HTTP status when the service answered, 0 otherwise.
	StatusCode int

	// Code is the service error code when the body carried one.
	Code string

	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s: status %d (%s): %v", e.Op, e.StatusCode, e.Code, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
