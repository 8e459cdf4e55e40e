package format

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned by New for object kinds without a driver.
	ErrUnknownKind = errors.New("unknown Kolab object kind")
	// ErrUnsupportedVersion is returned when a document was written by a
	// newer format version than this package understands.
	ErrUnsupportedVersion = errors.New("unsupported Kolab format version")
	// ErrInvalidRoot is returned when the document root does not match the
	// object kind.
	ErrInvalidRoot = errors.New("invalid Kolab root element")
)

// MissingValueError reports a required field without a value.
type MissingValueError struct {
	Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("Kolab XML: missing value for field %q", e.Name)
}

// ParseError reports a field whose XML content could not be converted.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Kolab XML: parse error: %v", e.Err)
	}
	return fmt.Sprintf("Kolab XML: parse error in field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EncodeError reports a value that could not be written to XML.
type EncodeError struct {
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("Kolab XML: cannot encode field %q: %v", e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// RecurrenceError reports an inconsistent recurrence definition.
type RecurrenceError struct {
	Reason string
}

func (e *RecurrenceError) Error() string {
	return "recurrence tag error: " + e.Reason
}

func recurrenceErrorf(format string, args ...any) error {
	return &RecurrenceError{Reason: fmt.Sprintf(format, args...)}
}

// isFieldError reports whether err already names the failing field.
func isFieldError(err error) bool {
	var parseErr *ParseError
	var encodeErr *EncodeError
	var missingErr *MissingValueError
	return errors.As(err, &parseErr) || errors.As(err, &encodeErr) || errors.As(err, &missingErr)
}
