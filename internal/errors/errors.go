package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is a domain error carrying a machine-readable code and optional
// metadata for callers and transports.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	cause    error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error wrapping an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches two domain errors by code so sentinel comparisons work across
// wrapped instances.
func (e *Error) Is(target error) bool {
	var other *Error
	if !stderrors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithMetadata returns a copy of the error with the key/value pairs attached.
// Pairs are consumed as key, value, key, value; a trailing key is ignored.
func (e *Error) WithMetadata(pairs ...string) *Error {
	if e == nil {
		return nil
	}
	cloned := *e
	cloned.Metadata = make(map[string]string, len(e.Metadata)+len(pairs)/2)
	for k, v := range e.Metadata {
		cloned.Metadata[k] = v
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		cloned.Metadata[pairs[i]] = pairs[i+1]
	}
	return &cloned
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
