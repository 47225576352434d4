package service

import (
	"errors"
	"strings"

	"github.com/maxviazov/projecthub-service/pkg/response"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string                 { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error                 { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError          { return e.fields }
func (e *invalidInputError) ErrorKind() response.ErrorKind { return response.KindValidation }

// ErrorDetails renders the field errors as "field: message; field: message".
func (e *invalidInputError) ErrorDetails() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInputError lets the transport layer report malformed parameters the same way.
func NewInvalidInputError(fe []FieldError) error {
	if err := newInvalidInput(fe); err != nil {
		return err
	}
	return &invalidInputError{}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	var v *invalidInputError
	if errors.As(err, &v) {
		return v.Fields()
	}
	return nil
}

// Error is a use-case failure that knows its envelope kind and, optionally, the
// human readable details shown to the client.
type Error struct {
	Kind    response.ErrorKind
	Details string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error                 { return e.Err }
func (e *Error) ErrorKind() response.ErrorKind { return e.Kind }
func (e *Error) ErrorDetails() string          { return e.Details }

var (
	// ErrUnauthenticated is returned for missing, invalid or revoked session tokens.
	ErrUnauthenticated = &Error{Kind: response.KindNotAuthenticated}
	// ErrForbidden is returned when the caller's company does not own the record.
	ErrForbidden = &Error{Kind: response.KindForbidden}
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = &Error{Kind: response.KindIncorrectLogin}
)

func badRequest(details string) error {
	return &Error{Kind: response.KindBadRequest, Details: details}
}

func notFound(details string, cause error) error {
	return &Error{Kind: response.KindNotFound, Details: details, Err: cause}
}

func unauthorized(details string) error {
	return &Error{Kind: response.KindUnauthorized, Details: details}
}
