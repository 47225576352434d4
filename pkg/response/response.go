// Package response centralizes HTTP response shapes and helpers.
// Every endpoint answers with the same envelope so the front-end has one parsing path.
package response

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"

	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// ErrorKind is the short, client-facing error label carried in the envelope.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "Not Found"
	KindServerError          ErrorKind = "Server Error"
	KindBadRequest           ErrorKind = "Bad Request"
	KindUnauthorized         ErrorKind = "Unauthorized"
	KindNotAuthenticated     ErrorKind = "Not Authenticated"
	KindForbidden            ErrorKind = "Forbidden"
	KindValidation           ErrorKind = "Validation Error"
	KindTooManyRequests      ErrorKind = "Too Many Requests"
	KindInvalidCredentials   ErrorKind = "Invalid Credentials"
	KindUnsupportedMediaType ErrorKind = "Unsupported Media Type"
	KindIncorrectLogin       ErrorKind = "Incorrect username or password"
)

// Envelope is the canonical body of every non-paginated response.
type Envelope struct {
	Data         any         `json:"data"`
	Error        *ErrorKind  `json:"error"`
	IsError      bool        `json:"isError"`
	ErrorDetails null.String `json:"errorDetails"`
}

// Paginated is the envelope of listing endpoints: the page of items plus its pagination block.
type Paginated[T any] struct {
	Data         []T             `json:"data"`
	Pagination   pagination.Info `json:"pagination"`
	Error        *ErrorKind      `json:"error"`
	IsError      bool            `json:"isError"`
	ErrorDetails null.String     `json:"errorDetails"`
}

type meta struct {
	kind    *ErrorKind
	details null.String
}

// Option decorates an envelope with error information.
type Option func(*meta)

// WithError marks the envelope as failed with kind.
func WithError(kind ErrorKind) Option {
	return func(m *meta) {
		k := kind
		m.kind = &k
	}
}

// WithDetails attaches a human readable explanation. Empty details stay null.
func WithDetails(details string) Option {
	return func(m *meta) {
		if details != "" {
			m.details = null.StringFrom(details)
		}
	}
}

func collect(opts []Option) meta {
	var m meta
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Build wraps data into an envelope. isError always mirrors whether an error kind was set,
// and missing data (nil or a nil slice) is reported as an empty list, never null.
func Build(data any, opts ...Option) Envelope {
	m := collect(opts)
	return Envelope{
		Data:         emptyIfNil(data),
		Error:        m.kind,
		IsError:      m.kind != nil,
		ErrorDetails: m.details,
	}
}

// BuildPaginated wraps a page of items and its pagination block.
func BuildPaginated[T any](data []T, info pagination.Info, opts ...Option) Paginated[T] {
	m := collect(opts)
	if data == nil {
		data = []T{}
	}
	return Paginated[T]{
		Data:         data,
		Pagination:   info,
		Error:        m.kind,
		IsError:      m.kind != nil,
		ErrorDetails: m.details,
	}
}

func emptyIfNil(data any) any {
	if data == nil {
		return []any{}
	}
	v := reflect.ValueOf(data)
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.IsNil() {
		return []any{}
	}
	return data
}

// StatusFor picks the HTTP status that accompanies an envelope error kind.
func StatusFor(kind *ErrorKind) int {
	if kind == nil {
		return http.StatusOK
	}
	switch *kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAuthenticated, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Status returns the HTTP status matching the envelope.
func (p Paginated[T]) Status() int { return StatusFor(p.Error) }

// Status returns the HTTP status matching the envelope.
func (e Envelope) Status() int { return StatusFor(e.Error) }

// kinded errors decide their own envelope kind; service errors implement it.
type kinded interface {
	ErrorKind() ErrorKind
}

// detailed errors contribute the errorDetails string.
type detailed interface {
	ErrorDetails() string
}

// MapError converts a domain / infrastructure error into an HTTP status and envelope.
// Unknown errors are reported as a bare Bad Request so internals never leak.
func MapError(err error) (int, Envelope) {
	if err == nil {
		return http.StatusOK, Build(nil)
	}

	var opts []Option
	var k kinded
	switch {
	case errors.As(err, &k):
		opts = append(opts, WithError(k.ErrorKind()))
		var d detailed
		if errors.As(err, &d) {
			opts = append(opts, WithDetails(d.ErrorDetails()))
		}
	case errors.Is(err, repository.ErrNotFound):
		opts = append(opts, WithError(KindNotFound))
	case errors.Is(err, repository.ErrAlreadyExists):
		opts = append(opts, WithError(KindBadRequest), WithDetails("already exists"))
	case errors.Is(err, repository.ErrConflict):
		opts = append(opts, WithError(KindBadRequest), WithDetails("conflicts with existing data"))
	case errors.Is(err, repository.ErrUnsupportedField):
		opts = append(opts, WithError(KindValidation), WithDetails(err.Error()))
	default:
		opts = append(opts, WithError(KindBadRequest))
	}

	env := Build(nil, opts...)
	return env.Status(), env
}

// WriteError writes an error envelope and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, env := MapError(err)
	c.AbortWithStatusJSON(status, env)
}

// WriteData writes a successful envelope around data.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, Build(data))
}

// WriteEnvelope writes a prepared envelope with the status it implies.
func WriteEnvelope(c *gin.Context, env Envelope) {
	c.JSON(env.Status(), env)
}

// WritePaginated writes a listing envelope with the status it implies.
func WritePaginated[T any](c *gin.Context, page Paginated[T]) {
	c.JSON(page.Status(), page)
}
