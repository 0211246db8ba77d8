package errors

import (
	"fmt"
	"net/http"
	"runtime"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error into one of the response policies.
type Kind int

const (
	KindUnknown Kind = iota
	KindForbidden
	KindUnauthenticated
	KindRouteNotFound
	KindQuery
	KindDatabaseDriver
	KindMethodNotAllowed
	KindBadRequest
	KindRecordNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRouteNotFound:
		return "route_not_found"
	case KindQuery:
		return "query"
	case KindDatabaseDriver:
		return "database_driver"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindBadRequest:
		return "bad_request"
	case KindRecordNotFound:
		return "record_not_found"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// APIError is an error raised by the application with a known kind.
type APIError struct {
	Kind    Kind
	Message string
	// Model names the entity of a record-not-found error.
	Model string
	// Fields holds field-keyed messages of a validation error.
	Fields map[string][]string
	// Code is the HTTP status of an otherwise unclassified error.
	Code int

	cause error
	stack pkgerrors.StackTrace
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status carried by the error, 0 when unset.
func (e *APIError) StatusCode() int {
	return e.Code
}

// StackTrace prefers the stack of the wrapped error.
func (e *APIError) StackTrace() pkgerrors.StackTrace {
	var tracer interface{ StackTrace() pkgerrors.StackTrace }
	if e.cause != nil && pkgerrors.As(e.cause, &tracer) {
		return tracer.StackTrace()
	}
	return e.stack
}

// New creates an APIError of the given kind.
func New(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message, stack: callers()}
}

// Wrap classifies err as kind. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &APIError{Kind: kind, Message: message, cause: err, stack: callers()}
}

// WithStatus creates an unclassified error answered with the given HTTP status.
func WithStatus(code int, message string) *APIError {
	return &APIError{Kind: KindUnknown, Message: message, Code: code, stack: callers()}
}

// NotFound reports a missing record of model.
func NotFound(model string) *APIError {
	return &APIError{
		Kind:    KindRecordNotFound,
		Message: fmt.Sprintf("%s not found", model),
		Model:   model,
		stack:   callers(),
	}
}

// Validation reports field-keyed validation failures.
func Validation(fields map[string][]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: "The given data was invalid.",
		Fields:  fields,
		stack:   callers(),
	}
}

func BadRequest(message string) *APIError {
	if message == "" {
		message = "Bad request"
	}
	return &APIError{Kind: KindBadRequest, Message: message, stack: callers()}
}

func Unauthenticated(message string) *APIError {
	if message == "" {
		message = "Unauthenticated."
	}
	return &APIError{Kind: KindUnauthenticated, Message: message, stack: callers()}
}

func Forbidden(message string) *APIError {
	if message == "" {
		message = "This action is unauthorized."
	}
	return &APIError{Kind: KindForbidden, Message: message, stack: callers()}
}

// RouteNotFound reports a request that matched no route.
func RouteNotFound(method, path string) *APIError {
	return &APIError{
		Kind:    KindRouteNotFound,
		Message: fmt.Sprintf("The route %s could not be found.", path),
		stack:   callers(),
	}
}

// MethodNotAllowed reports a route that exists under other methods.
func MethodNotAllowed(method, path string) *APIError {
	return &APIError{
		Kind:    KindMethodNotAllowed,
		Message: fmt.Sprintf("The %s method is not supported for route %s.", method, path),
		Code:    http.StatusMethodNotAllowed,
		stack:   callers(),
	}
}

// callers records the stack of the constructor's caller.
func callers() pkgerrors.StackTrace {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])

	st := make(pkgerrors.StackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = pkgerrors.Frame(pcs[i])
	}
	return st
}
