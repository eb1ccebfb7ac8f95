// Package apperr defines the error kinds shared by the products and inventory services
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindInsufficientStock
	KindDependencyUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code rendered for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-facing detail message.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and detail, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == e.Detail
}

var (
	ErrUnauthorized          = &Error{Kind: KindUnauthorized, Detail: "Invalid API key"}
	ErrProductNotFound       = &Error{Kind: KindNotFound, Detail: "Product not found"}
	ErrUpstreamNotFound      = &Error{Kind: KindNotFound, Detail: "Product not found in products service"}
	ErrInsufficientStock     = &Error{Kind: KindInsufficientStock, Detail: "insufficient stock"}
	ErrDependencyUnavailable = &Error{Kind: KindDependencyUnavailable, Detail: "products service unavailable"}
)

// Validation builds a 400 error with the given detail.
func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// Unavailable wraps a transport failure against a dependency.
func Unavailable(err error) *Error {
	return &Error{Kind: KindDependencyUnavailable, Detail: ErrDependencyUnavailable.Detail, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps err to an HTTP status code; unclassified errors are 500.
func StatusOf(err error) int {
	return KindOf(err).Status()
}

// DetailOf returns the client-facing message for err. Unclassified errors never leak internals.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return "internal server error"
}
