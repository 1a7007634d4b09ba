// Package apperror defines the failure kinds every store operation reports.
// Boundaries translate a Kind into their own status codes.
package apperror

import "errors"

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Forbidden
	Conflict
	Auth
	// Unavailable marks an external service failure the caller may retry.
	Unavailable
)

func (k Kind) String() string {
	return [...]string{"internal", "validation", "not_found", "forbidden", "conflict", "auth", "unavailable"}[k]
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation  = &Error{Kind: Validation, Message: "validation failed"}
	ErrNotFound    = &Error{Kind: NotFound, Message: "not found"}
	ErrForbidden   = &Error{Kind: Forbidden, Message: "forbidden"}
	ErrConflict    = &Error{Kind: Conflict, Message: "conflict"}
	ErrAuth        = &Error{Kind: Auth, Message: "authentication failed"}
	ErrUnavailable = &Error{Kind: Unavailable, Message: "service unavailable"}
)

func Invalid(msg string) error { return &Error{Kind: Validation, Message: msg} }
func Missing(msg string) error { return &Error{Kind: NotFound, Message: msg} }
func Denied(msg string) error { return &Error{Kind: Forbidden, Message: msg} }
func Duplicate(msg string) error { return &Error{Kind: Conflict, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: Auth, Message: msg} }
func Unreachable(msg string) error { return &Error{Kind: Unavailable, Message: msg} }

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Retryable reports whether the caller may retry the operation unchanged.
func Retryable(err error) bool {
	return KindOf(err) == Unavailable
}
