package model

import "errors"

type ErrorKind string

const (
	KindInvalidLocation    ErrorKind = "InvalidLocation"
	KindMissingEvidence    ErrorKind = "MissingEvidence"
	KindSessionAlreadyOpen ErrorKind = "SessionAlreadyOpen"
	KindNoOpenSession      ErrorKind = "NoOpenSession"
	KindForbidden          ErrorKind = "Forbidden"
	KindNotAuthenticated   ErrorKind = "NotAuthenticated"
	KindInvalidDateRange   ErrorKind = "InvalidDateRange"

	// KindInternal is never carried by an *Error; it labels infrastructure
	// failures at the transport boundary.
	KindInternal ErrorKind = "Internal"
)

// Error is a caller error: the request was rejected by a business rule and
// the store was left untouched.
type Error struct {
	Kind    ErrorKind
	Message string
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind so callers can compare against the
// sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidLocation    = NewError(KindInvalidLocation, "invalid location")
	ErrMissingEvidence    = NewError(KindMissingEvidence, "photo evidence is required")
	ErrSessionAlreadyOpen = NewError(KindSessionAlreadyOpen, "already checked in, check out first")
	ErrNoOpenSession      = NewError(KindNoOpenSession, "no open session, check in first")
	ErrForbidden          = NewError(KindForbidden, "admin only")
	ErrNotAuthenticated   = NewError(KindNotAuthenticated, "authentication required")
	ErrInvalidDateRange   = NewError(KindInvalidDateRange, "invalid date range")
)

// KindOf returns the kind of a caller error, or KindInternal for anything
// else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
