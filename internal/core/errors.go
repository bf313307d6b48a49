package core

import (
	"errors"
	"fmt"
)

// Kind is the stable, user-visible classification of an error.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found_error"
	KindConflict   Kind = "conflict_error"
	KindForbidden  Kind = "forbidden_error"
	KindDegraded   Kind = "external_service_degraded"
	KindInternal   Kind = "internal_error"
)

// Error carries a Kind and a human-readable message. Err optionally holds the
// underlying cause, which is never shown to callers for internal errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrPlanNotFound        = &Error{Kind: KindNotFound, Message: "budget plan not found"}
	ErrCategoryNotFound    = &Error{Kind: KindNotFound, Message: "category not found in budget plan"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Message: "transaction not found"}
	ErrGoalNotFound        = &Error{Kind: KindNotFound, Message: "goal not found"}
	ErrSettingsNotFound    = &Error{Kind: KindNotFound, Message: "settings not found"}

	ErrPlanExists    = &Error{Kind: KindConflict, Message: "budget plan already exists"}
	ErrSettingsExist = &Error{Kind: KindConflict, Message: "settings already exist, use update instead"}
	ErrStaleWrite    = &Error{Kind: KindConflict, Message: "record was modified concurrently"}
	ErrForbidden     = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrRateDegraded  = &Error{Kind: KindDegraded, Message: "exchange rate lookup failed"}
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or infrastructure failure.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// PublicMessage returns the message safe to show to an end user.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Message
}
