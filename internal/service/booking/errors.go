package booking

import (
	"errors"
	"fmt"

	"bookly/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

type ConflictReason string

const (
	ReasonDateBlocked          ConflictReason = "date_blocked"
	ReasonSlotNotAvailable     ConflictReason = "slot_not_available"
	ReasonAlreadyBooked        ConflictReason = "already_booked"
	ReasonWindowOverlap        ConflictReason = "window_overlap"
	ReasonInvalidTransition    ConflictReason = "invalid_transition"
	ReasonIdempotencyKeyReused ConflictReason = "idempotency_key_reused"
)

var conflictMessages = map[ConflictReason]string{
	ReasonDateBlocked:          "The provider is not available on that date.",
	ReasonSlotNotAvailable:     "That time is outside the provider's opening hours.",
	ReasonAlreadyBooked:        "That time has already been booked. Pick a different slot.",
	ReasonWindowOverlap:        "This availability window overlaps an existing one for the same day.",
	ReasonInvalidTransition:    "The booking cannot move to that status.",
	ReasonIdempotencyKeyReused: "This request key was already used for a different booking. Try again.",
}

// ConflictError is a request that is well formed but clashes with the
// current schedule or booking state.
type ConflictError struct {
	Reason ConflictReason
	detail string
}

func (e *ConflictError) Error() string {
	if e.detail != "" {
		return e.detail
	}
	if msg, ok := conflictMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

func conflict(reason ConflictReason) error {
	return &ConflictError{Reason: reason}
}

func conflictf(reason ConflictReason, format string, args ...any) error {
	return &ConflictError{Reason: reason, detail: fmt.Sprintf(format, args...)}
}

type AuthorizationError struct {
	msg string
}

func (e *AuthorizationError) Error() string {
	return e.msg
}

func forbidden(msg string) error {
	return &AuthorizationError{msg: msg}
}

// StorageError wraps failures the caller cannot act on. Its message is meant
// for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "booking: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrapStorage passes typed service errors through and wraps anything else.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		vErr *ValidationError
		nErr *NotFoundError
		cErr *ConflictError
		aErr *AuthorizationError
		sErr *StorageError
	)
	if errors.As(err, &vErr) || errors.As(err, &nErr) || errors.As(err, &cErr) || errors.As(err, &aErr) || errors.As(err, &sErr) {
		return err
	}
	if errors.Is(err, store.ErrSlotTaken) {
		return conflict(ReasonAlreadyBooked)
	}
	if errors.Is(err, store.ErrWindowOverlap) {
		return conflict(ReasonWindowOverlap)
	}
	if errors.Is(err, store.ErrIdempotencyConflict) {
		return conflict(ReasonIdempotencyKeyReused)
	}
	return &StorageError{Op: op, Err: err}
}
