package store

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")

	// ErrSlotTaken means another non-cancelled appointment already holds the
	// same provider, date and time.
	ErrSlotTaken = errors.New("appointment slot taken")

	// ErrWindowOverlap means an active availability window for the same
	// provider and weekday overlaps the one being written.
	ErrWindowOverlap = errors.New("availability window overlap")
)
