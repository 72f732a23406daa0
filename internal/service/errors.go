package service

import "errors"

// Sentinel errors returned by the reservation service.  Callers match them
// with errors.Is; most are wrapped with a human readable detail.
var (
	ErrInvalidTime      = errors.New("invalid reservation time")
	ErrInvalidPartySize = errors.New("invalid party size")
	ErrCapacityExceeded = errors.New("restaurant capacity exceeded")
	ErrNoTableAvailable = errors.New("no table available")
	ErrInvalidState     = errors.New("invalid reservation state")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrConcurrentUpdate is returned by Tx.UpdateReservation when the row
	// version no longer matches.
	ErrConcurrentUpdate = errors.New("reservation was modified concurrently")

	// ErrDuplicateNumber is returned by Tx.InsertReservation when the
	// generated reservation number already exists.
	ErrDuplicateNumber = errors.New("duplicate reservation number")
)
