// Package repository defines sentinel errors shared across repositories.
// Higher layers use them with errors.Is to distinguish failure kinds
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrEventNotFound indicates that no event row matched the requested ID.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound indicates that no booking exists with the requested
// ID for the requesting user.  Ownership is enforced in the query, so a
// foreign booking is indistinguishable from a missing one.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateBooking is returned when the bookings uniqueness backstop
// fires: a CONFIRMED booking for the same (user, event) pair already
// exists.  The service layer checks for duplicates before attempting a
// reservation, so hitting this error means two requests raced.
var ErrDuplicateBooking = errors.New("duplicate booking")

// ErrAlreadyCancelled is returned when cancelling a booking that is not
// in CONFIRMED status.  Cancelling twice is a caller error, not a no-op
// success.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")
