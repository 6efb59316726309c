// Package service implements the seat-reservation engine: the
// optimistic-locking booking protocol, its bounded retry policy, and
// the cancellation path that restores capacity.  The engine owns no
// SQL; it drives a Store whose conditional-update methods are the only
// way capacity ever changes.
package service

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/event-ticket-booking/internal/admission"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// Rejection kinds surfaced by the engine.  InsufficientSeats and
// ContentionExhausted are deliberately distinct: the first means the
// seats are genuinely gone ("sold out"), the second means the retry
// bound was reached while seats may still remain ("try again").
var (
	ErrInvalidSeatCount    = errors.New("seat count must be at least 1")
	ErrDuplicateBooking    = errors.New("user already has a confirmed booking for this event")
	ErrInsufficientSeats   = errors.New("not enough seats available")
	ErrContentionExhausted = errors.New("booking failed due to high demand")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")
)

// DefaultMaxAttempts bounds the retry loop when no explicit bound is
// configured.  Three attempts matches the observed conflict rate under
// normal load; flash-sale deployments tune BOOKING_MAX_ATTEMPTS up and
// accept the extra wasted re-reads.
const DefaultMaxAttempts = 3

// Store is the durable-store contract the engine consumes.  Both
// mutating methods are version-gated: they return ok=false, with no
// side effects, when the event's version no longer matches
// expectedVersion, and commit the capacity change together with the
// booking-row change atomically when it does.
type Store interface {
	GetEvent(ctx context.Context, eventID uint64) (*model.Event, error)
	HasConfirmedBooking(ctx context.Context, userID, eventID uint64) (bool, error)
	ReserveSeats(ctx context.Context, userID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error)
	GetBookingForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error)
	RestoreSeats(ctx context.Context, bookingID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// BookingService coordinates the admission gate and the store.
type BookingService struct {
	store       Store
	gate        admission.Strategy
	maxAttempts int
}

// NewBookingService wires the engine.  maxAttempts values below 1 fall
// back to DefaultMaxAttempts.
func NewBookingService(store Store, gate admission.Strategy, maxAttempts int) *BookingService {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if gate == nil {
		gate = admission.Optimistic{}
	}
	return &BookingService{store: store, gate: gate, maxAttempts: maxAttempts}
}

// BookSeats reserves seatCount seats on an event for a user.
//
// The protocol: reject duplicates before touching capacity, ask the
// admission gate whether to proceed, then loop up to the retry bound —
// read fresh state, reject on a real shortage, and attempt the
// conditional decrement.  A zero-row update is a version conflict, not
// an error; the next iteration re-reads and tries again.  Exhausting
// the bound returns ErrContentionExhausted so callers can tell "try
// again later" from "sold out".
func (s *BookingService) BookSeats(ctx context.Context, userID, eventID uint64, seatCount uint32) (*model.Booking, error) {
	if seatCount < 1 {
		return nil, ErrInvalidSeatCount
	}

	exists, err := s.store.HasConfirmedBooking(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	if !s.gate.Admit(ctx, eventID, seatCount) {
		log.Printf("booking: event=%d user=%d rejected at admission gate", eventID, userID)
		return nil, ErrInsufficientSeats
	}
	// The gate counted seatCount as reserved-but-unconfirmed; give it
	// back whatever happens next.  On success Sync below overwrites the
	// available shadow with the post-decrement truth anyway.
	defer s.gate.Release(ctx, eventID, seatCount)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		event, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}

		if event.AvailableSeats < seatCount {
			// Real shortage observed in fresh state: terminal, no retry.
			log.Printf("booking: event=%d user=%d requested=%d available=%d rejected",
				eventID, userID, seatCount, event.AvailableSeats)
			return nil, ErrInsufficientSeats
		}

		booking, ok, err := s.store.ReserveSeats(ctx, userID, eventID, seatCount, event.Version)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateBooking) {
				// Uniqueness backstop caught a race the pre-check missed.
				return nil, ErrDuplicateBooking
			}
			return nil, err
		}
		if !ok {
			log.Printf("booking: event=%d user=%d version conflict on attempt %d", eventID, userID, attempt)
			continue
		}

		s.gate.Sync(ctx, eventID, event.AvailableSeats-seatCount)
		log.Printf("booking: created booking=%d event=%d user=%d seats=%d attempt=%d",
			booking.ID, eventID, userID, seatCount, attempt)
		return booking, nil
	}

	log.Printf("booking: event=%d user=%d exhausted %d attempts", eventID, userID, s.maxAttempts)
	return nil, ErrContentionExhausted
}

// CancelBooking cancels a CONFIRMED booking owned by the user and
// restores its seats to the event.  Restoration uses the same
// version-gated primitive and the same retry bound as booking, so
// every capacity mutation — in either direction — advances the version
// by exactly 1.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	booking, err := s.store.GetBookingForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingConfirmed {
		return nil, ErrAlreadyCancelled
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		event, err := s.store.GetEvent(ctx, booking.EventID)
		if err != nil {
			return nil, err
		}

		cancelled, ok, err := s.store.RestoreSeats(ctx, booking.ID, booking.EventID, booking.SeatCount, event.Version)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyCancelled) {
				return nil, ErrAlreadyCancelled
			}
			return nil, err
		}
		if !ok {
			log.Printf("booking: cancel booking=%d version conflict on attempt %d", bookingID, attempt)
			continue
		}

		s.gate.Sync(ctx, booking.EventID, event.AvailableSeats+booking.SeatCount)
		log.Printf("booking: cancelled booking=%d event=%d user=%d seats_restored=%d",
			bookingID, booking.EventID, userID, booking.SeatCount)
		return cancelled, nil
	}

	log.Printf("booking: cancel booking=%d exhausted %d attempts", bookingID, s.maxAttempts)
	return nil, ErrContentionExhausted
}

// ListBookings returns the user's bookings newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.store.ListBookingsByUser(ctx, userID)
}
