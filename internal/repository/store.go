package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// Store bundles the event and booking repositories behind the
// transaction-owning interface the booking engine consumes.  Each
// mutating method runs a single transaction so the capacity change and
// the booking row always commit or roll back together — no observer
// ever sees one without the other.
type Store struct {
	db       *sql.DB
	events   *EventRepo
	bookings *BookingRepo
}

// NewStore constructs a Store over the shared DB handle.
func NewStore(db *sql.DB, events *EventRepo, bookings *BookingRepo) *Store {
	return &Store{db: db, events: events, bookings: bookings}
}

// GetEvent returns the current event state, including the version the
// engine conditions its update on.
func (s *Store) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	rec, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return rec.ToModel(), nil
}

// HasConfirmedBooking reports whether a CONFIRMED booking exists for
// the (user, event) pair.
func (s *Store) HasConfirmedBooking(ctx context.Context, userID, eventID uint64) (bool, error) {
	return s.bookings.HasConfirmed(ctx, userID, eventID)
}

// ReserveSeats attempts one reservation: the conditional decrement
// gated on expectedVersion, then the CONFIRMED booking row, both in one
// transaction.  A zero-row update means the version moved between the
// caller's read and this write; the transaction is rolled back and
// (nil, false, nil) is returned so the caller can re-read and retry.
// ErrDuplicateBooking from the uniqueness backstop is passed through.
func (s *Store) ReserveSeats(ctx context.Context, userID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.events.ReserveSeatsTx(ctx, tx, eventID, seatCount, expectedVersion)
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		return nil, false, nil
	}

	rec := &BookingRecord{UserID: userID, EventID: eventID, SeatCount: seatCount}
	if err := s.bookings.CreateTx(ctx, tx, rec); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return rec.ToModel(), true, nil
}

// GetBookingForUser loads a booking owned by the user.
func (s *Store) GetBookingForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	rec, err := s.bookings.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	return rec.ToModel(), nil
}

// RestoreSeats is the cancellation mutation: the conditional increment
// gated on expectedVersion plus the CONFIRMED→CANCELLED status flip,
// both in one transaction.  (nil, false, nil) signals a version
// conflict exactly as in ReserveSeats; ErrAlreadyCancelled reports a
// concurrent cancel that won the status flip first.
func (s *Store) RestoreSeats(ctx context.Context, bookingID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.events.RestoreSeatsTx(ctx, tx, eventID, seatCount, expectedVersion)
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		return nil, false, nil
	}

	flipped, err := s.bookings.CancelTx(ctx, tx, bookingID)
	if err != nil {
		return nil, false, err
	}
	if flipped == 0 {
		return nil, false, ErrAlreadyCancelled
	}

	var b BookingRecord
	sel := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, bookingID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SeatCount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return b.ToModel(), true, nil
}

// ListBookingsByUser returns the user's bookings newest first.
func (s *Store) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	recs, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(recs))
	for i := range recs {
		out = append(out, *recs[i].ToModel())
	}
	return out, nil
}
