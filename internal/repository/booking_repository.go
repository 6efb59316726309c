package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Rows are never
// deleted: cancellation flips the status column so the history of a
// (user, event) pair stays queryable.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, event_id, seat_count, status, created_at, updated_at`

// CreateTx inserts a CONFIRMED booking within the scope of an existing
// transaction and reads the row back to populate timestamps.  The
// caller must commit or roll back.  A violation of the uniqueness
// backstop on (user_id, event_id, CONFIRMED) is reported as
// ErrDuplicateBooking so two racing requests cannot both book.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *BookingRecord) error {
	const q = `INSERT INTO bookings (user_id, event_id, seat_count, status) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.EventID, b.SeatCount, model.BookingConfirmed)
	if err != nil {
		// MySQL error 1062: duplicate entry for the unique key.
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateBooking
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	sel := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SeatCount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
}

// HasConfirmed reports whether the user already holds a CONFIRMED
// booking for the event.  The booking engine calls this before
// entering its retry loop (duplicate-booking guard).
func (r *BookingRepo) HasConfirmed(ctx context.Context, userID, eventID uint64) (bool, error) {
	const q = `SELECT 1 FROM bookings WHERE user_id = ? AND event_id = ? AND status = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, userID, eventID, model.BookingConfirmed).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByIDForUser returns a booking owned by the given user.  Ownership
// is enforced in the query, so a booking belonging to someone else is
// reported as ErrBookingNotFound rather than forbidden — callers learn
// nothing about other users' bookings.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingRecord, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`
	var b BookingRecord
	err := r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SeatCount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CancelTx marks a CONFIRMED booking as CANCELLED inside the caller's
// transaction.  The status predicate makes the flip idempotent at the
// store level: a second cancel affects zero rows.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int64, error) {
	const q = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.BookingCancelled, bookingID, model.BookingConfirmed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns all bookings for the given user ordered by
// creation time descending (newest first).  When no bookings exist an
// empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingRecord, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]BookingRecord, 0)
	for rows.Next() {
		var b BookingRecord
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.SeatCount, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
