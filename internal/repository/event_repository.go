package repository

import (
	"context"
	"database/sql"
	"errors"
)

// EventRepo manages persistence for events.  The events table carries
// the seat inventory: available_seats together with the version column
// form the only mutable shared state per event, and they may only be
// changed through the conditional update methods below.  Plain UPDATEs
// of available_seats are forbidden everywhere else.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB {
	return r.db
}

const eventColumns = `id, title, description, location, date, seat_count, available_seats, version, organizer_id, created_at, updated_at`

// Create inserts a new event with full availability and version 1, then
// reads the row back to populate DB-default fields.
func (r *EventRepo) Create(ctx context.Context, e *EventRecord) error {
	const q = `INSERT INTO events (title, description, location, date, seat_count, available_seats, organizer_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.Location, e.Date, e.SeatCount, e.SeatCount, e.OrganizerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	sel := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
		&e.SeatCount, &e.AvailableSeats, &e.Version, &e.OrganizerID,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

// GetByID retrieves an event by its ID.  It returns ErrEventNotFound
// when there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*EventRecord, error) {
	return scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// GetByIDTx is GetByID inside the caller's transaction.  The booking
// engine re-reads state through it on every retry so each attempt
// observes a fresh version.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*EventRecord, error) {
	return scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

func scanEvent(row *sql.Row) (*EventRecord, error) {
	var e EventRecord
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
		&e.SeatCount, &e.AvailableSeats, &e.Version, &e.OrganizerID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ReserveSeatsTx performs the atomic conditional decrement that is the
// heart of the booking protocol: it subtracts seatCount from
// available_seats and bumps version by 1, but only if the version still
// matches the value the caller read and enough seats remain at the
// moment of the update.  It returns the number of rows affected; zero
// means another transaction intervened between read and write (a
// version conflict, not a data error) and the caller must re-read and
// retry.  The CHECK constraints on the table are a backstop only — in
// correct operation this predicate is what prevents overselling.
func (r *EventRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatCount uint32, expectedVersion uint64) (int64, error) {
	const q = `UPDATE events
	           SET available_seats = available_seats - ?, version = version + 1
	           WHERE id = ? AND version = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, seatCount, eventID, expectedVersion, seatCount)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RestoreSeatsTx is the mirror mutation used on cancellation: it adds
// seatCount back to available_seats with the same version-gated
// predicate, capped by seat_count so a double restore can never push
// availability past total capacity.
func (r *EventRepo) RestoreSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatCount uint32, expectedVersion uint64) (int64, error) {
	const q = `UPDATE events
	           SET available_seats = available_seats + ?, version = version + 1
	           WHERE id = ? AND version = ? AND available_seats + ? <= seat_count`
	res, err := tx.ExecContext(ctx, q, seatCount, eventID, expectedVersion, seatCount)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// List returns one page of events ordered by date ascending, plus the
// total row count for pagination.  When upcomingOnly is set, events in
// the past are excluded.
func (r *EventRepo) List(ctx context.Context, page, pageSize int, upcomingOnly bool) ([]EventRecord, int, error) {
	where := ""
	if upcomingOnly {
		where = " WHERE date >= UTC_TIMESTAMP()"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY date ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]EventRecord, 0, pageSize)
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
			&e.SeatCount, &e.AvailableSeats, &e.Version, &e.OrganizerID,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
