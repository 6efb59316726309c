package model

import "time"

// Booking status values.  A booking is created CONFIRMED by a
// successful reservation attempt and moves to CANCELLED exactly once
// when the owner releases it.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking records a user's claim on seats for an event.  At most one
// CONFIRMED booking may exist per (user, event) pair; the database
// enforces this with a uniqueness constraint as a backstop against
// races, while the service layer rejects duplicates up front.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the booking.
//  EventID   – event being booked.
//  SeatCount – number of seats reserved (≥ 1).
//  Status    – CONFIRMED or CANCELLED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Booking struct {
	ID        uint64    `json:"id"`         // bookings.id
	UserID    uint64    `json:"user_id"`    // bookings.user_id
	EventID   uint64    `json:"event_id"`   // bookings.event_id
	SeatCount uint32    `json:"seat_count"` // bookings.seat_count
	Status    string    `json:"status"`     // bookings.status
	CreatedAt time.Time `json:"created_at"` // bookings.created_at
	UpdatedAt time.Time `json:"updated_at"` // bookings.updated_at
}
