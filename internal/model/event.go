package model

import "time"

// Event represents a bookable event with a fixed seat inventory.
// AvailableSeats is denormalized so that listing and booking never
// need a COUNT over bookings; Version is the optimistic-locking
// counter that orders every capacity mutation.  Both fields may only
// change together through the conditional update in the repository —
// a successful mutation decrements (or restores) AvailableSeats and
// bumps Version by exactly 1 in the same statement.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – event title.
//  Description    – optional free-form description.
//  Location       – optional venue name.
//  Date           – when the event takes place (UTC).
//  SeatCount      – total capacity, immutable after creation (> 0).
//  AvailableSeats – remaining capacity (0 ≤ available ≤ seat_count).
//  Version        – starts at 1, incremented on every capacity change.
//  OrganizerID    – user who created the event.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Event struct {
	ID             uint64    `json:"id"`              // events.id
	Title          string    `json:"title"`           // events.title
	Description    *string   `json:"description"`     // events.description (nullable)
	Location       *string   `json:"location"`        // events.location (nullable)
	Date           time.Time `json:"date"`            // events.date
	SeatCount      uint32    `json:"seat_count"`      // events.seat_count
	AvailableSeats uint32    `json:"available_seats"` // events.available_seats
	Version        uint64    `json:"-"`               // events.version
	OrganizerID    uint64    `json:"organizer_id"`    // events.organizer_id
	CreatedAt      time.Time `json:"created_at"`      // events.created_at
	UpdatedAt      time.Time `json:"updated_at"`      // events.updated_at
}
