package repository

import (
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// EventRecord mirrors the schema of the events table.  It is used
// internally by the repositories when constructing or scanning rows.
// Business logic should use the model.Event type instead.
type EventRecord struct {
	ID             uint64
	Title          string
	Description    *string
	Location       *string
	Date           time.Time
	SeatCount      uint32
	AvailableSeats uint32
	Version        uint64
	OrganizerID    uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ToModel converts the record to the business-facing event type.
func (e *EventRecord) ToModel() *model.Event {
	return &model.Event{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Date:           e.Date.UTC(),
		SeatCount:      e.SeatCount,
		AvailableSeats: e.AvailableSeats,
		Version:        e.Version,
		OrganizerID:    e.OrganizerID,
		CreatedAt:      e.CreatedAt.UTC(),
		UpdatedAt:      e.UpdatedAt.UTC(),
	}
}

// BookingRecord mirrors the bookings table.
type BookingRecord struct {
	ID        uint64
	UserID    uint64
	EventID   uint64
	SeatCount uint32
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToModel converts the record to the business-facing booking type.
func (b *BookingRecord) ToModel() *model.Booking {
	return &model.Booking{
		ID:        b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		SeatCount: b.SeatCount,
		Status:    b.Status,
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	}
}
