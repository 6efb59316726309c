// Package queue defines message payloads exchanged over the message
// broker, the publisher for booking confirmations, and the background
// consumer that records them.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// confirmed.  It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	EventTitle  string `json:"event_title"`
	SeatCount   uint32 `json:"seat_count"`
	EventDate   string `json:"event_date"`
	ConfirmedAt string `json:"confirmed_at"`
}
