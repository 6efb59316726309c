package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// fakeStore is an in-memory Store that reproduces the version-gated
// semantics of the SQL implementation: mutations succeed only when the
// caller's expectedVersion matches, and every success bumps the version
// by exactly 1.
type fakeStore struct {
	mu       sync.Mutex
	event    model.Event
	bookings map[uint64]*model.Booking
	nextID   uint64

	getEventCalls int
}

func newFakeStore(seatCount uint32) *fakeStore {
	return &fakeStore{
		event: model.Event{
			ID:             1,
			Title:          "go conference",
			Date:           time.Now().Add(24 * time.Hour),
			SeatCount:      seatCount,
			AvailableSeats: seatCount,
			Version:        1,
		},
		bookings: make(map[uint64]*model.Booking),
	}
}

func (f *fakeStore) GetEvent(_ context.Context, eventID uint64) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getEventCalls++
	if eventID != f.event.ID {
		return nil, repository.ErrEventNotFound
	}
	ev := f.event
	return &ev, nil
}

func (f *fakeStore) HasConfirmedBooking(_ context.Context, userID, eventID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status == model.BookingConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ReserveSeats(_ context.Context, userID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eventID != f.event.ID {
		return nil, false, repository.ErrEventNotFound
	}
	if f.event.Version != expectedVersion || f.event.AvailableSeats < seatCount {
		return nil, false, nil
	}
	for _, b := range f.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status == model.BookingConfirmed {
			return nil, false, repository.ErrDuplicateBooking
		}
	}
	f.event.AvailableSeats -= seatCount
	f.event.Version++
	f.nextID++
	b := &model.Booking{
		ID:        f.nextID,
		UserID:    userID,
		EventID:   eventID,
		SeatCount: seatCount,
		Status:    model.BookingConfirmed,
		CreatedAt: time.Now(),
	}
	f.bookings[b.ID] = b
	out := *b
	return &out, true, nil
}

func (f *fakeStore) GetBookingForUser(_ context.Context, bookingID, userID uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, repository.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeStore) RestoreSeats(_ context.Context, bookingID, eventID uint64, seatCount uint32, expectedVersion uint64) (*model.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.event.Version != expectedVersion || f.event.AvailableSeats+seatCount > f.event.SeatCount {
		return nil, false, nil
	}
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, false, repository.ErrBookingNotFound
	}
	if b.Status != model.BookingConfirmed {
		return nil, false, repository.ErrAlreadyCancelled
	}
	f.event.AvailableSeats += seatCount
	f.event.Version++
	b.Status = model.BookingCancelled
	out := *b
	return &out, true, nil
}

func (f *fakeStore) ListBookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// conflictStore reports a version conflict on every reservation attempt,
// simulating an event under hopeless contention.
type conflictStore struct {
	fakeStore
	attempts int
}

func (c *conflictStore) ReserveSeats(context.Context, uint64, uint64, uint32, uint64) (*model.Booking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	return nil, false, nil
}

// recordingGate counts gate interactions and can be told to reject.
type recordingGate struct {
	mu       sync.Mutex
	admit    bool
	admits   int
	releases int
	syncs    []uint32
}

func (g *recordingGate) Admit(context.Context, uint64, uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.admits++
	return g.admit
}

func (g *recordingGate) Release(context.Context, uint64, uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases++
}

func (g *recordingGate) Sync(_ context.Context, _ uint64, available uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.syncs = append(g.syncs, available)
}

func TestBookSeatsRejectsInvalidSeatCount(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	_, err := svc.BookSeats(context.Background(), 1, 1, 0)
	require.ErrorIs(t, err, ErrInvalidSeatCount)
	assert.Equal(t, 0, store.getEventCalls, "validation must reject before touching the store")
}

func TestBookSeatsUnknownEvent(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	_, err := svc.BookSeats(context.Background(), 1, 99, 1)
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestBookSeatsSuccess(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	booking, err := svc.BookSeats(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), booking.UserID)
	assert.Equal(t, uint32(2), booking.SeatCount)
	assert.Equal(t, model.BookingConfirmed, booking.Status)

	assert.Equal(t, uint32(8), store.event.AvailableSeats)
	assert.Equal(t, uint64(2), store.event.Version, "every successful mutation bumps version by exactly 1")
}

func TestBookSeatsRejectsDuplicate(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	_, err := svc.BookSeats(context.Background(), 7, 1, 1)
	require.NoError(t, err)

	_, err = svc.BookSeats(context.Background(), 7, 1, 1)
	require.ErrorIs(t, err, ErrDuplicateBooking)

	assert.Equal(t, uint32(9), store.event.AvailableSeats, "duplicate rejection must not touch capacity")
	assert.Equal(t, uint64(2), store.event.Version)
}

func TestBookSeatsInsufficientIsTerminal(t *testing.T) {
	store := newFakeStore(3)
	svc := NewBookingService(store, nil, 5)

	_, err := svc.BookSeats(context.Background(), 1, 1, 4)
	require.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, 1, store.getEventCalls, "a real shortage must not be retried")
	assert.Equal(t, uint64(1), store.event.Version)
}

func TestBookSeatsExhaustsBoundedRetries(t *testing.T) {
	store := &conflictStore{}
	store.event = model.Event{ID: 1, SeatCount: 10, AvailableSeats: 10, Version: 1}
	store.bookings = make(map[uint64]*model.Booking)
	svc := NewBookingService(store, nil, 4)

	_, err := svc.BookSeats(context.Background(), 1, 1, 1)
	require.ErrorIs(t, err, ErrContentionExhausted)
	assert.Equal(t, 4, store.attempts, "one reservation attempt per configured retry")
}

func TestBookSeatsGateRejection(t *testing.T) {
	store := newFakeStore(10)
	gate := &recordingGate{admit: false}
	svc := NewBookingService(store, gate, 0)

	_, err := svc.BookSeats(context.Background(), 1, 1, 2)
	require.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, 0, store.getEventCalls, "rejected requests must never reach the store")
	assert.Equal(t, 0, gate.releases, "nothing was reserved, nothing to release")
}

func TestBookSeatsGateAccounting(t *testing.T) {
	store := newFakeStore(10)
	gate := &recordingGate{admit: true}
	svc := NewBookingService(store, gate, 0)

	_, err := svc.BookSeats(context.Background(), 1, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, gate.admits)
	assert.Equal(t, 1, gate.releases, "admitted seats are always given back")
	require.Len(t, gate.syncs, 1)
	assert.Equal(t, uint32(7), gate.syncs[0], "gate syncs to the post-decrement count")
}

func TestBookSeatsConcurrentNoOversell(t *testing.T) {
	const (
		seats   = 10
		callers = 100
	)
	store := newFakeStore(seats)
	// The bound only needs to cover the maximum possible number of
	// version changes (one per success), so 50 guarantees no caller
	// exhausts its retries in this test.
	svc := NewBookingService(store, nil, 50)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := svc.BookSeats(context.Background(), userID, 1, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			default:
				assert.ErrorIs(t, err, ErrInsufficientSeats)
				insufficient++
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, seats, succeeded, "exactly the capacity is sold, never more")
	assert.Equal(t, callers-seats, insufficient)
	assert.Equal(t, uint32(0), store.event.AvailableSeats)
	assert.Equal(t, uint64(seats+1), store.event.Version, "one version bump per successful mutation")
}

func TestCancelBookingRestoresSeats(t *testing.T) {
	store := newFakeStore(10)
	gate := &recordingGate{admit: true}
	svc := NewBookingService(store, gate, 0)

	booking, err := svc.BookSeats(context.Background(), 5, 1, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(6), store.event.AvailableSeats)

	cancelled, err := svc.CancelBooking(context.Background(), 5, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	assert.Equal(t, uint32(10), store.event.AvailableSeats, "cancellation restores exactly the booked seats")
	assert.Equal(t, uint64(3), store.event.Version, "book then cancel advances the version twice")
	require.Len(t, gate.syncs, 2)
	assert.Equal(t, uint32(10), gate.syncs[1])
}

func TestCancelBookingTwice(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	booking, err := svc.BookSeats(context.Background(), 5, 1, 2)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), 5, booking.ID)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), 5, booking.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, uint32(10), store.event.AvailableSeats, "a second cancel must not restore seats again")
}

func TestCancelBookingOwnership(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	booking, err := svc.BookSeats(context.Background(), 5, 1, 2)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), 6, booking.ID)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelThenRebook(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	first, err := svc.BookSeats(context.Background(), 5, 1, 2)
	require.NoError(t, err)
	_, err = svc.CancelBooking(context.Background(), 5, first.ID)
	require.NoError(t, err)

	second, err := svc.BookSeats(context.Background(), 5, 1, 3)
	require.NoError(t, err, "a cancelled booking must not block a new one")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint32(7), store.event.AvailableSeats)
}

func TestListBookings(t *testing.T) {
	store := newFakeStore(10)
	svc := NewBookingService(store, nil, 0)

	_, err := svc.BookSeats(context.Background(), 5, 1, 2)
	require.NoError(t, err)

	got, err := svc.ListBookings(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.ListBookings(context.Background(), 6)
	require.NoError(t, err)
	assert.Empty(t, got)
}
