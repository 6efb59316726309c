package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/cache"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

// BookingHandler exposes the reservation engine over HTTP.  It owns no
// booking logic: validation beyond request shape, retries and capacity
// accounting all live in the service.
type BookingHandler struct {
	Service  *service.BookingService
	Events   *repository.EventRepo
	Listings *cache.ListingCache
}

func NewBookingHandler(svc *service.BookingService, events *repository.EventRepo, listings *cache.ListingCache) *BookingHandler {
	return &BookingHandler{Service: svc, Events: events, Listings: listings}
}

type createBookingReq struct {
	EventID   uint64 `json:"event_id"`
	SeatCount uint32 `json:"seat_count"`
}

// Create books seats on an event for the authenticated user.
//
// Status mapping: invalid input 400, unknown event 404, duplicate or
// capacity rejections 409 with distinct messages, store failures 503.
// A 409 from contention tells the client to retry; a 409 from a real
// shortage does not.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Service.BookSeats(ctx, uid, req.EventID, req.SeatCount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSeatCount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, service.ErrDuplicateBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientSeats):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrContentionExhausted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "could not complete booking, please try again"})
		default:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking temporarily unavailable"})
		}
	}

	h.Listings.Invalidate(ctx)
	h.publishConfirmed(ctx, booking.ID, booking.UserID, booking.EventID, booking.SeatCount)

	return c.JSON(http.StatusCreated, booking)
}

// Cancel cancels a confirmed booking owned by the caller and restores
// its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Service.CancelBooking(ctx, uid, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, service.ErrAlreadyCancelled):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrContentionExhausted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "could not cancel booking, please try again"})
		default:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "cancellation temporarily unavailable"})
		}
	}

	h.Listings.Invalidate(ctx)

	return c.JSON(http.StatusOK, booking)
}

// ListMine returns the caller's bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Service.ListBookings(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "listing temporarily unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// publishConfirmed emits the confirmation message best-effort.  The
// booking is already committed; a broker outage only costs the
// notification.
func (h *BookingHandler) publishConfirmed(ctx context.Context, bookingID, userID, eventID uint64, seats uint32) {
	evt := queue.BookingConfirmedEvent{
		BookingID:   bookingID,
		UserID:      userID,
		EventID:     eventID,
		SeatCount:   seats,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if rec, err := h.Events.GetByID(ctx, eventID); err == nil {
		evt.EventTitle = rec.Title
		evt.EventDate = rec.Date.UTC().Format(time.RFC3339)
	}
	_ = queue.PublishBookingConfirmed(ctx, evt)
}
