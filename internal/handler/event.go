package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/admission"
	"github.com/iliyamo/event-ticket-booking/internal/cache"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// EventHandler serves event creation, listing and single-event reads.
type EventHandler struct {
	Events   *repository.EventRepo
	Gate     admission.Strategy
	Listings *cache.ListingCache
}

func NewEventHandler(events *repository.EventRepo, gate admission.Strategy, listings *cache.ListingCache) *EventHandler {
	return &EventHandler{Events: events, Gate: gate, Listings: listings}
}

type createEventReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Date        string  `json:"date"` // RFC 3339
	SeatCount   uint32  `json:"seat_count"`
}

// eventListPayload is the cached shape of one listing page.  Cached is
// always false inside Redis; the handler flips it on a hit so clients
// can tell fresh reads from cached ones.
type eventListPayload struct {
	Events   []*model.Event `json:"events"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Cached   bool           `json:"cached"`
}

// Create registers a new event with full availability.  The admission
// gate's seat counter is seeded here so a Redis-gated deployment knows
// the capacity before the first booking arrives.
func (h *EventHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.SeatCount < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be at least 1"})
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be RFC 3339"})
	}
	if !date.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec := &repository.EventRecord{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        date.UTC(),
		SeatCount:   req.SeatCount,
		OrganizerID: uid,
	}
	if err := h.Events.Create(ctx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}

	h.Gate.Sync(ctx, rec.ID, rec.AvailableSeats)
	h.Listings.Invalidate(ctx)

	return c.JSON(http.StatusCreated, rec.ToModel())
}

// List returns one page of events, served from the listing cache when
// possible.  Query params: page, page_size, upcoming_only.
func (h *EventHandler) List(c echo.Context) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(c, "page_size", 20)
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	upcoming := c.QueryParam("upcoming_only") == "true"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var payload eventListPayload
	if h.Listings.Get(ctx, page, pageSize, upcoming, &payload) {
		payload.Cached = true
		return c.JSON(http.StatusOK, payload)
	}

	records, total, err := h.Events.List(ctx, page, pageSize, upcoming)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}

	events := make([]*model.Event, 0, len(records))
	for i := range records {
		events = append(events, records[i].ToModel())
	}
	payload = eventListPayload{Events: events, Total: total, Page: page, PageSize: pageSize}
	h.Listings.Set(ctx, page, pageSize, upcoming, payload)

	return c.JSON(http.StatusOK, payload)
}

// Get returns one event by ID.  Never cached: callers of this endpoint
// are usually about to book and need the live seat count.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	return c.JSON(http.StatusOK, rec.ToModel())
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
