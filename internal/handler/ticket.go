package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/creation-fund/internal/queue"
	"github.com/iliyamo/creation-fund/internal/repository"
	"github.com/iliyamo/creation-fund/internal/reservation"
	queue_publisher "github.com/iliyamo/creation-fund/internal/service"
)

// TicketHandler exposes ticket reservation and cancellation for
// celebration events plus the caller's ticket listing.  All methods
// assume SessionAuth middleware has populated the user id in context.
// Admission decisions are delegated to the reservation engine; the
// handler only translates outcomes to HTTP and publishes activity
// events on success.
type TicketHandler struct {
	Engine  *reservation.Engine
	Tickets *repository.TicketRepo
	Events  *repository.EventRepo
}

// NewTicketHandler constructs the handler.  All dependencies must be
// non-nil.
func NewTicketHandler(engine *reservation.Engine, tickets *repository.TicketRepo, events *repository.EventRepo) *TicketHandler {
	if engine == nil || tickets == nil || events == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Engine: engine, Tickets: tickets, Events: events}
}

// Reserve handles POST /v1/events/:id/tickets.  Business-rule
// rejections (already holding a ticket, sold out) come back as 400
// with a specific message and are never retried server-side.
func (h *TicketHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event id is required"})
	}

	ticket, err := h.Engine.Reserve(c.Request().Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, reservation.ErrAlreadyHasTicket):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already have a ticket reserved for this event"})
		case errors.Is(err, reservation.ErrSoldOut):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event is sold out"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve ticket"})
		}
	}

	h.publishActivity(c, queue.TicketActivityEvent{
		Type:       queue.TicketReserved,
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		UserID:     ticket.UserID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "ticket reserved successfully",
	})
}

// Cancel handles DELETE /v1/events/:id/tickets.  Cancelling without an
// active ticket is a 400; cancellation is not idempotent.
func (h *TicketHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event id is required"})
	}

	ticket, err := h.Engine.Cancel(c.Request().Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, reservation.ErrNoActiveTicket):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you do not have a ticket for this event"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
		}
	}

	h.publishActivity(c, queue.TicketActivityEvent{
		Type:       queue.TicketCancelled,
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		UserID:     ticket.UserID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "reservation cancelled",
	})
}

// ListMine handles GET /v1/me/tickets.  Returns the caller's tickets
// with event info, newest first; cancelled tickets are included as
// history.
func (h *TicketHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	items, err := h.Tickets.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishActivity emits a broker event for downstream consumers.  The
// reservation already succeeded; a broker failure is logged and does
// not affect the response.
func (h *TicketHandler) publishActivity(c echo.Context, ev queue.TicketActivityEvent) {
	if summary, err := h.Events.GetSummary(c.Request().Context(), ev.EventID); err == nil && summary != nil {
		ev.EventTitle = summary.Title
	}
	if err := queue_publisher.PublishTicketActivity(c.Request().Context(), ev); err != nil {
		log.Printf("ticket-activity: publish failed: %v", err)
	}
}
