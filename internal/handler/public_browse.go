package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/creation-fund/internal/repository"
	"github.com/iliyamo/creation-fund/internal/utils"
)

// PublicHandler serves the unauthenticated browse endpoints: creation
// cycles with their creators, and celebration events with sold counts.
// None of these routes require a login cookie, but the event detail
// endpoint reads one opportunistically to report whether the caller
// already holds a ticket.
type PublicHandler struct {
	Cycles    *repository.CycleRepo
	Events    *repository.EventRepo
	Tickets   *repository.TicketRepo
	JWTSecret string
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(cycles *repository.CycleRepo, events *repository.EventRepo, tickets *repository.TicketRepo, jwtSecret string) *PublicHandler {
	if cycles == nil || events == nil || tickets == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Cycles: cycles, Events: events, Tickets: tickets, JWTSecret: jwtSecret}
}

// GetCycles handles GET /v1/cycles.  Lists all cycles newest first,
// each with its creator lineup.
func (h *PublicHandler) GetCycles(c echo.Context) error {
	items, err := h.Cycles.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cycles"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetCycle handles GET /v1/cycles/:id.
func (h *PublicHandler) GetCycle(c echo.Context) error {
	det, err := h.Cycles.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cycle"})
	}
	if det == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cycle not found"})
	}
	return c.JSON(http.StatusOK, det)
}

// GetEvents handles GET /v1/events.  Returns upcoming events by
// default; ?past=true switches to past events newest first, and
// ?cycle_id= narrows the listing to one cycle.
func (h *PublicHandler) GetEvents(c echo.Context) error {
	past := c.QueryParam("past") == "true"
	cycleID := c.QueryParam("cycle_id")
	items, err := h.Events.List(c.Request().Context(), past, cycleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetEvent handles GET /v1/events/:id.  In addition to the event
// summary, the response carries the cycle's creator lineup and reports
// user_has_ticket when the request holds a valid login cookie; guests
// always see false.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	summary, err := h.Events.GetSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if summary == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	creators := make([]repository.CycleCreator, 0)
	if summary.CycleID != nil {
		creators, err = h.Cycles.CreatorsByCycle(c.Request().Context(), *summary.CycleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
		}
	}

	hasTicket := false
	if userID := h.optionalUserID(c); userID != "" {
		if ok, err := h.Tickets.HasActiveTicket(c.Request().Context(), summary.ID, userID); err == nil {
			hasTicket = ok
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":           summary,
		"creators":        creators,
		"user_has_ticket": hasTicket,
	})
}

// optionalUserID resolves the login cookie without requiring it.  An
// absent or invalid cookie simply means an anonymous caller.
func (h *PublicHandler) optionalUserID(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	userID, err := utils.ParseLoginToken(h.JWTSecret, cookie.Value)
	if err != nil {
		return ""
	}
	return userID
}
