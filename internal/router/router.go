package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/creation-fund/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/creation-fund/internal/middleware" // import middleware for login-cookie authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the QR authentication routes and the protected
// identity endpoint.  Handshake operations live under /v1/auth/qr and are
// unauthenticated: the browser creates and polls a session while the
// companion app submits the wallet signature.  The /v1/me endpoint sits
// behind the SessionAuth middleware and requires a valid login cookie.
func RegisterAuth(e *echo.Echo, a *handler.QRAuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth/qr")
	// Create a handshake session; returns the token the browser renders
	// as a QR code.
	g.POST("/session", a.CreateSession)
	// Poll a session's state; issues the login cookie and consumes the
	// session once authenticated.
	g.GET("/session", a.PollSession)
	// Companion-app endpoint submitting the signed challenge.
	g.POST("/authenticate", a.Authenticate)

	auth := e.Group("/v1")
	auth.Use(middleware.SessionAuth(jwtSecret))
	// Return the identity bound to the caller's login cookie.
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler exposes sanitized data for creation
// cycles and celebration events.  These routes apply no auth middleware and
// are intended for guest users; the event detail reads the login cookie
// opportunistically to report ticket ownership.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	// Expose list of all cycles with their creator lineups
	e.GET("/v1/cycles", p.GetCycles)
	// Cycle details by cycle id
	e.GET("/v1/cycles/:id", p.GetCycle)
	// List events; ?past=true for history, ?cycle_id= to filter by cycle
	e.GET("/v1/events", p.GetEvents)
	// Event details by event id, including whether the caller holds a ticket
	e.GET("/v1/events/:id", p.GetEvent)
}

// RegisterTickets registers the reservation endpoints.  All of them
// require a valid login cookie; the SessionAuth middleware resolves the
// caller before any handler runs.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.SessionAuth(jwtSecret))
	// Reserve one ticket for an event
	g.POST("/events/:id/tickets", t.Reserve)
	// Cancel the caller's reservation for an event
	g.DELETE("/events/:id/tickets", t.Cancel)
	// List the caller's tickets, cancelled history included
	g.GET("/me/tickets", t.ListMine)
}
