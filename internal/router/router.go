// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Unauthenticated
// operations live under /v1/auth; protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterEvents registers event routes.  Listing and single-event
// reads are public; creation requires a valid access token.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string) {
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/:id", h.Get)

	auth := e.Group("/v1/events")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("", h.Create)
}

// RegisterBookings registers the booking routes.  All of them require
// authentication; the mutating ones additionally pass through the
// rate limiter so one client cannot monopolize a contended event.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.GET("/my-bookings", h.ListMine)

	write := auth.Group("/bookings")
	write.Use(limiter)
	write.POST("", h.Create)
	write.DELETE("/:id", h.Cancel)
}
