package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-core/internal/handler"
	"github.com/iliyamo/cinema-booking-core/internal/middleware"
)

// RegisterCustomer registers the booking endpoints under /v1.  All of them
// require a JWT with the CUSTOMER role; limiter guards the writes.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
	)
	if limiter == nil {
		limiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	g.POST("/bookings", h.CreateBooking, limiter)
	g.GET("/bookings/:id", h.GetBooking)
	g.GET("/my-bookings", h.ListMyBookings)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking, limiter)
	g.POST("/bookings/:id/cancel", h.CancelBooking, limiter)
}
