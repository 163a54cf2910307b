package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-core/internal/handler"
	"github.com/iliyamo/cinema-booking-core/internal/middleware"
)

// RegisterOwner registers OWNER-scoped scheduling and reporting endpoints
// under /v1.
func RegisterOwner(e *echo.Echo, s *handler.ScreeningHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOwner),
	)

	g.POST("/screenings", s.CreateScreening)
	g.POST("/screenings/:id/cancel", s.CancelScreening)
	g.GET("/screenings/:id/bookings", s.ListBookings)
	g.GET("/screenings/:id/stats", s.Stats)
}
