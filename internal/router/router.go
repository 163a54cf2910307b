package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinema-booking-core/internal/handler"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// /healthz, and /metrics when gatherer is non-nil.
func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer, deps ...handler.Pinger) {
	e.GET("/healthz", handler.Health(deps...))
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterPublic registers the read-only screening and ticket endpoints
// that guests may call.
func RegisterPublic(e *echo.Echo, s *handler.ScreeningHandler, t *handler.TicketHandler) {
	e.GET("/v1/screenings/:id", s.GetScreening)
	e.GET("/v1/screenings/:id/seats", s.SeatMap)
	e.GET("/v1/screenings/:id/seats/available", s.AvailableSeats)
	e.GET("/v1/screenings/:id/seats/booked", s.BookedSeats)
	e.GET("/v1/tickets/:code", t.ValidateTicket)
}
