package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/booking"
)

// ScreeningHandler serves screening reads for everyone and scheduling
// and reporting endpoints for owners.
type ScreeningHandler struct {
	Engine *booking.Engine
	Log    *zap.Logger
}

// NewScreeningHandler panics if engine is nil.
func NewScreeningHandler(engine *booking.Engine, log *zap.Logger) *ScreeningHandler {
	if engine == nil {
		panic("nil engine passed to NewScreeningHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScreeningHandler{Engine: engine, Log: log}
}

type createScreeningRequest struct {
	FilmID   uint64    `json:"film_id"`
	HallID   uint64    `json:"hall_id"`
	StartsAt time.Time `json:"starts_at"` // RFC 3339
}

// CreateScreening handles POST /v1/screenings.  A proposal overlapping
// another screening's occupied interval in the same hall gets 409.
func (h *ScreeningHandler) CreateScreening(c echo.Context) error {
	var body createScreeningRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FilmID == 0 || body.HallID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "film_id and hall_id are required"})
	}
	s, err := h.Engine.CreateScreening(c.Request().Context(), body.FilmID, body.HallID, body.StartsAt)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// withScreening parses :id and runs fn with it, rendering the result.
func (h *ScreeningHandler) withScreening(c echo.Context, status int, fn func(ctx context.Context, id uint64) (any, error)) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	out, err := fn(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(status, out)
}

// CancelScreening handles POST /v1/screenings/:id/cancel.  Every booking
// on the screening is cancelled with it.
func (h *ScreeningHandler) CancelScreening(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		return h.Engine.CancelScreening(ctx, id)
	})
}

// GetScreening handles GET /v1/screenings/:id.
func (h *ScreeningHandler) GetScreening(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		return h.Engine.GetScreening(ctx, id)
	})
}

// SeatMap handles GET /v1/screenings/:id/seats.
func (h *ScreeningHandler) SeatMap(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		return h.Engine.SeatMap(ctx, id)
	})
}

// AvailableSeats handles GET /v1/screenings/:id/seats/available.
func (h *ScreeningHandler) AvailableSeats(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		seats, err := h.Engine.ListAvailableSeats(ctx, id)
		if err != nil {
			return nil, err
		}
		return echo.Map{"items": seats}, nil
	})
}

// BookedSeats handles GET /v1/screenings/:id/seats/booked.
func (h *ScreeningHandler) BookedSeats(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		seats, err := h.Engine.ListBookedSeats(ctx, id)
		if err != nil {
			return nil, err
		}
		return echo.Map{"items": seats}, nil
	})
}

// ListBookings handles GET /v1/screenings/:id/bookings for owners.
func (h *ScreeningHandler) ListBookings(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		items, err := h.Engine.ListScreeningBookings(ctx, id)
		if err != nil {
			return nil, err
		}
		return echo.Map{"items": items}, nil
	})
}

// Stats handles GET /v1/screenings/:id/stats.
func (h *ScreeningHandler) Stats(c echo.Context) error {
	return h.withScreening(c, http.StatusOK, func(ctx context.Context, id uint64) (any, error) {
		return h.Engine.ScreeningStats(ctx, id)
	})
}
