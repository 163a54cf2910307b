package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/booking"
)

// BookingHandler serves the customer booking endpoints.  Routes are
// expected to sit behind JWTAuth and RequireRole("CUSTOMER").
type BookingHandler struct {
	Engine *booking.Engine
	Log    *zap.Logger
}

// NewBookingHandler panics if engine is nil.
func NewBookingHandler(engine *booking.Engine, log *zap.Logger) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Engine: engine, Log: log}
}

type createBookingRequest struct {
	ScreeningID uint64   `json:"screening_id"`
	SeatIDs     []uint64 `json:"seat_ids"`
}

// CreateBooking handles POST /v1/bookings.  The body names a screening and
// the seats to book; the response is the PENDING booking with its tickets.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScreeningID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screening_id is required"})
	}
	b, err := h.Engine.CreateBooking(c.Request().Context(), userID, body.ScreeningID, body.SeatIDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ownBooking loads the booking named by :id.  Another user's booking is
// reported as not found.
func (h *BookingHandler) ownBooking(c echo.Context) (*booking.BookingView, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil, apperr.InvalidRequestf("invalid booking id")
	}
	b, err := h.Engine.GetBooking(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperr.NotFoundf("booking %d not found", id)
	}
	return b, nil
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	b, err := h.ownBooking(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListMyBookings handles GET /v1/my-bookings, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	items, err := h.Engine.ListUserBookings(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	b, err := h.ownBooking(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := h.Engine.ConfirmBooking(c.Request().Context(), b.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  The seats become
// available again; the tickets stay on the booking.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	b, err := h.ownBooking(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := h.Engine.CancelBooking(c.Request().Context(), b.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}
