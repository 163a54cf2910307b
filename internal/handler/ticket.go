package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/booking"
)

// TicketHandler serves ticket validation at the door.
type TicketHandler struct {
	Engine *booking.Engine
	Log    *zap.Logger
}

func NewTicketHandler(engine *booking.Engine, log *zap.Logger) *TicketHandler {
	if engine == nil {
		panic("nil engine passed to NewTicketHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketHandler{Engine: engine, Log: log}
}

// ValidateTicket handles GET /v1/tickets/:code.  Unknown codes are
// answered with valid=false rather than 404.
func (h *TicketHandler) ValidateTicket(c echo.Context) error {
	res, err := h.Engine.ValidateTicket(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
