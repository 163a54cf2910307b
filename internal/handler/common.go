package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/logger"
)

var errUnauthorized = errors.New("unauthorized")

// getUserID extracts the user_id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		if t > 0 {
			return uint64(t), nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		// JSON numbers in MapClaims decode as float64
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errUnauthorized
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidRequest:
		return http.StatusBadRequest
	case apperr.InvalidState, apperr.ScheduleConflict, apperr.SeatUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ..., "code": ...}.  Errors that are
// not domain errors are logged and hidden behind a generic 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	if errors.Is(err, errUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var de *apperr.Error
	if !errors.As(err, &de) {
		logger.WithContext(c.Request().Context(), log).Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": de.Message, "code": string(de.Kind)}
	if de.Kind == apperr.SeatUnavailable {
		body["seat_id"] = de.SeatID
	}
	return c.JSON(statusOf(de.Kind), body)
}
