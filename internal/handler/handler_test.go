package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
)

func TestGetUserID(t *testing.T) {
	e := echo.New()
	tests := []struct {
		in   any
		want uint64
		ok   bool
	}{
		{uint64(5), 5, true},
		{float64(7), 7, true},
		{"9", 9, true},
		{int64(3), 3, true},
		{"", 0, false},
		{float64(0), 0, false},
		{nil, 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", tt.in)
		got, err := getUserID(c)
		if tt.ok {
			require.NoError(t, err, "%v", tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, "%v", tt.in)
		}
	}
}

func TestWriteError(t *testing.T) {
	e := echo.New()
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.NotFoundf("booking 3 not found"), http.StatusNotFound, `{"error":"booking 3 not found","code":"NOT_FOUND"}`},
		{apperr.InvalidRequestf("bad"), http.StatusBadRequest, `{"error":"bad","code":"INVALID_REQUEST"}`},
		{apperr.InvalidStatef("nope"), http.StatusConflict, `{"error":"nope","code":"INVALID_STATE"}`},
		{apperr.ScheduleConflictf("overlap"), http.StatusConflict, `{"error":"overlap","code":"SCHEDULE_CONFLICT"}`},
		{fmt.Errorf("wrapped: %w", apperr.Unavailable(12)), http.StatusConflict,
			`{"error":"seat 12 is already booked","code":"SEAT_UNAVAILABLE","seat_id":12}`},
		{errUnauthorized, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{errors.New("connection refused"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeError(c, zap.NewNop(), tt.err))
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.JSONEq(t, tt.body, rec.Body.String())
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	require.NoError(t, Health(pinger{})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, Health(pinger{}, pinger{err: errors.New("down")})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
