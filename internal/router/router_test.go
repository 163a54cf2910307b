package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-core/internal/booking"
	"github.com/iliyamo/cinema-booking-core/internal/handler"
	"github.com/iliyamo/cinema-booking-core/internal/metrics"
	"github.com/iliyamo/cinema-booking-core/internal/middleware"
	"github.com/iliyamo/cinema-booking-core/internal/repository/memory"
	"github.com/iliyamo/cinema-booking-core/internal/utils"
)

const jwtSecret = "router-test-secret"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	clock := func() time.Time { return testNow }
	st := memory.New(clock)
	st.SeedDemo()

	reg := prometheus.NewRegistry()
	engine := booking.New(st, booking.Options{Now: clock, Metrics: metrics.New(reg)})

	e := echo.New()
	e.Use(middleware.RequestID())
	RegisterRoutes(e, reg)
	screenings := handler.NewScreeningHandler(engine, nil)
	RegisterPublic(e, screenings, handler.NewTicketHandler(engine, nil))
	RegisterCustomer(e, handler.NewBookingHandler(engine, nil), jwtSecret, nil)
	RegisterOwner(e, screenings, jwtSecret)
	return &api{t: t, e: e}
}

func token(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(jwtSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func (a *api) do(method, path, tok, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	SeatID uint64 `json:"seat_id"`
}

func (a *api) schedule(owner string, hallID uint64, start time.Time) booking.ScreeningView {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/screenings", owner,
		fmt.Sprintf(`{"film_id":1,"hall_id":%d,"starts_at":%q}`, hallID, start.Format(time.RFC3339)))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[booking.ScreeningView](a.t, rec)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = a.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cinema_seat_conflicts_total")
}

func TestBookingFlow(t *testing.T) {
	a := newAPI(t)
	owner := token(t, 100, middleware.RoleOwner)
	alice := token(t, 1, middleware.RoleCustomer)
	bob := token(t, 2, middleware.RoleCustomer)

	s := a.schedule(owner, 1, testNow.Add(24*time.Hour))
	assert.Equal(t, "SCHEDULED", string(s.Status))

	// seat 1 is standard, seat 85 is in the VIP back row
	rec := a.do(http.MethodPost, "/v1/bookings", alice, fmt.Sprintf(`{"screening_id":%d,"seat_ids":[1,85]}`, s.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[booking.BookingView](t, rec)
	assert.Equal(t, "PENDING", string(b.Status))
	assert.True(t, b.TotalCost.Equal(decimal.NewFromInt(750)), b.TotalCost.String())
	require.Len(t, b.Tickets, 2)

	rec = a.do(http.MethodPost, "/v1/bookings", bob, fmt.Sprintf(`{"screening_id":%d,"seat_ids":[2,85]}`, s.ID))
	require.Equal(t, http.StatusConflict, rec.Code)
	eb := decode[errorBody](t, rec)
	assert.Equal(t, "SEAT_UNAVAILABLE", eb.Code)
	assert.Equal(t, uint64(85), eb.SeatID)

	// bookings of other users look missing
	path := fmt.Sprintf("/v1/bookings/%d", b.ID)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, path, bob, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, path+"/cancel", bob, "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, path, alice, "").Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/tickets/%s", b.Tickets[0].Code), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[booking.TicketValidation](t, rec).Valid)

	rec = a.do(http.MethodPost, path+"/confirm", alice, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", string(decode[booking.BookingView](t, rec).Status))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, path+"/confirm", alice, "").Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/tickets/%s", b.Tickets[1].Code), "", "")
	assert.True(t, decode[booking.TicketValidation](t, rec).Valid)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d/seats/booked", s.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	booked := decode[struct {
		Items []booking.SeatView `json:"items"`
	}](t, rec)
	require.Len(t, booked.Items, 2)
	assert.Equal(t, uint64(1), booked.Items[0].ID)
	assert.Equal(t, uint64(85), booked.Items[1].ID)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d/stats", s.ID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[booking.ScreeningStats](t, rec)
	assert.Equal(t, 2, stats.BookedSeats)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(750)))

	rec = a.do(http.MethodGet, "/v1/my-bookings", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[struct {
		Items []booking.BookingView `json:"items"`
	}](t, rec)
	assert.Len(t, mine.Items, 1)

	rec = a.do(http.MethodPost, path+"/cancel", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", string(decode[booking.BookingView](t, rec).Status))

	rec = a.do(http.MethodPost, "/v1/bookings", bob, fmt.Sprintf(`{"screening_id":%d,"seat_ids":[85]}`, s.ID))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSchedulingEndpoints(t *testing.T) {
	a := newAPI(t)
	owner := token(t, 100, middleware.RoleOwner)
	alice := token(t, 1, middleware.RoleCustomer)
	start := testNow.Add(48 * time.Hour)

	first := a.schedule(owner, 2, start)

	rec := a.do(http.MethodPost, "/v1/screenings", owner,
		fmt.Sprintf(`{"film_id":1,"hall_id":2,"starts_at":%q}`, start.Add(139*time.Minute).Format(time.RFC3339)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SCHEDULE_CONFLICT", decode[errorBody](t, rec).Code)

	a.schedule(owner, 2, start.Add(140*time.Minute))

	rec = a.do(http.MethodPost, "/v1/screenings", alice, `{"film_id":1,"hall_id":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/v1/screenings", "", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/v1/screenings", owner, `{"hall_id":2}`).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/v1/screenings", owner,
		fmt.Sprintf(`{"film_id":1,"hall_id":9,"starts_at":%q}`, start.Format(time.RFC3339))).Code)

	rec = a.do(http.MethodPost, "/v1/bookings", alice, fmt.Sprintf(`{"screening_id":%d,"seat_ids":[1001]}`, first.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[booking.BookingView](t, rec)

	rec = a.do(http.MethodPost, fmt.Sprintf("/v1/screenings/%d/cancel", first.ID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", string(decode[booking.ScreeningView](t, rec).Status))

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/bookings/%d", b.ID), alice, "")
	assert.Equal(t, "CANCELLED", string(decode[booking.BookingView](t, rec).Status))

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d/bookings", first.ID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, fmt.Sprintf("/v1/screenings/%d/cancel", first.ID), owner, "").Code)
}

func TestPublicReads(t *testing.T) {
	a := newAPI(t)
	owner := token(t, 100, middleware.RoleOwner)
	s := a.schedule(owner, 1, testNow.Add(24*time.Hour))

	rec := a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d", s.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID, decode[booking.ScreeningView](t, rec).ID)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d/seats", s.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[booking.SeatMap](t, rec)
	assert.Equal(t, 96, m.TotalSeats)
	assert.Equal(t, 96, m.AvailableSeats)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/screenings/%d/seats/available", s.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/screenings/abc", "", "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/screenings/999", "", "").Code)

	rec = a.do(http.MethodGet, "/v1/tickets/TK-00000-UNKNOWN", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[booking.TicketValidation](t, rec).Valid)
}
