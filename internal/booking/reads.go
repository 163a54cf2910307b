package booking

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/availability"
	"github.com/iliyamo/cinema-booking-core/internal/lifecycle"
	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/pricing"
)

// GetBooking returns a booking with its derived status.
func (e *Engine) GetBooking(ctx context.Context, bookingID uint64) (*BookingView, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "booking %d not found", bookingID)
	}
	views, err := e.bookingViews(ctx, []model.Booking{*b})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListUserBookings returns the user's bookings, newest first.
func (e *Engine) ListUserBookings(ctx context.Context, userID uint64) ([]BookingView, error) {
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, lookupError(err, "user %d not found", userID)
	}
	bookings, err := e.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.bookingViews(ctx, bookings)
}

// ListScreeningBookings returns every booking of a screening, newest first.
func (e *Engine) ListScreeningBookings(ctx context.Context, screeningID uint64) ([]BookingView, error) {
	if _, err := e.store.GetScreening(ctx, screeningID); err != nil {
		return nil, lookupError(err, "screening %d not found", screeningID)
	}
	bookings, err := e.store.ListBookingsByScreening(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	return e.bookingViews(ctx, bookings)
}

// bookingViews derives each booking's status from its screening,
// loading every distinct screening once.
func (e *Engine) bookingViews(ctx context.Context, bookings []model.Booking) ([]BookingView, error) {
	now := e.now()
	statuses := make(map[uint64]model.ScreeningStatus)
	out := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		st, ok := statuses[b.ScreeningID]
		if !ok {
			s, err := e.store.GetScreening(ctx, b.ScreeningID)
			if err != nil {
				return nil, lookupError(err, "screening %d not found", b.ScreeningID)
			}
			st = lifecycle.ScreeningStatus(*s, now)
			statuses[b.ScreeningID] = st
		}
		out = append(out, bookingView(b, lifecycle.BookingStatus(b, st)))
	}
	return out, nil
}

// GetScreening returns a screening with its derived status.
func (e *Engine) GetScreening(ctx context.Context, screeningID uint64) (*ScreeningView, error) {
	s, err := e.store.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, lookupError(err, "screening %d not found", screeningID)
	}
	v := screeningView(*s, lifecycle.ScreeningStatus(*s, e.now()))
	return &v, nil
}

// ListAvailableSeats returns the screening's free seats ordered by row
// then seat number, each priced for this screening.
func (e *Engine) ListAvailableSeats(ctx context.Context, screeningID uint64) ([]SeatView, error) {
	m, err := e.SeatMap(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	return filterSeats(m.Seats, SeatAvailable), nil
}

// ListBookedSeats returns the screening's seats holding a live ticket.
func (e *Engine) ListBookedSeats(ctx context.Context, screeningID uint64) ([]SeatView, error) {
	m, err := e.SeatMap(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	return filterSeats(m.Seats, SeatBooked), nil
}

func filterSeats(seats []SeatView, status string) []SeatView {
	out := make([]SeatView, 0, len(seats))
	for _, s := range seats {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// SeatMap returns every seat of the screening's hall marked AVAILABLE or
// BOOKED, with counts.
func (e *Engine) SeatMap(ctx context.Context, screeningID uint64) (*SeatMap, error) {
	s, err := e.store.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, lookupError(err, "screening %d not found", screeningID)
	}
	hall, err := e.store.GetHall(ctx, s.HallID)
	if err != nil {
		return nil, lookupError(err, "hall %d not found", s.HallID)
	}
	available, booked, err := availability.New(e.store).Partition(ctx, hall.ID, screeningID)
	if err != nil {
		return nil, err
	}

	bookedIDs := make(map[uint64]struct{}, len(booked))
	for _, seat := range booked {
		bookedIDs[seat.ID] = struct{}{}
	}
	m := &SeatMap{
		ScreeningID:    screeningID,
		HallID:         hall.ID,
		TotalSeats:     len(available) + len(booked),
		BookedSeats:    len(booked),
		AvailableSeats: len(available),
		Seats:          make([]SeatView, 0, len(available)+len(booked)),
	}
	// merge back into row/seat order
	all := mergeSeats(available, booked)
	for _, seat := range all {
		status := SeatAvailable
		if _, ok := bookedIDs[seat.ID]; ok {
			status = SeatBooked
		}
		m.Seats = append(m.Seats, SeatView{
			ID:         seat.ID,
			RowNumber:  seat.RowNumber,
			SeatNumber: seat.SeatNumber,
			SeatType:   seat.Type.Name,
			Price:      pricing.Price(*hall, seat.Type),
			Status:     status,
		})
	}
	return m, nil
}

func mergeSeats(a, b []model.Seat) []model.Seat {
	out := make([]model.Seat, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if seatLess(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func seatLess(x, y model.Seat) bool {
	if x.RowNumber != y.RowNumber {
		return x.RowNumber < y.RowNumber
	}
	return x.SeatNumber < y.SeatNumber
}

var hundred = decimal.NewFromInt(100)

// ScreeningStats reports seat occupancy and confirmed revenue.
func (e *Engine) ScreeningStats(ctx context.Context, screeningID uint64) (*ScreeningStats, error) {
	m, err := e.SeatMap(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	s, err := e.store.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, lookupError(err, "screening %d not found", screeningID)
	}
	bookings, err := e.store.ListBookingsByScreening(ctx, screeningID)
	if err != nil {
		return nil, err
	}

	st := lifecycle.ScreeningStatus(*s, e.now())
	stats := &ScreeningStats{
		ScreeningID:    screeningID,
		Status:         string(st),
		TotalSeats:     m.TotalSeats,
		BookedSeats:    m.BookedSeats,
		AvailableSeats: m.AvailableSeats,
		Occupancy:      decimal.Zero,
		Revenue:        decimal.Zero,
	}
	if m.TotalSeats > 0 {
		stats.Occupancy = decimal.NewFromInt(int64(m.BookedSeats)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(m.TotalSeats))).
			Round(2)
	}
	for _, b := range bookings {
		switch b.Status {
		case model.BookingConfirmed:
			if lifecycle.BookingStatus(b, st) == model.BookingCancelled {
				continue
			}
			stats.ConfirmedBookings++
			stats.Revenue = stats.Revenue.Add(b.TotalCost)
		case model.BookingPending:
			if lifecycle.BookingStatus(b, st) == model.BookingPending {
				stats.PendingBookings++
			}
		}
	}
	return stats, nil
}

// GetTicketByCode looks up a ticket by its code.
func (e *Engine) GetTicketByCode(ctx context.Context, code string) (*TicketView, error) {
	if code == "" {
		return nil, apperr.InvalidRequestf("ticket code is required")
	}
	t, err := e.store.GetTicketByCode(ctx, code)
	if err != nil {
		return nil, lookupError(err, "ticket %s not found", code)
	}
	v := ticketView(*t)
	return &v, nil
}

// ValidateTicket reports whether the ticket admits its holder: it must
// exist and its booking's derived status must be CONFIRMED.  An unknown
// code is not an error, just invalid.
func (e *Engine) ValidateTicket(ctx context.Context, code string) (*TicketValidation, error) {
	res := &TicketValidation{Code: code}
	t, err := e.GetTicketByCode(ctx, code)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return res, nil
		}
		return nil, err
	}
	b, err := e.GetBooking(ctx, t.BookingID)
	if err != nil {
		return nil, err
	}
	res.Ticket = t
	res.BookingStatus = b.Status
	res.Valid = b.Status == model.BookingConfirmed
	return res, nil
}
