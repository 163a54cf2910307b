package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// TicketView is a ticket as returned to callers.
type TicketView struct {
	ID          uint64          `json:"id"`
	BookingID   uint64          `json:"booking_id"`
	ScreeningID uint64          `json:"screening_id"`
	SeatID      uint64          `json:"seat_id"`
	Price       decimal.Decimal `json:"price"`
	Code        string          `json:"code"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BookingView is a booking with its derived status.
type BookingView struct {
	ID          uint64              `json:"id"`
	UserID      uint64              `json:"user_id"`
	ScreeningID uint64              `json:"screening_id"`
	Status      model.BookingStatus `json:"status"`
	TotalCost   decimal.Decimal     `json:"total_cost"`
	CreatedAt   time.Time           `json:"created_at"`
	Tickets     []TicketView        `json:"tickets"`
}

// ScreeningView is a screening with its derived status.
type ScreeningView struct {
	ID              uint64                `json:"id"`
	FilmID          uint64                `json:"film_id"`
	HallID          uint64                `json:"hall_id"`
	StartsAt        time.Time             `json:"starts_at"`
	EndsAt          time.Time             `json:"ends_at"`
	OccupiedUntil   time.Time             `json:"occupied_until"`
	DurationMinutes uint32                `json:"duration_minutes"`
	Status          model.ScreeningStatus `json:"status"`
}

// Seat availability marks used in seat maps.
const (
	SeatAvailable = "AVAILABLE"
	SeatBooked    = "BOOKED"
)

// SeatView is a seat priced for a particular screening.
type SeatView struct {
	ID         uint64          `json:"id"`
	RowNumber  uint32          `json:"row"`
	SeatNumber uint32          `json:"number"`
	SeatType   string          `json:"seat_type"`
	Price      decimal.Decimal `json:"price"`
	Status     string          `json:"status,omitempty"`
}

// SeatMap is the full seat plan of a screening.
type SeatMap struct {
	ScreeningID    uint64     `json:"screening_id"`
	HallID         uint64     `json:"hall_id"`
	TotalSeats     int        `json:"total_seats"`
	BookedSeats    int        `json:"booked_seats"`
	AvailableSeats int        `json:"available_seats"`
	Seats          []SeatView `json:"seats"`
}

// ScreeningStats summarises sales for one screening.  Revenue counts
// confirmed bookings only; Occupancy is the booked share of seats in
// percent, rounded to two places.
type ScreeningStats struct {
	ScreeningID       uint64          `json:"screening_id"`
	Status            string          `json:"status"`
	TotalSeats        int             `json:"total_seats"`
	BookedSeats       int             `json:"booked_seats"`
	AvailableSeats    int             `json:"available_seats"`
	Occupancy         decimal.Decimal `json:"occupancy_percent"`
	ConfirmedBookings int             `json:"confirmed_bookings"`
	PendingBookings   int             `json:"pending_bookings"`
	Revenue           decimal.Decimal `json:"revenue"`
}

// TicketValidation is the result of checking a ticket at the door.
type TicketValidation struct {
	Code          string              `json:"code"`
	Valid         bool                `json:"valid"`
	BookingStatus model.BookingStatus `json:"booking_status,omitempty"`
	Ticket        *TicketView         `json:"ticket,omitempty"`
}

func ticketView(t model.Ticket) TicketView {
	return TicketView{
		ID:          t.ID,
		BookingID:   t.BookingID,
		ScreeningID: t.ScreeningID,
		SeatID:      t.SeatID,
		Price:       t.Price,
		Code:        t.Code,
		CreatedAt:   t.CreatedAt,
	}
}

func bookingView(b model.Booking, status model.BookingStatus) BookingView {
	v := BookingView{
		ID:          b.ID,
		UserID:      b.UserID,
		ScreeningID: b.ScreeningID,
		Status:      status,
		TotalCost:   b.TotalCost,
		CreatedAt:   b.CreatedAt,
		Tickets:     make([]TicketView, 0, len(b.Tickets)),
	}
	for _, t := range b.Tickets {
		v.Tickets = append(v.Tickets, ticketView(t))
	}
	return v
}

func screeningView(s model.Screening, status model.ScreeningStatus) ScreeningView {
	return ScreeningView{
		ID:              s.ID,
		FilmID:          s.FilmID,
		HallID:          s.HallID,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt(),
		OccupiedUntil:   s.OccupiedUntil,
		DurationMinutes: s.DurationMinutes,
		Status:          status,
	}
}
