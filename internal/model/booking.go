package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.  PENDING, CONFIRMED
// and CANCELLED are stored; COMPLETED (and CANCELLED via a cancelled
// screening) are derived from the screening when the booking is read.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Booking groups the tickets one user bought for one screening.
// TotalCost always equals the sum of the ticket prices.
type Booking struct {
	ID          uint64          // bookings.id
	UserID      uint64          // bookings.user_id
	ScreeningID uint64          // bookings.screening_id
	Status      BookingStatus   // bookings.status
	TotalCost   decimal.Decimal // bookings.total_cost
	CreatedAt   time.Time       // bookings.created_at
	UpdatedAt   time.Time       // bookings.updated_at
	Tickets     []Ticket
}

// Ticket is one seat at one screening inside a booking.  ScreeningID is
// denormalised from the booking so the store can enforce that a seat has
// at most one live ticket per screening.
type Ticket struct {
	ID          uint64          // tickets.id
	BookingID   uint64          // tickets.booking_id
	ScreeningID uint64          // tickets.screening_id
	SeatID      uint64          // tickets.seat_id
	Price       decimal.Decimal // tickets.price
	Code        string          // tickets.ticket_code
	CreatedAt   time.Time       // tickets.created_at
}
