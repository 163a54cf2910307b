// Package queue carries booking-domain events over RabbitMQ: a publisher
// used by the booking engine and a consumer that writes an audit log.
package queue

import "time"

// Routing keys.  Each doubles as the name of a durable queue bound to
// the default exchange.
const (
	BookingCreated     = "booking.created"
	BookingConfirmed   = "booking.confirmed"
	BookingCancelled   = "booking.cancelled"
	ScreeningCancelled = "screening.cancelled"
)

// Queues lists every queue the service declares.
var Queues = []string{BookingCreated, BookingConfirmed, BookingCancelled, ScreeningCancelled}

// Event is a message that knows its routing key.
type Event interface {
	RoutingKey() string
}

// BookingEvent is published when a booking is created, confirmed or
// cancelled.  It carries enough for consumers to log or notify without
// reading the database.
type BookingEvent struct {
	Type        string   `json:"type"`
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	ScreeningID uint64   `json:"screening_id"`
	HallID      uint64   `json:"hall_id"`
	FilmID      uint64   `json:"film_id"`
	StartsAt    string   `json:"starts_at"`
	Status      string   `json:"status"`
	SeatIDs     []uint64 `json:"seat_ids"`
	TicketCodes []string `json:"ticket_codes"`
	TotalCost   string   `json:"total_cost"`
	OccurredAt  string   `json:"occurred_at"`
}

func (e BookingEvent) RoutingKey() string { return e.Type }

// ScreeningCancelledEvent is published when a screening is cancelled,
// listing the bookings the cancellation cascaded to.
type ScreeningCancelledEvent struct {
	ScreeningID       uint64   `json:"screening_id"`
	HallID            uint64   `json:"hall_id"`
	FilmID            uint64   `json:"film_id"`
	StartsAt          string   `json:"starts_at"`
	CancelledBookings []uint64 `json:"cancelled_bookings"`
	OccurredAt        string   `json:"occurred_at"`
}

func (ScreeningCancelledEvent) RoutingKey() string { return ScreeningCancelled }

// Timestamp formats t the way events carry times.
func Timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
