package model

import "github.com/shopspring/decimal"

// SeatType classifies seats (standard, VIP, ...) and carries the
// multiplier applied to the hall base price.
type SeatType struct {
	ID              uint64          // seat_types.id
	Name            string          // seat_types.name
	PriceMultiplier decimal.Decimal // seat_types.price_multiplier
}

// Seat describes a physical seat in a hall.  Seats are uniquely
// identified by their hall, row number and seat number.
type Seat struct {
	ID         uint64   // seats.id
	HallID     uint64   // seats.hall_id
	RowNumber  uint32   // seats.seat_row
	SeatNumber uint32   // seats.seat_number
	Type       SeatType // joined from seat_types
}
