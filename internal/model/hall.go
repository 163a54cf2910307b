package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HallStatus is the operational state of a hall.  Only AVAILABLE halls
// accept new screenings.
type HallStatus string

const (
	HallAvailable   HallStatus = "AVAILABLE"
	HallMaintenance HallStatus = "MAINTENANCE"
	HallClosed      HallStatus = "CLOSED"
	HallReserved    HallStatus = "RESERVED"
)

// Hall represents a screening room.  Seat layout and base price are
// managed outside this service; the booking core only reads them.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the hall.
//  BasePrice   – price of a seat with multiplier 1.0.
//  Rows        – number of seating rows.
//  SeatsPerRow – number of seats in each row.
//  Status      – operational state.
type Hall struct {
	ID          uint64          // halls.id
	Name        string          // halls.name
	BasePrice   decimal.Decimal // halls.base_price
	Rows        uint32          // halls.seat_rows
	SeatsPerRow uint32          // halls.seats_per_row
	Status      HallStatus      // halls.status
	CreatedAt   time.Time       // halls.created_at
	UpdatedAt   time.Time       // halls.updated_at
}

// Capacity returns the number of seat positions described by the layout.
func (h Hall) Capacity() int { return int(h.Rows) * int(h.SeatsPerRow) }
