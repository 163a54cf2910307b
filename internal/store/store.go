// Package store declares the persistence contract of the booking core.
// Two implementations exist: repository (MySQL) and repository/memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ErrSeatTaken is returned when inserting a ticket would give a seat a
// second live ticket for the same screening.
var ErrSeatTaken = errors.New("seat already has a live ticket for this screening")

// ErrTicketCodeTaken is returned when a generated ticket code collides
// with an existing one.
var ErrTicketCodeTaken = errors.New("ticket code already exists")

// ErrConflict is returned when the database aborted the transaction to
// break a deadlock or gave up waiting for a row lock.  Nothing was
// written and the whole transaction may be run again.
var ErrConflict = errors.New("transaction aborted by a lock conflict")

// SeatTakenError carries the seat that violated uniqueness when the store
// can tell which one it was.  It matches ErrSeatTaken under errors.Is.
type SeatTakenError struct {
	ScreeningID uint64
	SeatID      uint64
}

func (e *SeatTakenError) Error() string { return ErrSeatTaken.Error() }

func (e *SeatTakenError) Unwrap() error { return ErrSeatTaken }

// Reader is the read side of the store.
type Reader interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetFilm(ctx context.Context, id uint64) (*model.Film, error)
	GetHall(ctx context.Context, id uint64) (*model.Hall, error)
	GetSeat(ctx context.Context, id uint64) (*model.Seat, error)
	// ListSeatsByHall returns seats ordered by row then seat number.
	ListSeatsByHall(ctx context.Context, hallID uint64) ([]model.Seat, error)

	GetScreening(ctx context.Context, id uint64) (*model.Screening, error)
	// FindOverlappingScreenings returns non-cancelled screenings of the hall
	// whose occupied interval [StartsAt, OccupiedUntil) intersects [from, until).
	FindOverlappingScreenings(ctx context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error)

	// GetBooking returns the booking with its tickets.
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	ListBookingsByScreening(ctx context.Context, screeningID uint64) ([]model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	GetTicketByCode(ctx context.Context, code string) (*model.Ticket, error)

	// ActiveSeatIDs returns the ids of seats holding a ticket whose booking
	// is not cancelled, for the screening.
	ActiveSeatIDs(ctx context.Context, screeningID uint64) ([]uint64, error)
	HasActiveTicket(ctx context.Context, screeningID, seatID uint64) (bool, error)
}

// LockMode selects how LockScreening locks the screening row.
type LockMode int

const (
	// LockShared lets other shared holders through and blocks LockExclusive.
	LockShared LockMode = iota
	// LockExclusive waits for every other holder of the row.
	LockExclusive
)

// Writer is the write side of the store.  Writers are only reachable
// through Store.InTx so every mutation is part of a transaction.
type Writer interface {
	// LockHall serialises schedule changes for a hall until the
	// transaction ends.
	LockHall(ctx context.Context, hallID uint64) error
	// LockScreening locks the screening row until the transaction ends.
	// Bookings take it shared and a screening cancellation exclusive, so a
	// booking cannot commit on a screening that is being cancelled.
	LockScreening(ctx context.Context, id uint64, mode LockMode) error
	InsertScreening(ctx context.Context, s *model.Screening) error
	UpdateScreeningStatus(ctx context.Context, id uint64, status model.ScreeningStatus) error

	// InsertBooking stores b and its tickets, filling in generated ids and
	// timestamps.  It returns ErrSeatTaken or ErrTicketCodeTaken on
	// uniqueness violations.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// UpdateBookingStatus changes a booking's stored status.  Moving to
	// CANCELLED releases its seats for new bookings.
	UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus) error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Reader
	Writer
}

// Store is the full persistence contract.
type Store interface {
	Reader
	// InTx runs fn in a transaction.  The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
