// Package availability answers which seats of a screening are free.
//
// A seat is booked when it holds a ticket whose booking is not
// CANCELLED, and available otherwise.  The index holds no state of its
// own; every answer reflects the store at the time of the call.
package availability

import (
	"context"
	"fmt"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// Source is the subset of the store the index reads.
type Source interface {
	ListSeatsByHall(ctx context.Context, hallID uint64) ([]model.Seat, error)
	ActiveSeatIDs(ctx context.Context, screeningID uint64) ([]uint64, error)
	HasActiveTicket(ctx context.Context, screeningID, seatID uint64) (bool, error)
}

// Index computes seat availability over a Source.
type Index struct {
	src Source
}

// New returns an Index reading from src.
func New(src Source) *Index { return &Index{src: src} }

// IsAvailable reports whether seatID has no live ticket for screeningID.
func (ix *Index) IsAvailable(ctx context.Context, screeningID, seatID uint64) (bool, error) {
	taken, err := ix.src.HasActiveTicket(ctx, screeningID, seatID)
	if err != nil {
		return false, fmt.Errorf("check seat %d: %w", seatID, err)
	}
	return !taken, nil
}

// ListAvailable returns the seats of hallID without a live ticket for
// screeningID, ordered by row then seat number.
func (ix *Index) ListAvailable(ctx context.Context, hallID, screeningID uint64) ([]model.Seat, error) {
	available, _, err := ix.Partition(ctx, hallID, screeningID)
	return available, err
}

// ListBooked returns the seats of hallID holding a live ticket for
// screeningID, ordered by row then seat number.
func (ix *Index) ListBooked(ctx context.Context, hallID, screeningID uint64) ([]model.Seat, error) {
	_, booked, err := ix.Partition(ctx, hallID, screeningID)
	return booked, err
}

// Partition splits the hall's seats into available and booked in one
// pass.  The two slices are disjoint and together hold every seat.
func (ix *Index) Partition(ctx context.Context, hallID, screeningID uint64) (available, booked []model.Seat, err error) {
	seats, err := ix.src.ListSeatsByHall(ctx, hallID)
	if err != nil {
		return nil, nil, fmt.Errorf("list seats of hall %d: %w", hallID, err)
	}
	ids, err := ix.src.ActiveSeatIDs(ctx, screeningID)
	if err != nil {
		return nil, nil, fmt.Errorf("list booked seats of screening %d: %w", screeningID, err)
	}
	taken := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		taken[id] = struct{}{}
	}
	available = make([]model.Seat, 0, len(seats))
	booked = make([]model.Seat, 0, len(ids))
	for _, s := range seats {
		if _, ok := taken[s.ID]; ok {
			booked = append(booked, s)
			continue
		}
		available = append(available, s)
	}
	return available, booked, nil
}
