package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

var clock = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(func() time.Time { return clock })
	s.PutHallWithSeats(model.Hall{ID: 1, Rows: 2, SeatsPerRow: 3, Status: model.HallAvailable,
		BasePrice: decimal.RequireFromString("100")}, 1, StandardSeat, VIPSeat, 2)
	return s
}

func booking(seats ...uint64) *model.Booking {
	b := &model.Booking{UserID: 1, ScreeningID: 7, Status: model.BookingPending}
	for _, id := range seats {
		b.Tickets = append(b.Tickets, model.Ticket{SeatID: id, Code: fmt.Sprintf("TK-%d", id), Price: decimal.NewFromInt(100)})
	}
	return b
}

func insert(t *testing.T, s *Store, b *model.Booking) error {
	t.Helper()
	return s.InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertBooking(context.Background(), b)
	})
}

func TestSeatGridOrdered(t *testing.T) {
	s := newStore(t)
	seats, err := s.ListSeatsByHall(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, seats, 6)
	assert.Equal(t, uint32(1), seats[0].RowNumber)
	assert.Equal(t, uint32(3), seats[2].SeatNumber)
	assert.Equal(t, "VIP", seats[5].Type.Name)
}

func TestInsertBookingAssignsIDs(t *testing.T) {
	s := newStore(t)
	b := booking(1, 2)
	require.NoError(t, insert(t, s, b))

	got, err := s.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tickets, 2)
	assert.Equal(t, b.ID, got.Tickets[0].BookingID)
	assert.Equal(t, uint64(7), got.Tickets[1].ScreeningID)
	assert.Equal(t, clock, got.CreatedAt)

	ids, err := s.ActiveSeatIDs(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
}

func TestLiveTicketUniqueness(t *testing.T) {
	s := newStore(t)
	require.NoError(t, insert(t, s, booking(1)))

	second := booking(1)
	second.Tickets[0].Code = "OTHER"
	err := insert(t, s, second)
	assert.True(t, errors.Is(err, store.ErrSeatTaken))

	var taken *store.SeatTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, uint64(1), taken.SeatID)
}

func TestTicketCodeUniqueness(t *testing.T) {
	s := newStore(t)
	require.NoError(t, insert(t, s, booking(1)))

	other := booking(2)
	other.Tickets[0].Code = "TK-1"
	assert.True(t, errors.Is(insert(t, s, other), store.ErrTicketCodeTaken))
}

func TestCancelReleasesSeats(t *testing.T) {
	s := newStore(t)
	b := booking(1, 2)
	require.NoError(t, insert(t, s, b))

	require.NoError(t, s.InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateBookingStatus(context.Background(), b.ID, model.BookingCancelled)
	}))

	taken, err := s.HasActiveTicket(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.False(t, taken)

	again := booking(1)
	again.Tickets[0].Code = "NEW"
	assert.NoError(t, insert(t, s, again))
}

func TestFailedTransactionLeavesNoTrace(t *testing.T) {
	s := newStore(t)
	boom := errors.New("boom")

	err := s.InTx(context.Background(), func(tx store.Tx) error {
		if err := tx.InsertBooking(context.Background(), booking(1)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ids, err := s.ActiveSeatIDs(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = s.GetTicketByCode(context.Background(), "TK-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindOverlapping(t *testing.T) {
	s := newStore(t)
	start := clock.Add(24 * time.Hour)
	s.PutScreening(model.Screening{ID: 1, HallID: 1, StartsAt: start, DurationMinutes: 120,
		OccupiedUntil: start.Add(140 * time.Minute), Status: model.ScreeningScheduled})
	s.PutScreening(model.Screening{ID: 2, HallID: 1, StartsAt: start.Add(time.Hour), DurationMinutes: 60,
		OccupiedUntil: start.Add(140 * time.Minute), Status: model.ScreeningCancelled})

	got, err := s.FindOverlappingScreenings(context.Background(), 1, start.Add(139*time.Minute), start.Add(200*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)

	got, err = s.FindOverlappingScreenings(context.Background(), 1, start.Add(140*time.Minute), start.Add(200*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetFilm(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetScreening(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetBooking(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
