package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

var created = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

var ticketCols = []string{"id", "booking_id", "screening_id", "seat_id", "price", "ticket_code", "created_at"}

func pendingBooking() *model.Booking {
	return &model.Booking{
		UserID:      1,
		ScreeningID: 7,
		Status:      model.BookingPending,
		TotalCost:   decimal.RequireFromString("750.00"),
		Tickets: []model.Ticket{
			{ScreeningID: 7, SeatID: 2, Price: decimal.RequireFromString("300.00"), Code: "TK-00001-AAAAAAAAA"},
			{ScreeningID: 7, SeatID: 5, Price: decimal.RequireFromString("450.00"), Code: "TK-00001-BBBBBBBBB"},
		},
	}
}

const insertTickets = `INSERT INTO tickets (booking_id, screening_id, seat_id, price, ticket_code, active) VALUES (?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?)`

func expectBookingRow(mock sqlmock.Sqlmock, b *model.Booking) {
	mock.ExpectExec(q(`INSERT INTO bookings (user_id, screening_id, status, total_cost) VALUES (?, ?, ?, ?)`)).
		WithArgs(b.UserID, b.ScreeningID, model.BookingPending, b.TotalCost).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(q(`SELECT created_at, updated_at FROM bookings WHERE id = ?`)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
}

func TestInsertBookingWritesTicketsInOneStatement(t *testing.T) {
	st, mock := newMockStore(t)
	b := pendingBooking()

	mock.ExpectBegin()
	expectBookingRow(mock, b)
	mock.ExpectExec(q(insertTickets)).
		WithArgs(
			uint64(10), uint64(7), uint64(2), sqlmock.AnyArg(), "TK-00001-AAAAAAAAA", 1,
			uint64(10), uint64(7), uint64(5), sqlmock.AnyArg(), "TK-00001-BBBBBBBBB", 1,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(q(`FROM tickets WHERE booking_id = ? ORDER BY id`)).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow(31, 10, 7, 2, "300.00", "TK-00001-AAAAAAAAA", created).
			AddRow(32, 10, 7, 5, "450.00", "TK-00001-BBBBBBBBB", created))
	mock.ExpectCommit()

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertBooking(context.Background(), b)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), b.ID)
	assert.Equal(t, created, b.CreatedAt)
	require.Len(t, b.Tickets, 2)
	assert.Equal(t, uint64(31), b.Tickets[0].ID)
	assert.Equal(t, uint64(10), b.Tickets[1].BookingID)
	assert.True(t, b.Tickets[1].Price.Equal(decimal.RequireFromString("450")))
}

func TestInsertBookingReadBackMismatch(t *testing.T) {
	st, mock := newMockStore(t)
	b := pendingBooking()

	mock.ExpectBegin()
	expectBookingRow(mock, b)
	mock.ExpectExec(q(insertTickets)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(q(`FROM tickets WHERE booking_id = ? ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(31, 10, 7, 2, "300.00", "TK-00001-AAAAAAAAA", created))
	mock.ExpectRollback()

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertBooking(context.Background(), b)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read back 1")
}

func TestInsertBookingTicketErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"live seat", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-5-1' for key 'tickets.uq_tickets_live_seat'"}, store.ErrSeatTaken},
		{"ticket code", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'TK-00001-BBBBBBBBB' for key 'tickets.uq_tickets_code'"}, store.ErrTicketCodeTaken},
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}, store.ErrConflict},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, store.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, mock := newMockStore(t)
			b := pendingBooking()

			mock.ExpectBegin()
			expectBookingRow(mock, b)
			mock.ExpectExec(q(insertTickets)).WillReturnError(tt.err)
			mock.ExpectRollback()

			err := st.InTx(context.Background(), func(tx store.Tx) error {
				return tx.InsertBooking(context.Background(), b)
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCommitDeadlockIsConflict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE bookings SET status = ? WHERE id = ?`)).
		WithArgs(model.BookingConfirmed, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateBookingStatus(context.Background(), 10, model.BookingConfirmed)
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCancelBookingReleasesTickets(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE bookings SET status = ? WHERE id = ?`)).
		WithArgs(model.BookingCancelled, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE tickets SET active = NULL WHERE booking_id = ?`)).
		WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateBookingStatus(context.Background(), 10, model.BookingCancelled)
	})
	require.NoError(t, err)
}

func TestUpdateBookingStatusMissingRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE bookings SET status = ? WHERE id = ?`)).
		WithArgs(model.BookingCancelled, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateBookingStatus(context.Background(), 99, model.BookingCancelled)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindOverlappingScreeningsUsesHalfOpenIntervals(t *testing.T) {
	st, mock := newMockStore(t)
	from := created.Add(24 * time.Hour)
	until := from.Add(140 * time.Minute)

	mock.ExpectQuery(`FROM screenings\s+WHERE hall_id = \? AND status <> 'CANCELLED'\s+` +
		q(`AND NOT (occupied_until <= ? OR starts_at >= ?)`) + `\s+ORDER BY starts_at`).
		WithArgs(uint64(1), from, until).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "film_id", "hall_id", "starts_at", "duration_minutes", "occupied_until", "status", "created_at",
		}).AddRow(4, 1, 1, from.Add(-time.Hour), 120, from.Add(80*time.Minute), "SCHEDULED", created))

	got, err := st.FindOverlappingScreenings(context.Background(), 1, from, until)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(4), got[0].ID)
	assert.Equal(t, uint32(120), got[0].DurationMinutes)
	assert.Equal(t, model.ScreeningScheduled, got[0].Status)
	assert.Equal(t, from.Add(80*time.Minute), got[0].OccupiedUntil)
}

func TestLockScreening(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SELECT id FROM screenings WHERE id = ? LOCK IN SHARE MODE`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(q(`SELECT id FROM screenings WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(q(`SELECT id FROM screenings WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := st.InTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.LockScreening(ctx, 7, store.LockShared))
		require.NoError(t, tx.LockScreening(ctx, 7, store.LockExclusive))
		return tx.LockScreening(ctx, 99, store.LockExclusive)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLockScreeningTimeoutIsConflict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SELECT id FROM screenings WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(7)).
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	err := st.InTx(context.Background(), func(tx store.Tx) error {
		return tx.LockScreening(context.Background(), 7, store.LockExclusive)
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}
