package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

const (
	bookingColumns = `id, user_id, screening_id, status, total_cost, created_at, updated_at`
	ticketColumns  = `id, booking_id, screening_id, seat_id, price, ticket_code, created_at`
)

func scanBooking(sc rowScanner) (model.Booking, error) {
	var b model.Booking
	err := sc.Scan(&b.ID, &b.UserID, &b.ScreeningID, &b.Status, &b.TotalCost, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanTicket(sc rowScanner) (model.Ticket, error) {
	var t model.Ticket
	err := sc.Scan(&t.ID, &t.BookingID, &t.ScreeningID, &t.SeatID, &t.Price, &t.Code, &t.CreatedAt)
	return t, err
}

// GetBooking loads the booking and its tickets ordered by ticket id.
func (r *repo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	list := []model.Booking{b}
	if err := r.attachTickets(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListBookingsByScreening returns the screening's bookings newest first.
func (r *repo) ListBookingsByScreening(ctx context.Context, screeningID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE screening_id = ? ORDER BY created_at DESC, id DESC`
	return r.listBookings(ctx, q, screeningID)
}

// ListBookingsByUser returns the user's bookings newest first.
func (r *repo) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.listBookings(ctx, q, userID)
}

func (r *repo) listBookings(ctx context.Context, q string, arg uint64) ([]model.Booking, error) {
	rows, err := r.q.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTickets(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTickets loads the tickets of all bookings in one query.
func (r *repo) attachTickets(ctx context.Context, bookings []model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(bookings))
	args := make([]any, 0, len(bookings))
	for i, b := range bookings {
		index[b.ID] = i
		args = append(args, b.ID)
	}
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE booking_id IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(args)), ",") + `) ORDER BY id`
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return err
		}
		i := index[t.BookingID]
		bookings[i].Tickets = append(bookings[i].Tickets, t)
	}
	return rows.Err()
}

func (r *repo) GetTicketByCode(ctx context.Context, code string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_code = ?`
	t, err := scanTicket(r.q.QueryRowContext(ctx, q, code))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *repo) ActiveSeatIDs(ctx context.Context, screeningID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM tickets WHERE screening_id = ? AND active = 1 ORDER BY seat_id`
	rows, err := r.q.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repo) HasActiveTicket(ctx context.Context, screeningID, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM tickets WHERE screening_id = ? AND seat_id = ? AND active = 1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, q, screeningID, seatID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertBooking writes the booking row and all of its tickets in a
// single multi-row INSERT, in the order of b.Tickets.  A live ticket
// already holding one of the seats makes the INSERT fail with
// store.ErrSeatTaken.
func (t *txRepo) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, screening_id, status, total_cost) VALUES (?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, b.UserID, b.ScreeningID, b.Status, b.TotalCost)
	if err != nil {
		return classifyError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if err := t.tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if len(b.Tickets) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO tickets (booking_id, screening_id, seat_id, price, ticket_code, active) VALUES `)
	args := make([]any, 0, len(b.Tickets)*6)
	var active any = 1
	if b.Status == model.BookingCancelled {
		active = nil
	}
	for i, tk := range b.Tickets {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, b.ID, b.ScreeningID, tk.SeatID, tk.Price, tk.Code, active)
	}
	if _, err := t.tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return classifyError(err)
	}

	rows, err := t.tx.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE booking_id = ? ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	stored := make([]model.Ticket, 0, len(b.Tickets))
	for rows.Next() {
		tk, err := scanTicket(rows)
		if err != nil {
			return err
		}
		stored = append(stored, tk)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(stored) != len(b.Tickets) {
		return fmt.Errorf("booking %d: inserted %d tickets, read back %d", b.ID, len(b.Tickets), len(stored))
	}
	b.Tickets = stored
	return nil
}

// UpdateBookingStatus sets the stored status.  Cancelling also clears
// the tickets' active flag so their seats can be booked again.
func (t *txRepo) UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if status == model.BookingCancelled {
		if _, err := t.tx.ExecContext(ctx, `UPDATE tickets SET active = NULL WHERE booking_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}
