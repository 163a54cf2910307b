package repository

import (
	"context"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// Users, films, halls and seats are maintained by other services; the
// booking core only reads them.

func (r *repo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, email, is_active, created_at FROM users WHERE id = ?`
	var u model.User
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *repo) GetFilm(ctx context.Context, id uint64) (*model.Film, error) {
	const q = `SELECT id, title, duration_minutes FROM films WHERE id = ?`
	var f model.Film
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&f.ID, &f.Title, &f.DurationMinutes); err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *repo) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT id, name, base_price, seat_rows, seats_per_row, status, created_at, updated_at
               FROM halls WHERE id = ?`
	var h model.Hall
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.Name, &h.BasePrice, &h.Rows, &h.SeatsPerRow, &h.Status, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

const seatColumns = `s.id, s.hall_id, s.seat_row, s.seat_number, t.id, t.name, t.price_multiplier`

func (r *repo) GetSeat(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
               FROM seats s JOIN seat_types t ON t.id = s.seat_type_id
               WHERE s.id = ?`
	var s model.Seat
	err := r.q.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.HallID, &s.RowNumber, &s.SeatNumber, &s.Type.ID, &s.Type.Name, &s.Type.PriceMultiplier,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *repo) ListSeatsByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
               FROM seats s JOIN seat_types t ON t.id = s.seat_type_id
               WHERE s.hall_id = ?
               ORDER BY s.seat_row, s.seat_number`
	rows, err := r.q.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.HallID, &s.RowNumber, &s.SeatNumber, &s.Type.ID, &s.Type.Name, &s.Type.PriceMultiplier,
		); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
