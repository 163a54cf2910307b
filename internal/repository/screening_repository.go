package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

const screeningColumns = `id, film_id, hall_id, starts_at, duration_minutes, occupied_until, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScreening(sc rowScanner) (model.Screening, error) {
	var s model.Screening
	err := sc.Scan(&s.ID, &s.FilmID, &s.HallID, &s.StartsAt, &s.DurationMinutes, &s.OccupiedUntil, &s.Status, &s.CreatedAt)
	return s, err
}

func (r *repo) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	s, err := scanScreening(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindOverlappingScreenings selects live screenings of the hall whose
// occupied interval intersects [from, until).  Intervals are half-open,
// so a screening ending exactly at from does not match.
func (r *repo) FindOverlappingScreenings(ctx context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + `
               FROM screenings
               WHERE hall_id = ? AND status <> 'CANCELLED'
                 AND NOT (occupied_until <= ? OR starts_at >= ?)
               ORDER BY starts_at`
	rows, err := r.q.QueryContext(ctx, q, hallID, from.UTC(), until.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LockHall takes a row lock on the hall for the rest of the
// transaction.  Two schedulers proposing screenings for the same hall
// queue here, so the overlap query and the insert run as one step.
func (t *txRepo) LockHall(ctx context.Context, hallID uint64) error {
	var id uint64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ? FOR UPDATE`, hallID).Scan(&id)
	return notFound(err)
}

// LockScreening reads the screening row with a shared or exclusive lock.
func (t *txRepo) LockScreening(ctx context.Context, id uint64, mode store.LockMode) error {
	q := `SELECT id FROM screenings WHERE id = ? LOCK IN SHARE MODE`
	if mode == store.LockExclusive {
		q = `SELECT id FROM screenings WHERE id = ? FOR UPDATE`
	}
	var got uint64
	err := t.tx.QueryRowContext(ctx, q, id).Scan(&got)
	return notFound(classifyError(err))
}

func (t *txRepo) InsertScreening(ctx context.Context, s *model.Screening) error {
	const q = `INSERT INTO screenings (film_id, hall_id, starts_at, duration_minutes, occupied_until, status)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, s.FilmID, s.HallID, s.StartsAt.UTC(), s.DurationMinutes, s.OccupiedUntil.UTC(), s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return t.tx.QueryRowContext(ctx, `SELECT created_at FROM screenings WHERE id = ?`, s.ID).Scan(&s.CreatedAt)
}

func (t *txRepo) UpdateScreeningStatus(ctx context.Context, id uint64, status model.ScreeningStatus) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE screenings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow reports store.ErrNotFound when an UPDATE matched nothing.
// The DSN does not set clientFoundRows, so an UPDATE that writes the
// current value also reports zero; callers only update to new values.
func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
