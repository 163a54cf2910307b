// Package memory is an in-process implementation of store.Store.
//
// Transactions are serialised by a single mutex and run against a copy
// of the state that replaces the live state only when the transaction
// function succeeds.  Uniqueness of live tickets per (screening, seat)
// and of ticket codes is enforced on insert, mirroring the MySQL keys.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

type seatKey struct {
	screeningID uint64
	seatID      uint64
}

type state struct {
	users      map[uint64]model.User
	films      map[uint64]model.Film
	halls      map[uint64]model.Hall
	seats      map[uint64]model.Seat
	screenings map[uint64]model.Screening
	bookings   map[uint64]model.Booking
	live       map[seatKey]uint64 // ticket id per live (screening, seat)
	codes      map[string]uint64  // booking id per ticket code

	nextScreening uint64
	nextBooking   uint64
	nextTicket    uint64
}

func newState() *state {
	return &state{
		users:      map[uint64]model.User{},
		films:      map[uint64]model.Film{},
		halls:      map[uint64]model.Hall{},
		seats:      map[uint64]model.Seat{},
		screenings: map[uint64]model.Screening{},
		bookings:   map[uint64]model.Booking{},
		live:       map[seatKey]uint64{},
		codes:      map[string]uint64{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[uint64]model.User, len(s.users)),
		films:         make(map[uint64]model.Film, len(s.films)),
		halls:         make(map[uint64]model.Hall, len(s.halls)),
		seats:         make(map[uint64]model.Seat, len(s.seats)),
		screenings:    make(map[uint64]model.Screening, len(s.screenings)),
		bookings:      make(map[uint64]model.Booking, len(s.bookings)),
		live:          make(map[seatKey]uint64, len(s.live)),
		codes:         make(map[string]uint64, len(s.codes)),
		nextScreening: s.nextScreening,
		nextBooking:   s.nextBooking,
		nextTicket:    s.nextTicket,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.films {
		c.films[k] = v
	}
	for k, v := range s.halls {
		c.halls[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.screenings {
		c.screenings[k] = v
	}
	for k, v := range s.bookings {
		v.Tickets = append([]model.Ticket(nil), v.Tickets...)
		c.bookings[k] = v
	}
	for k, v := range s.live {
		c.live[k] = v
	}
	for k, v := range s.codes {
		c.codes[k] = v
	}
	return c
}

// Store keeps the catalogue, schedule and bookings in memory.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.  now stamps created rows; nil means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{st: newState(), now: now}
}

// InTx runs fn against a private copy of the state and publishes the
// copy only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) read() (*state, func()) {
	s.mu.RLock()
	return s.st, s.mu.RUnlock
}

func (s *Store) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	st, done := s.read()
	defer done()
	return st.getUser(id)
}

func (s *Store) GetFilm(ctx context.Context, id uint64) (*model.Film, error) {
	st, done := s.read()
	defer done()
	return st.getFilm(id)
}

func (s *Store) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	st, done := s.read()
	defer done()
	return st.getHall(id)
}

func (s *Store) GetSeat(ctx context.Context, id uint64) (*model.Seat, error) {
	st, done := s.read()
	defer done()
	return st.getSeat(id)
}

func (s *Store) ListSeatsByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	st, done := s.read()
	defer done()
	return st.listSeatsByHall(hallID), nil
}

func (s *Store) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	st, done := s.read()
	defer done()
	return st.getScreening(id)
}

func (s *Store) FindOverlappingScreenings(ctx context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error) {
	st, done := s.read()
	defer done()
	return st.findOverlapping(hallID, from, until), nil
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	st, done := s.read()
	defer done()
	return st.getBooking(id)
}

func (s *Store) ListBookingsByScreening(ctx context.Context, screeningID uint64) ([]model.Booking, error) {
	st, done := s.read()
	defer done()
	return st.listBookings(func(b model.Booking) bool { return b.ScreeningID == screeningID }), nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	st, done := s.read()
	defer done()
	return st.listBookings(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (s *Store) GetTicketByCode(ctx context.Context, code string) (*model.Ticket, error) {
	st, done := s.read()
	defer done()
	return st.getTicketByCode(code)
}

func (s *Store) ActiveSeatIDs(ctx context.Context, screeningID uint64) ([]uint64, error) {
	st, done := s.read()
	defer done()
	return st.activeSeatIDs(screeningID), nil
}

func (s *Store) HasActiveTicket(ctx context.Context, screeningID, seatID uint64) (bool, error) {
	st, done := s.read()
	defer done()
	_, ok := st.live[seatKey{screeningID, seatID}]
	return ok, nil
}

// state readers; callers hold the appropriate lock.

func (st *state) getUser(id uint64) (*model.User, error) {
	u, ok := st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (st *state) getFilm(id uint64) (*model.Film, error) {
	f, ok := st.films[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &f, nil
}

func (st *state) getHall(id uint64) (*model.Hall, error) {
	h, ok := st.halls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &h, nil
}

func (st *state) getSeat(id uint64) (*model.Seat, error) {
	s, ok := st.seats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (st *state) listSeatsByHall(hallID uint64) []model.Seat {
	out := make([]model.Seat, 0)
	for _, s := range st.seats {
		if s.HallID == hallID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowNumber != out[j].RowNumber {
			return out[i].RowNumber < out[j].RowNumber
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out
}

func (st *state) getScreening(id uint64) (*model.Screening, error) {
	s, ok := st.screenings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (st *state) findOverlapping(hallID uint64, from, until time.Time) []model.Screening {
	out := make([]model.Screening, 0)
	for _, s := range st.screenings {
		if s.HallID != hallID || s.Status == model.ScreeningCancelled {
			continue
		}
		if s.StartsAt.Before(until) && from.Before(s.OccupiedUntil) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func (st *state) getBooking(id uint64) (*model.Booking, error) {
	b, ok := st.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b.Tickets = append([]model.Ticket(nil), b.Tickets...)
	return &b, nil
}

// listBookings returns matching bookings newest first.
func (st *state) listBookings(match func(model.Booking) bool) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range st.bookings {
		if match(b) {
			b.Tickets = append([]model.Ticket(nil), b.Tickets...)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (st *state) getTicketByCode(code string) (*model.Ticket, error) {
	bid, ok := st.codes[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, t := range st.bookings[bid].Tickets {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (st *state) activeSeatIDs(screeningID uint64) []uint64 {
	ids := make([]uint64, 0)
	for k := range st.live {
		if k.screeningID == screeningID {
			ids = append(ids, k.seatID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
