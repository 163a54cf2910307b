package memory

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

// tx operates on the private state copy of one InTx call.
type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) GetUser(_ context.Context, id uint64) (*model.User, error) { return t.st.getUser(id) }
func (t *tx) GetFilm(_ context.Context, id uint64) (*model.Film, error) { return t.st.getFilm(id) }
func (t *tx) GetHall(_ context.Context, id uint64) (*model.Hall, error) { return t.st.getHall(id) }
func (t *tx) GetSeat(_ context.Context, id uint64) (*model.Seat, error) { return t.st.getSeat(id) }

func (t *tx) ListSeatsByHall(_ context.Context, hallID uint64) ([]model.Seat, error) {
	return t.st.listSeatsByHall(hallID), nil
}

func (t *tx) GetScreening(_ context.Context, id uint64) (*model.Screening, error) {
	return t.st.getScreening(id)
}

func (t *tx) FindOverlappingScreenings(_ context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error) {
	return t.st.findOverlapping(hallID, from, until), nil
}

func (t *tx) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	return t.st.getBooking(id)
}

func (t *tx) ListBookingsByScreening(_ context.Context, screeningID uint64) ([]model.Booking, error) {
	return t.st.listBookings(func(b model.Booking) bool { return b.ScreeningID == screeningID }), nil
}

func (t *tx) ListBookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return t.st.listBookings(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (t *tx) GetTicketByCode(_ context.Context, code string) (*model.Ticket, error) {
	return t.st.getTicketByCode(code)
}

func (t *tx) ActiveSeatIDs(_ context.Context, screeningID uint64) ([]uint64, error) {
	return t.st.activeSeatIDs(screeningID), nil
}

func (t *tx) HasActiveTicket(_ context.Context, screeningID, seatID uint64) (bool, error) {
	_, ok := t.st.live[seatKey{screeningID, seatID}]
	return ok, nil
}

// LockHall is a no-op: InTx already holds the store-wide lock.
func (t *tx) LockHall(_ context.Context, hallID uint64) error {
	if _, ok := t.st.halls[hallID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

// LockScreening is a no-op for the same reason as LockHall.
func (t *tx) LockScreening(_ context.Context, id uint64, _ store.LockMode) error {
	if _, ok := t.st.screenings[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) InsertScreening(_ context.Context, s *model.Screening) error {
	t.st.nextScreening++
	s.ID = t.st.nextScreening
	s.CreatedAt = t.now().UTC()
	t.st.screenings[s.ID] = *s
	return nil
}

func (t *tx) UpdateScreeningStatus(_ context.Context, id uint64, status model.ScreeningStatus) error {
	s, ok := t.st.screenings[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	t.st.screenings[id] = s
	return nil
}

func (t *tx) InsertBooking(_ context.Context, b *model.Booking) error {
	// Check every key before touching the state so a failed insert leaves
	// nothing behind even within the transaction.
	seen := make(map[seatKey]struct{}, len(b.Tickets))
	codes := make(map[string]struct{}, len(b.Tickets))
	for _, tk := range b.Tickets {
		k := seatKey{b.ScreeningID, tk.SeatID}
		if _, taken := t.st.live[k]; taken {
			return &store.SeatTakenError{ScreeningID: b.ScreeningID, SeatID: tk.SeatID}
		}
		if _, dup := seen[k]; dup {
			return &store.SeatTakenError{ScreeningID: b.ScreeningID, SeatID: tk.SeatID}
		}
		seen[k] = struct{}{}
		if _, taken := t.st.codes[tk.Code]; taken {
			return store.ErrTicketCodeTaken
		}
		if _, dup := codes[tk.Code]; dup {
			return store.ErrTicketCodeTaken
		}
		codes[tk.Code] = struct{}{}
	}

	now := t.now().UTC()
	t.st.nextBooking++
	b.ID = t.st.nextBooking
	b.CreatedAt = now
	b.UpdatedAt = now
	for i := range b.Tickets {
		t.st.nextTicket++
		tk := &b.Tickets[i]
		tk.ID = t.st.nextTicket
		tk.BookingID = b.ID
		tk.ScreeningID = b.ScreeningID
		tk.CreatedAt = now
		if b.Status != model.BookingCancelled {
			t.st.live[seatKey{b.ScreeningID, tk.SeatID}] = tk.ID
		}
		t.st.codes[tk.Code] = b.ID
	}
	stored := *b
	stored.Tickets = append([]model.Ticket(nil), b.Tickets...)
	t.st.bookings[b.ID] = stored
	return nil
}

func (t *tx) UpdateBookingStatus(_ context.Context, id uint64, status model.BookingStatus) error {
	b, ok := t.st.bookings[id]
	if !ok {
		return store.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = t.now().UTC()
	t.st.bookings[id] = b
	if status == model.BookingCancelled {
		for _, tk := range b.Tickets {
			k := seatKey{b.ScreeningID, tk.SeatID}
			if t.st.live[k] == tk.ID {
				delete(t.st.live, k)
			}
		}
	}
	return nil
}
