package memory

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// The Put methods load reference data that the booking core treats as
// read-only: users, films, halls and seats.  They overwrite rows with
// the same id.

func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
}

func (s *Store) PutFilm(f model.Film) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.films[f.ID] = f
}

func (s *Store) PutHall(h model.Hall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.halls[h.ID] = h
}

func (s *Store) PutSeat(seat model.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.seats[seat.ID] = seat
}

// PutScreening stores a screening as is, keeping its id.  It is meant for
// loading history (for example a screening that already ran).
func (s *Store) PutScreening(sc model.Screening) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.screenings[sc.ID] = sc
	if sc.ID > s.st.nextScreening {
		s.st.nextScreening = sc.ID
	}
}

// PutHallWithSeats stores h and generates its full seat grid.  Seat ids
// start at firstSeatID and run row by row.  Rows listed in premium use
// premiumType, all other rows use standardType.
func (s *Store) PutHallWithSeats(h model.Hall, firstSeatID uint64, standardType, premiumType model.SeatType, premium ...uint32) []model.Seat {
	vip := make(map[uint32]bool, len(premium))
	for _, r := range premium {
		vip[r] = true
	}
	seats := make([]model.Seat, 0, h.Capacity())
	id := firstSeatID
	for row := uint32(1); row <= h.Rows; row++ {
		st := standardType
		if vip[row] {
			st = premiumType
		}
		for n := uint32(1); n <= h.SeatsPerRow; n++ {
			seats = append(seats, model.Seat{ID: id, HallID: h.ID, RowNumber: row, SeatNumber: n, Type: st})
			id++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.halls[h.ID] = h
	for _, seat := range seats {
		s.st.seats[seat.ID] = seat
	}
	return seats
}

// Standard and VIP seat types used by the demo catalogue.
var (
	StandardSeat = model.SeatType{ID: 1, Name: "STANDARD", PriceMultiplier: decimal.RequireFromString("1.0")}
	VIPSeat      = model.SeatType{ID: 2, Name: "VIP", PriceMultiplier: decimal.RequireFromString("1.5")}
)

// SeedDemo loads a small catalogue so the server can run without MySQL:
// two users, two films and two halls with a VIP back row.
func (s *Store) SeedDemo() {
	s.PutUser(model.User{ID: 1, Email: "alice@example.com", IsActive: true})
	s.PutUser(model.User{ID: 2, Email: "bob@example.com", IsActive: true})
	s.PutFilm(model.Film{ID: 1, Title: "The Long Night", DurationMinutes: 120})
	s.PutFilm(model.Film{ID: 2, Title: "Short Stories", DurationMinutes: 90})
	s.PutHallWithSeats(model.Hall{
		ID: 1, Name: "Hall 1", BasePrice: decimal.RequireFromString("300.00"),
		Rows: 8, SeatsPerRow: 12, Status: model.HallAvailable,
	}, 1, StandardSeat, VIPSeat, 8)
	s.PutHallWithSeats(model.Hall{
		ID: 2, Name: "Hall 2", BasePrice: decimal.RequireFromString("250.00"),
		Rows: 5, SeatsPerRow: 10, Status: model.HallAvailable,
	}, 1001, StandardSeat, VIPSeat, 5)
}
