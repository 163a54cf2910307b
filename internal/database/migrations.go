package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migrate creates the booking schema when it does not exist.  Statements
// are idempotent and run in order; the first failure stops the run.
func Migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	migrations := []string{
		createUsersTable,
		createFilmsTable,
		createSeatTypesTable,
		createHallsTable,
		createSeatsTable,
		createScreeningsTable,
		createBookingsTable,
		createTicketsTable,
	}

	for i, m := range migrations {
		log.Debug("running migration", zap.Int("step", i+1))
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	log.Info("schema migrations complete", zap.Int("steps", len(migrations)))
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    email      VARCHAR(255) NOT NULL UNIQUE,
    is_active  TINYINT(1)   NOT NULL DEFAULT 1,
    created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createFilmsTable = `
CREATE TABLE IF NOT EXISTS films (
    id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    title            VARCHAR(255) NOT NULL,
    duration_minutes INT UNSIGNED NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createSeatTypesTable = `
CREATE TABLE IF NOT EXISTS seat_types (
    id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name             VARCHAR(50)   NOT NULL UNIQUE,
    price_multiplier DECIMAL(5,2)  NOT NULL DEFAULT 1.00
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createHallsTable = `
CREATE TABLE IF NOT EXISTS halls (
    id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name          VARCHAR(100)  NOT NULL,
    base_price    DECIMAL(10,2) NOT NULL,
    seat_rows     INT UNSIGNED  NOT NULL,
    seats_per_row INT UNSIGNED  NOT NULL,
    status        ENUM('AVAILABLE','MAINTENANCE','CLOSED','RESERVED') NOT NULL DEFAULT 'AVAILABLE',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    hall_id      BIGINT UNSIGNED NOT NULL,
    seat_row     INT UNSIGNED    NOT NULL,
    seat_number  INT UNSIGNED    NOT NULL,
    seat_type_id BIGINT UNSIGNED NOT NULL,
    UNIQUE KEY uq_seats_position (hall_id, seat_row, seat_number),
    CONSTRAINT fk_seats_hall FOREIGN KEY (hall_id) REFERENCES halls(id),
    CONSTRAINT fk_seats_type FOREIGN KEY (seat_type_id) REFERENCES seat_types(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createScreeningsTable = `
CREATE TABLE IF NOT EXISTS screenings (
    id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    film_id          BIGINT UNSIGNED NOT NULL,
    hall_id          BIGINT UNSIGNED NOT NULL,
    starts_at        DATETIME NOT NULL,
    duration_minutes INT UNSIGNED NOT NULL,
    occupied_until   DATETIME NOT NULL,
    status           ENUM('SCHEDULED','CANCELLED') NOT NULL DEFAULT 'SCHEDULED',
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_screenings_hall_time (hall_id, starts_at, occupied_until),
    CONSTRAINT fk_screenings_film FOREIGN KEY (film_id) REFERENCES films(id),
    CONSTRAINT fk_screenings_hall FOREIGN KEY (hall_id) REFERENCES halls(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    user_id      BIGINT UNSIGNED NOT NULL,
    screening_id BIGINT UNSIGNED NOT NULL,
    status       ENUM('PENDING','CONFIRMED','CANCELLED') NOT NULL DEFAULT 'PENDING',
    total_cost   DECIMAL(14,4) NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_bookings_user (user_id, created_at),
    KEY idx_bookings_screening (screening_id),
    CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id),
    CONSTRAINT fk_bookings_screening FOREIGN KEY (screening_id) REFERENCES screenings(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// active is 1 while the booking is live and NULL once it is cancelled.
// NULLs never collide in a unique key, so uq_tickets_live_seat admits
// any number of cancelled tickets but only one live ticket per seat.
const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    booking_id   BIGINT UNSIGNED NOT NULL,
    screening_id BIGINT UNSIGNED NOT NULL,
    seat_id      BIGINT UNSIGNED NOT NULL,
    price        DECIMAL(14,4) NOT NULL,
    ticket_code  VARCHAR(32)   NOT NULL,
    active       TINYINT(1)    NULL DEFAULT 1,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_tickets_live_seat (screening_id, seat_id, active),
    UNIQUE KEY uq_tickets_code (ticket_code),
    KEY idx_tickets_booking (booking_id),
    CONSTRAINT fk_tickets_booking FOREIGN KEY (booking_id) REFERENCES bookings(id),
    CONSTRAINT fk_tickets_seat FOREIGN KEY (seat_id) REFERENCES seats(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
