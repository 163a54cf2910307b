package model

import "time"

// User is the subset of an account the booking core needs: an identity
// and whether it may place bookings.  Credentials live elsewhere.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
}
