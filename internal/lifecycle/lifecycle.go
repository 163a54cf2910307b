// Package lifecycle derives screening and booking status from stored
// state and the clock, and guards the transitions callers may request.
//
// Derivation is pure: the same inputs always give the same status, so
// there is no background job advancing statuses in storage.
package lifecycle

import (
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// ScreeningStatus returns the effective status of s at now.  A cancelled
// screening stays cancelled; otherwise the status follows the film's
// running interval [start, start+duration).
func ScreeningStatus(s model.Screening, now time.Time) model.ScreeningStatus {
	if s.Status == model.ScreeningCancelled {
		return model.ScreeningCancelled
	}
	switch {
	case !now.Before(s.EndsAt()):
		return model.ScreeningCompleted
	case !now.Before(s.StartsAt):
		return model.ScreeningActive
	default:
		return model.ScreeningScheduled
	}
}

// BookingStatus returns the effective status of b given the effective
// status of its screening.  A cancelled booking stays cancelled; a
// cancelled or completed screening overrides any other stored status.
func BookingStatus(b model.Booking, screening model.ScreeningStatus) model.BookingStatus {
	if b.Status == model.BookingCancelled {
		return model.BookingCancelled
	}
	switch screening {
	case model.ScreeningCancelled:
		return model.BookingCancelled
	case model.ScreeningCompleted:
		return model.BookingCompleted
	}
	return b.Status
}

// Bookable reports whether new bookings may be placed on s at now: the
// screening must not be cancelled or completed and must not have started.
func Bookable(s model.Screening, now time.Time) error {
	switch st := ScreeningStatus(s, now); st {
	case model.ScreeningScheduled:
		return nil
	default:
		return apperr.InvalidStatef("screening %d is %s", s.ID, st)
	}
}

// CanConfirm allows PENDING -> CONFIRMED only.
func CanConfirm(b model.Booking, screening model.ScreeningStatus) error {
	if st := BookingStatus(b, screening); st != model.BookingPending {
		return apperr.InvalidStatef("booking %d is %s, only PENDING bookings can be confirmed", b.ID, st)
	}
	return nil
}

// CanCancel allows cancelling PENDING or CONFIRMED bookings.
func CanCancel(b model.Booking, screening model.ScreeningStatus) error {
	switch st := BookingStatus(b, screening); st {
	case model.BookingPending, model.BookingConfirmed:
		return nil
	default:
		return apperr.InvalidStatef("booking %d is %s and cannot be cancelled", b.ID, st)
	}
}

// CanCancelScreening allows cancelling SCHEDULED or ACTIVE screenings.
func CanCancelScreening(s model.Screening, now time.Time) error {
	switch st := ScreeningStatus(s, now); st {
	case model.ScreeningScheduled, model.ScreeningActive:
		return nil
	default:
		return apperr.InvalidStatef("screening %d is %s and cannot be cancelled", s.ID, st)
	}
}
