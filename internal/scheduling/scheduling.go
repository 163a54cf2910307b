// Package scheduling checks that a proposed screening fits in its hall.
//
// A screening occupies its hall over the half-open interval
// [start, start+duration+buffer).  Two screenings in one hall conflict
// when those intervals intersect; back-to-back screenings whose
// intervals only touch are allowed.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// DefaultBuffer is the cleanup time reserved after each film.
const DefaultBuffer = 20 * time.Minute

// Source finds the screenings that could clash with a proposal.
type Source interface {
	FindOverlappingScreenings(ctx context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error)
}

// Validator checks new screenings against a hall's existing schedule.
type Validator struct {
	buffer time.Duration
}

// NewValidator returns a Validator reserving buffer after every film.
// A negative buffer is treated as zero.
func NewValidator(buffer time.Duration) *Validator {
	if buffer < 0 {
		buffer = 0
	}
	return &Validator{buffer: buffer}
}

// Buffer returns the cleanup buffer in use.
func (v *Validator) Buffer() time.Duration { return v.buffer }

// OccupiedUntil returns the end of the hall occupancy for a film starting at start.
func (v *Validator) OccupiedUntil(start time.Time, f model.Film) time.Time {
	return start.Add(f.Duration() + v.buffer)
}

// Validate checks that film can be shown in hall starting at start and
// returns the SCHEDULED screening to persist.  Callers must hold the
// hall lock so the read of existing screenings and the insert are not
// interleaved with another proposal for the same hall.
func (v *Validator) Validate(ctx context.Context, src Source, hall model.Hall, film model.Film, start time.Time) (*model.Screening, error) {
	if start.IsZero() {
		return nil, apperr.InvalidRequestf("start time is required")
	}
	if film.DurationMinutes == 0 {
		return nil, apperr.InvalidRequestf("film %d has no duration", film.ID)
	}
	if hall.Status != model.HallAvailable {
		return nil, apperr.InvalidStatef("hall %d is %s", hall.ID, hall.Status)
	}

	until := v.OccupiedUntil(start, film)
	clashes, err := src.FindOverlappingScreenings(ctx, hall.ID, start, until)
	if err != nil {
		return nil, fmt.Errorf("find overlapping screenings: %w", err)
	}
	for _, s := range clashes {
		if Overlaps(start, until, s.StartsAt, s.OccupiedUntil) && s.Status != model.ScreeningCancelled {
			return nil, apperr.ScheduleConflictf("hall %d is occupied by screening %d from %s until %s",
				hall.ID, s.ID, s.StartsAt.UTC().Format(time.RFC3339), s.OccupiedUntil.UTC().Format(time.RFC3339))
		}
	}

	return &model.Screening{
		FilmID:          film.ID,
		HallID:          hall.ID,
		StartsAt:        start,
		DurationMinutes: film.DurationMinutes,
		OccupiedUntil:   until,
		Status:          model.ScreeningScheduled,
	}, nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
