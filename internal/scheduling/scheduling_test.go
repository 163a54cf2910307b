package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// sliceSource filters a fixed schedule the way the stores do.
type sliceSource []model.Screening

func (s sliceSource) FindOverlappingScreenings(_ context.Context, hallID uint64, from, until time.Time) ([]model.Screening, error) {
	var out []model.Screening
	for _, sc := range s {
		if sc.HallID == hallID && sc.Status != model.ScreeningCancelled && Overlaps(from, until, sc.StartsAt, sc.OccupiedUntil) {
			out = append(out, sc)
		}
	}
	return out, nil
}

type failingSource struct{}

func (failingSource) FindOverlappingScreenings(context.Context, uint64, time.Time, time.Time) ([]model.Screening, error) {
	return nil, errors.New("db down")
}

var (
	t0   = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	hall = model.Hall{ID: 1, Status: model.HallAvailable, Rows: 10, SeatsPerRow: 10}
	film = model.Film{ID: 2, Title: "Long Film", DurationMinutes: 120}
)

func existing() sliceSource {
	return sliceSource{{
		ID: 10, FilmID: 2, HallID: 1, StartsAt: t0, DurationMinutes: 120,
		OccupiedUntil: t0.Add(140 * time.Minute), Status: model.ScreeningScheduled,
	}}
}

func TestValidateBackToBackAllowed(t *testing.T) {
	v := NewValidator(20 * time.Minute)

	s, err := v.Validate(context.Background(), existing(), hall, film, t0.Add(140*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.ScreeningScheduled, s.Status)
	assert.Equal(t, t0.Add(280*time.Minute), s.OccupiedUntil)
	assert.Equal(t, uint32(120), s.DurationMinutes)
}

func TestValidateOneMinuteEarlyConflicts(t *testing.T) {
	v := NewValidator(20 * time.Minute)

	_, err := v.Validate(context.Background(), existing(), hall, film, t0.Add(139*time.Minute))
	assert.True(t, errors.Is(err, apperr.ErrScheduleConflict))
}

func TestValidateEndingExactlyAtExistingStartAllowed(t *testing.T) {
	v := NewValidator(20 * time.Minute)

	_, err := v.Validate(context.Background(), existing(), hall, film, t0.Add(-140*time.Minute))
	assert.NoError(t, err)
}

func TestValidateCancelledScreeningsIgnored(t *testing.T) {
	src := existing()
	src[0].Status = model.ScreeningCancelled

	_, err := NewValidator(DefaultBuffer).Validate(context.Background(), src, hall, film, t0.Add(30*time.Minute))
	assert.NoError(t, err)
}

func TestValidateOtherHallIgnored(t *testing.T) {
	other := hall
	other.ID = 2

	_, err := NewValidator(DefaultBuffer).Validate(context.Background(), existing(), other, film, t0)
	assert.NoError(t, err)
}

func TestValidateRejectsBadInput(t *testing.T) {
	v := NewValidator(DefaultBuffer)
	ctx := context.Background()

	_, err := v.Validate(ctx, existing(), hall, model.Film{ID: 3}, t0.Add(24*time.Hour))
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))

	_, err = v.Validate(ctx, existing(), hall, film, time.Time{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))

	closed := hall
	closed.Status = model.HallMaintenance
	_, err = v.Validate(ctx, existing(), closed, film, t0.Add(24*time.Hour))
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	_, err = v.Validate(ctx, failingSource{}, hall, film, t0)
	assert.ErrorContains(t, err, "db down")
}

func TestNegativeBufferIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewValidator(-time.Minute).Buffer())
}

func TestOverlaps(t *testing.T) {
	a, b := t0, t0.Add(time.Hour)
	assert.True(t, Overlaps(a, b, a.Add(59*time.Minute), b.Add(time.Hour)))
	assert.False(t, Overlaps(a, b, b, b.Add(time.Hour)))
	assert.False(t, Overlaps(a, b, a.Add(-time.Hour), a))
}
