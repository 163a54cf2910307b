package model

import "time"

// ScreeningStatus is the lifecycle state of a screening.  Only SCHEDULED
// and CANCELLED are stored; ACTIVE and COMPLETED are derived from the
// clock when the screening is read.
type ScreeningStatus string

const (
	ScreeningScheduled ScreeningStatus = "SCHEDULED"
	ScreeningActive    ScreeningStatus = "ACTIVE"
	ScreeningCompleted ScreeningStatus = "COMPLETED"
	ScreeningCancelled ScreeningStatus = "CANCELLED"
)

// Screening is a showing of a film in a hall at a given start time.
//
// Fields:
//  ID              – primary key identifier.
//  FilmID          – film being shown.
//  HallID          – hall hosting the screening.
//  StartsAt        – start of the film.
//  DurationMinutes – film running time, copied at creation.
//  OccupiedUntil   – end of the film plus the cleanup buffer; the hall
//                    cannot host another screening before this instant.
//  Status          – persisted status (SCHEDULED or CANCELLED).
type Screening struct {
	ID              uint64          // screenings.id
	FilmID          uint64          // screenings.film_id
	HallID          uint64          // screenings.hall_id
	StartsAt        time.Time       // screenings.starts_at
	DurationMinutes uint32          // screenings.duration_minutes
	OccupiedUntil   time.Time       // screenings.occupied_until
	Status          ScreeningStatus // screenings.status
	CreatedAt       time.Time       // screenings.created_at
}

// EndsAt returns the instant the film ends, excluding cleanup.
func (s Screening) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
