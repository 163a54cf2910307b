package model

import "time"

// Film is the catalog entry a screening shows.  Only the duration
// matters to scheduling.
type Film struct {
	ID              uint64 // films.id
	Title           string // films.title
	DurationMinutes uint32 // films.duration_minutes
}

// Duration returns the running time of the film.
func (f Film) Duration() time.Duration {
	return time.Duration(f.DurationMinutes) * time.Minute
}
