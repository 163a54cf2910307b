// Package metrics exposes Prometheus counters for booking and
// scheduling outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the booking engine updates.
type Metrics struct {
	Bookings        *prometheus.CounterVec
	Screenings      *prometheus.CounterVec
	SeatConflicts   prometheus.Counter
	BookingRetries  *prometheus.CounterVec
	TicketsIssued   prometheus.Counter
	EventsPublished *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.  A nil reg
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "bookings_total",
			Help:      "Booking operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Screenings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "screenings_total",
			Help:      "Screening operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		SeatConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "seat_conflicts_total",
			Help:      "Bookings rejected because a seat was already taken.",
		}),
		BookingRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "booking_retries_total",
			Help:      "Booking transactions retried after a uniqueness violation or lock conflict.",
		}, []string{"reason"}),
		TicketsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "tickets_issued_total",
			Help:      "Tickets created by successful bookings.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker by type and outcome.",
		}, []string{"type", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Bookings, m.Screenings, m.SeatConflicts, m.BookingRetries, m.TicketsIssued, m.EventsPublished)
	}
	return m
}

// Outcome labels.
const (
	OK       = "ok"
	Rejected = "rejected"
	Failed   = "failed"
)
