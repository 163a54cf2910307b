// Package apperr defines the error kinds the booking core reports to its
// callers.  Handlers translate a Kind into an HTTP status; everything that
// is not an *Error is treated as an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	NotFound         Kind = "NOT_FOUND"
	InvalidRequest   Kind = "INVALID_REQUEST"
	InvalidState     Kind = "INVALID_STATE"
	ScheduleConflict Kind = "SCHEDULE_CONFLICT"
	SeatUnavailable  Kind = "SEAT_UNAVAILABLE"
)

// Error is a domain failure.  SeatID is set only for SeatUnavailable.
type Error struct {
	Kind    Kind
	Message string
	SeatID  uint64
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperr.ErrNotFound) works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = &Error{Kind: NotFound}
	ErrInvalidRequest   = &Error{Kind: InvalidRequest}
	ErrInvalidState     = &Error{Kind: InvalidState}
	ErrScheduleConflict = &Error{Kind: ScheduleConflict}
	ErrSeatUnavailable  = &Error{Kind: SeatUnavailable}
)

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error { return newf(NotFound, format, args...) }

func InvalidRequestf(format string, args ...any) *Error {
	return newf(InvalidRequest, format, args...)
}

func InvalidStatef(format string, args ...any) *Error { return newf(InvalidState, format, args...) }

func ScheduleConflictf(format string, args ...any) *Error {
	return newf(ScheduleConflict, format, args...)
}

// Unavailable reports that seatID is already taken at the screening.
func Unavailable(seatID uint64) *Error {
	return &Error{Kind: SeatUnavailable, Message: fmt.Sprintf("seat %d is already booked", seatID), SeatID: seatID}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when
// err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
