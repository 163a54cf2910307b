// Package booking is the entry point of the booking core.  The Engine
// validates requests, prices seats and persists bookings and screenings
// through a store transaction, so either every effect of an operation is
// visible afterwards or none is.
package booking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/apperr"
	"github.com/iliyamo/cinema-booking-core/internal/availability"
	"github.com/iliyamo/cinema-booking-core/internal/lifecycle"
	"github.com/iliyamo/cinema-booking-core/internal/logger"
	"github.com/iliyamo/cinema-booking-core/internal/metrics"
	"github.com/iliyamo/cinema-booking-core/internal/model"
	"github.com/iliyamo/cinema-booking-core/internal/pricing"
	"github.com/iliyamo/cinema-booking-core/internal/queue"
	"github.com/iliyamo/cinema-booking-core/internal/scheduling"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

const (
	// seatRetries is how many times a booking is retried after the store
	// rejects a seat that looked free when it was checked, or aborts the
	// transaction on a lock conflict.
	seatRetries = 1
	// codeAttempts bounds ticket code regeneration after a collision.
	codeAttempts = 3
)

// Publisher delivers domain events.  Delivery is best effort: failures
// are logged and never undo a committed operation.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Options configures an Engine.  Zero values select defaults.
type Options struct {
	CleanupBuffer time.Duration    // default scheduling.DefaultBuffer
	TicketPrefix  string           // default "TK"
	Now           func() time.Time // default time.Now
	Logger        *zap.Logger      // default no-op
	Metrics       *metrics.Metrics // default unregistered collectors
	Publisher     Publisher        // nil disables events
}

// Engine implements the booking and scheduling operations.
type Engine struct {
	store     store.Store
	validator *scheduling.Validator
	prefix    string
	now       func() time.Time
	log       *zap.Logger
	metrics   *metrics.Metrics
	pub       Publisher
	newCode   func(prefix string, now time.Time) string
}

// New returns an Engine over st.
func New(st store.Store, opts Options) *Engine {
	if opts.CleanupBuffer == 0 {
		opts.CleanupBuffer = scheduling.DefaultBuffer
	}
	if opts.TicketPrefix == "" {
		opts.TicketPrefix = "TK"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &Engine{
		store:     st,
		validator: scheduling.NewValidator(opts.CleanupBuffer),
		prefix:    opts.TicketPrefix,
		now:       opts.Now,
		log:       opts.Logger.Named("booking"),
		metrics:   opts.Metrics,
		pub:       opts.Publisher,
		newCode:   ticketCode,
	}
}

func (e *Engine) logger(ctx context.Context) *zap.Logger { return logger.WithContext(ctx, e.log) }

// CreateBooking books seatIDs at screeningID for userID.  The booking
// starts PENDING and its total is the sum of the ticket prices.  Either
// every seat is booked or none is.
func (e *Engine) CreateBooking(ctx context.Context, userID, screeningID uint64, seatIDs []uint64) (*BookingView, error) {
	log := e.logger(ctx).With(zap.Uint64("user_id", userID), zap.Uint64("screening_id", screeningID))

	var (
		b         *model.Booking
		screening *model.Screening
		err       error
		seatTries int
		codeTries int
	)
	for {
		b, screening, err = e.createBookingTx(ctx, userID, screeningID, seatIDs)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrTicketCodeTaken) && codeTries < codeAttempts-1:
			codeTries++
			e.metrics.BookingRetries.WithLabelValues("ticket_code").Inc()
			log.Warn("ticket code collision, regenerating", zap.Int("attempt", codeTries+1))
			continue
		case errors.Is(err, store.ErrSeatTaken) && seatTries < seatRetries:
			seatTries++
			e.metrics.BookingRetries.WithLabelValues("seat_taken").Inc()
			log.Warn("seat taken at commit, retrying with fresh availability")
			continue
		case errors.Is(err, store.ErrConflict) && seatTries < seatRetries:
			seatTries++
			e.metrics.BookingRetries.WithLabelValues("lock_conflict").Inc()
			log.Warn("transaction aborted by lock conflict, retrying", zap.Error(err))
			continue
		case errors.Is(err, store.ErrSeatTaken), errors.Is(err, store.ErrConflict):
			err = e.seatTakenError(ctx, err, screeningID, seatIDs)
		}
		break
	}
	if err != nil {
		e.recordFailure("create", err)
		if apperr.KindOf(err) == apperr.SeatUnavailable {
			log.Info("booking rejected, seat unavailable", zap.Error(err))
		}
		return nil, err
	}

	e.metrics.Bookings.WithLabelValues("create", metrics.OK).Inc()
	e.metrics.TicketsIssued.Add(float64(len(b.Tickets)))
	log.Info("booking created",
		zap.Uint64("booking_id", b.ID),
		zap.Int("tickets", len(b.Tickets)),
		zap.String("total", b.TotalCost.String()))
	e.publishBooking(ctx, queue.BookingCreated, *b, *screening)

	v := bookingView(*b, b.Status)
	return &v, nil
}

func checkSeatList(seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return apperr.InvalidRequestf("at least one seat is required")
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			return apperr.InvalidRequestf("seat %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (e *Engine) createBookingTx(ctx context.Context, userID, screeningID uint64, seatIDs []uint64) (*model.Booking, *model.Screening, error) {
	var (
		out       *model.Booking
		screening *model.Screening
	)
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		now := e.now()
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return lookupError(err, "user %d not found", userID)
		}
		if !user.IsActive {
			return apperr.InvalidStatef("user %d is inactive", userID)
		}
		if err := tx.LockScreening(ctx, screeningID, store.LockShared); err != nil {
			return lookupError(err, "screening %d not found", screeningID)
		}
		screening, err = tx.GetScreening(ctx, screeningID)
		if err != nil {
			return lookupError(err, "screening %d not found", screeningID)
		}
		if err := lifecycle.Bookable(*screening, now); err != nil {
			return err
		}
		if err := checkSeatList(seatIDs); err != nil {
			return err
		}
		hall, err := tx.GetHall(ctx, screening.HallID)
		if err != nil {
			return lookupError(err, "hall %d not found", screening.HallID)
		}

		index := availability.New(tx)
		b := &model.Booking{
			UserID:      userID,
			ScreeningID: screeningID,
			Status:      model.BookingPending,
			Tickets:     make([]model.Ticket, 0, len(seatIDs)),
		}
		prices := make([]decimal.Decimal, 0, len(seatIDs))
		for _, id := range seatIDs {
			seat, err := tx.GetSeat(ctx, id)
			if err != nil {
				return lookupError(err, "seat %d not found", id)
			}
			if seat.HallID != screening.HallID {
				return apperr.InvalidRequestf("seat %d is not in hall %d", id, screening.HallID)
			}
			free, err := index.IsAvailable(ctx, screeningID, id)
			if err != nil {
				return err
			}
			if !free {
				return apperr.Unavailable(id)
			}
			price := pricing.Price(*hall, seat.Type)
			prices = append(prices, price)
			b.Tickets = append(b.Tickets, model.Ticket{
				ScreeningID: screeningID,
				SeatID:      id,
				Price:       price,
				Code:        e.newCode(e.prefix, now),
			})
		}
		b.TotalCost = pricing.Total(prices...)
		// Concurrent bookings insert their seats in the same order.
		slices.SortFunc(b.Tickets, func(a, c model.Ticket) int { return cmp.Compare(a.SeatID, c.SeatID) })

		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, screening, nil
}

// seatTakenError turns a store uniqueness failure into SeatUnavailable
// naming the seat, looking it up when the store could not say which.
func (e *Engine) seatTakenError(ctx context.Context, err error, screeningID uint64, seatIDs []uint64) error {
	var taken *store.SeatTakenError
	if errors.As(err, &taken) {
		return apperr.Unavailable(taken.SeatID)
	}
	index := availability.New(e.store)
	for _, id := range seatIDs {
		if free, lookupErr := index.IsAvailable(ctx, screeningID, id); lookupErr == nil && !free {
			return apperr.Unavailable(id)
		}
	}
	return apperr.Unavailable(seatIDs[0])
}

// ConfirmBooking moves a PENDING booking to CONFIRMED.
func (e *Engine) ConfirmBooking(ctx context.Context, bookingID uint64) (*BookingView, error) {
	return e.transitionBooking(ctx, "confirm", bookingID, model.BookingConfirmed, lifecycle.CanConfirm)
}

// CancelBooking cancels a PENDING or CONFIRMED booking and releases its
// seats.  Tickets are kept for history; the total cost is unchanged.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uint64) (*BookingView, error) {
	return e.transitionBooking(ctx, "cancel", bookingID, model.BookingCancelled, lifecycle.CanCancel)
}

type bookingGuard func(model.Booking, model.ScreeningStatus) error

func (e *Engine) transitionBooking(ctx context.Context, op string, bookingID uint64, to model.BookingStatus, guard bookingGuard) (*BookingView, error) {
	var (
		b         *model.Booking
		screening *model.Screening
	)
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return lookupError(err, "booking %d not found", bookingID)
		}
		screening, err = tx.GetScreening(ctx, b.ScreeningID)
		if err != nil {
			return fmt.Errorf("load screening %d of booking %d: %w", b.ScreeningID, bookingID, err)
		}
		if err := guard(*b, lifecycle.ScreeningStatus(*screening, e.now())); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, bookingID, to); err != nil {
			return err
		}
		b.Status = to
		return nil
	})
	if err != nil {
		e.recordFailure(op, err)
		return nil, err
	}

	e.metrics.Bookings.WithLabelValues(op, metrics.OK).Inc()
	e.logger(ctx).Info("booking "+string(to),
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("screening_id", b.ScreeningID))
	key := queue.BookingConfirmed
	if to == model.BookingCancelled {
		key = queue.BookingCancelled
	}
	e.publishBooking(ctx, key, *b, *screening)

	v := bookingView(*b, lifecycle.BookingStatus(*b, lifecycle.ScreeningStatus(*screening, e.now())))
	return &v, nil
}

// CreateScreening schedules filmID in hallID at start.  The hall row is
// locked for the duration of the check so concurrent proposals for one
// hall are decided one at a time.  start is truncated to whole seconds,
// the precision screenings are stored with.
func (e *Engine) CreateScreening(ctx context.Context, filmID, hallID uint64, start time.Time) (*ScreeningView, error) {
	start = start.Truncate(time.Second)
	var created *model.Screening
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		hall, err := tx.GetHall(ctx, hallID)
		if err != nil {
			return lookupError(err, "hall %d not found", hallID)
		}
		film, err := tx.GetFilm(ctx, filmID)
		if err != nil {
			return lookupError(err, "film %d not found", filmID)
		}
		if !start.IsZero() && !start.After(e.now()) {
			return apperr.InvalidRequestf("start time %s is not in the future", start.UTC().Format(time.RFC3339))
		}
		if err := tx.LockHall(ctx, hallID); err != nil {
			return lookupError(err, "hall %d not found", hallID)
		}
		s, err := e.validator.Validate(ctx, tx, *hall, *film, start)
		if err != nil {
			return err
		}
		if err := tx.InsertScreening(ctx, s); err != nil {
			return err
		}
		created = s
		return nil
	})
	if err != nil {
		e.metrics.Screenings.WithLabelValues("create", outcome(err)).Inc()
		if apperr.KindOf(err) == apperr.ScheduleConflict {
			e.logger(ctx).Info("screening rejected", zap.Uint64("hall_id", hallID), zap.Error(err))
		}
		return nil, err
	}

	e.metrics.Screenings.WithLabelValues("create", metrics.OK).Inc()
	e.logger(ctx).Info("screening scheduled",
		zap.Uint64("screening_id", created.ID),
		zap.Uint64("hall_id", hallID),
		zap.Time("starts_at", created.StartsAt),
		zap.Time("occupied_until", created.OccupiedUntil))
	v := screeningView(*created, lifecycle.ScreeningStatus(*created, e.now()))
	return &v, nil
}

// CancelScreening cancels a SCHEDULED or ACTIVE screening and, in the
// same transaction, every booking on it that is not already cancelled.
// The screening row is locked first, so bookings still in flight either
// commit before the cascade reads them or see the screening cancelled.
func (e *Engine) CancelScreening(ctx context.Context, screeningID uint64) (*ScreeningView, error) {
	var (
		s         *model.Screening
		cancelled []uint64
	)
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.LockScreening(ctx, screeningID, store.LockExclusive); err != nil {
			return lookupError(err, "screening %d not found", screeningID)
		}
		var err error
		s, err = tx.GetScreening(ctx, screeningID)
		if err != nil {
			return lookupError(err, "screening %d not found", screeningID)
		}
		if err := lifecycle.CanCancelScreening(*s, e.now()); err != nil {
			return err
		}
		if err := tx.UpdateScreeningStatus(ctx, screeningID, model.ScreeningCancelled); err != nil {
			return err
		}
		s.Status = model.ScreeningCancelled

		bookings, err := tx.ListBookingsByScreening(ctx, screeningID)
		if err != nil {
			return err
		}
		cancelled = cancelled[:0]
		for _, b := range bookings {
			if b.Status == model.BookingCancelled {
				continue
			}
			if err := tx.UpdateBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
				return fmt.Errorf("cancel booking %d: %w", b.ID, err)
			}
			cancelled = append(cancelled, b.ID)
		}
		return nil
	})
	if err != nil {
		e.metrics.Screenings.WithLabelValues("cancel", outcome(err)).Inc()
		return nil, err
	}

	e.metrics.Screenings.WithLabelValues("cancel", metrics.OK).Inc()
	e.logger(ctx).Info("screening cancelled",
		zap.Uint64("screening_id", screeningID),
		zap.Int("bookings_cancelled", len(cancelled)))
	e.publish(ctx, queue.ScreeningCancelledEvent{
		ScreeningID:       s.ID,
		HallID:            s.HallID,
		FilmID:            s.FilmID,
		StartsAt:          queue.Timestamp(s.StartsAt),
		CancelledBookings: cancelled,
		OccurredAt:        queue.Timestamp(e.now()),
	})
	v := screeningView(*s, model.ScreeningCancelled)
	return &v, nil
}

// lookupError maps store.ErrNotFound to a NotFound domain error and
// wraps anything else.
func lookupError(err error, format string, args ...any) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func outcome(err error) string {
	if apperr.KindOf(err) != "" {
		return metrics.Rejected
	}
	return metrics.Failed
}

func (e *Engine) recordFailure(op string, err error) {
	e.metrics.Bookings.WithLabelValues(op, outcome(err)).Inc()
	if apperr.KindOf(err) == apperr.SeatUnavailable {
		e.metrics.SeatConflicts.Inc()
	}
}

func (e *Engine) publishBooking(ctx context.Context, key string, b model.Booking, s model.Screening) {
	ev := queue.BookingEvent{
		Type:        key,
		BookingID:   b.ID,
		UserID:      b.UserID,
		ScreeningID: b.ScreeningID,
		HallID:      s.HallID,
		FilmID:      s.FilmID,
		StartsAt:    queue.Timestamp(s.StartsAt),
		Status:      string(b.Status),
		SeatIDs:     make([]uint64, 0, len(b.Tickets)),
		TicketCodes: make([]string, 0, len(b.Tickets)),
		TotalCost:   b.TotalCost.String(),
		OccurredAt:  queue.Timestamp(e.now()),
	}
	for _, t := range b.Tickets {
		ev.SeatIDs = append(ev.SeatIDs, t.SeatID)
		ev.TicketCodes = append(ev.TicketCodes, t.Code)
	}
	e.publish(ctx, ev)
}

func (e *Engine) publish(ctx context.Context, ev queue.Event) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.metrics.EventsPublished.WithLabelValues(ev.RoutingKey(), metrics.Failed).Inc()
		e.logger(ctx).Warn("publish event failed", zap.String("routing_key", ev.RoutingKey()), zap.Error(err))
		return
	}
	e.metrics.EventsPublished.WithLabelValues(ev.RoutingKey(), metrics.OK).Inc()
}
