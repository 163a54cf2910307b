package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer drains the event queues and appends one line per event
// to an audit file.
type AuditConsumer struct {
	url  string
	path string
	log  *zap.Logger
}

// NewAuditConsumer returns a consumer writing to path.
func NewAuditConsumer(url, path string, log *zap.Logger) *AuditConsumer {
	return &AuditConsumer{url: url, path: path, log: log.Named("audit-consumer")}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	key string
	d   amqp.Delivery
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)
	for _, q := range Queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(key string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{key: key, d: d}:
				case <-done:
					return
				}
			}
		}(q, msgs)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-closed:
			if err != nil {
				return err
			}
			return errors.New("channel closed")
		case m := <-merged:
			if err := c.handle(m.key, m.d.Body); err != nil {
				c.log.Error("handle message failed", zap.String("queue", m.key), zap.Error(err))
				_ = m.d.Nack(false, false)
				continue
			}
			_ = m.d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handle(key string, body []byte) error {
	line, err := FormatAuditLine(key, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	c.log.Info("event recorded", zap.String("queue", key))
	return nil
}

// FormatAuditLine renders one event as a single human-readable line.
func FormatAuditLine(key string, body []byte) (string, error) {
	switch key {
	case BookingCreated, BookingConfirmed, BookingCancelled:
		var ev BookingEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", key, err)
		}
		return fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | screening_id=%d | hall_id=%d | status=%s | total=%s | tickets=[%s]",
			ev.OccurredAt, key, ev.BookingID, ev.UserID, ev.ScreeningID, ev.HallID, ev.Status, ev.TotalCost,
			strings.Join(ev.TicketCodes, ",")), nil
	case ScreeningCancelled:
		var ev ScreeningCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", key, err)
		}
		ids := make([]string, 0, len(ev.CancelledBookings))
		for _, id := range ev.CancelledBookings {
			ids = append(ids, fmt.Sprint(id))
		}
		return fmt.Sprintf("[%s] %s | screening_id=%d | hall_id=%d | starts_at=%s | cancelled_bookings=[%s]",
			ev.OccurredAt, key, ev.ScreeningID, ev.HallID, ev.StartsAt, strings.Join(ids, ",")), nil
	}
	return "", fmt.Errorf("unknown routing key %q", key)
}
