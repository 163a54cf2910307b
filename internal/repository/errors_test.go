package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-booking-core/internal/store"
)

func TestClassifyError(t *testing.T) {
	seat := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-3-1' for key 'tickets.uq_tickets_live_seat'"}
	code := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'TK-1-ABC' for key 'tickets.uq_tickets_code'"}
	other := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'users.email'"}
	syntax := &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}

	assert.ErrorIs(t, classifyError(seat), store.ErrSeatTaken)
	assert.ErrorIs(t, classifyError(fmt.Errorf("insert: %w", code)), store.ErrTicketCodeTaken)
	assert.Equal(t, error(other), classifyError(other))
	assert.Equal(t, error(syntax), classifyError(syntax))

	plain := errors.New("boom")
	assert.Equal(t, plain, classifyError(plain))
	assert.NoError(t, classifyError(nil))
}

func TestClassifyLockConflicts(t *testing.T) {
	for _, n := range []uint16{1213, 1205} {
		me := &mysql.MySQLError{Number: n, Message: "lock conflict"}
		err := classifyError(fmt.Errorf("insert tickets: %w", me))
		assert.ErrorIs(t, err, store.ErrConflict, "error %d", n)

		var got *mysql.MySQLError
		assert.True(t, errors.As(err, &got), "error %d keeps the driver error", n)
		assert.NotErrorIs(t, err, store.ErrSeatTaken)
	}
}
