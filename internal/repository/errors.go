package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-booking-core/internal/store"
)

// MySQL error numbers the repository translates.
const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// Unique key names from the tickets table, used to tell which
// constraint a duplicate entry violated.
const (
	keyLiveSeat   = "uq_tickets_live_seat"
	keyTicketCode = "uq_tickets_code"
)

// classifyError maps a unique key violation on tickets to the store
// sentinel for that key and a deadlock or lock wait timeout to
// store.ErrConflict.  Other errors are returned unchanged.
func classifyError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || errors.Is(err, store.ErrConflict) {
		return err
	}
	switch me.Number {
	case erLockDeadlock, erLockWaitTimeout:
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	case erDupEntry:
		switch {
		case strings.Contains(me.Message, keyTicketCode):
			return store.ErrTicketCodeTaken
		case strings.Contains(me.Message, keyLiveSeat):
			return store.ErrSeatTaken
		}
	}
	return err
}
