// Package repository is the MySQL implementation of store.Store.
//
// Reads outside a transaction go straight to the pool.  Writes run
// inside InTx, where every read sees the transaction's own changes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking-core/internal/store"
)

// querier is the part of *sql.DB and *sql.Tx the repository uses.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo holds the read queries shared by Store and txRepo.
type repo struct {
	q querier
}

// txRepo adds the write queries, available only inside a transaction.
type txRepo struct {
	*repo
	tx *sql.Tx
}

// Store is a store.Store backed by MySQL.
type Store struct {
	*repo
	db *sql.DB
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*txRepo)(nil)
)

// New returns a Store using db.
func New(db *sql.DB) *Store {
	return &Store{repo: &repo{q: db}, db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn inside a READ COMMITTED transaction.  Seat and schedule
// exclusivity rely on unique keys and explicit row locks, not on the
// isolation level.  A deadlock or lock wait timeout anywhere in the
// transaction is reported as store.ErrConflict.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&txRepo{repo: &repo{q: tx}, tx: tx}); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classifyError(err))
	}
	committed = true
	return nil
}

// notFound converts sql.ErrNoRows into store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
