// Package repository implements the durable store for users and payment
// attempts on PostgreSQL. Every workflow event maps to exactly one method
// here, and every method runs inside a single transaction so a transition
// either fully commits or is reported upward untouched.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrUserNotFound is returned when no user row exists for the actor.
	ErrUserNotFound = errors.New("repository: user not found")
	// ErrAttemptNotOwned is returned when a payment attempt id does not
	// belong to the actor named in the event.
	ErrAttemptNotOwned = errors.New("repository: payment attempt not owned by actor")
)

const opTimeout = 5 * time.Second

// Store provides transactional access to users and payment attempts.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an established database connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// withTx runs fn inside one bounded transaction, committing on success and
// rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
