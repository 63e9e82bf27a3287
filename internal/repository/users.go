package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"regbot/core/logger"
	"regbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

// EnsureUser creates the user row on first contact. Calling it again for the
// same actor changes nothing; it reports whether a row was created.
func (s *Store) EnsureUser(ctx context.Context, chatID int64, username, name string) (bool, error) {
	var created bool
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (chat_id, username, name, payment_status)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
			 ON CONFLICT (chat_id) DO NOTHING`,
			chatID, username, name, domain.StatusNew,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Debug(ctx, "service.users", "user.created",
			slog.Int64("chat_id", chatID),
		)
	}
	return created, nil
}

// UserByChatID loads a user row, returning ErrUserNotFound when absent.
func (s *Store) UserByChatID(ctx context.Context, chatID int64) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var u domain.User
	err := s.db.GetContext(ctx, &u,
		`SELECT chat_id, username, name, package, payment_status, approved_at, registered_at
		 FROM users WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// SetPackage records the chosen package and moves the user to
// pending_payment. The row is created when absent, so delivery order does
// not have to include a prior entry event.
func (s *Store) SetPackage(ctx context.Context, chatID int64, username, name string, pkg domain.Package) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (chat_id, username, name, package, payment_status)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
			 ON CONFLICT (chat_id) DO UPDATE
			 SET package = EXCLUDED.package, payment_status = EXCLUDED.payment_status`,
			chatID, username, name, pkg, domain.StatusPendingPayment,
		)
		if err != nil {
			return fmt.Errorf("upsert package: %w", err)
		}
		return nil
	})
}

// MarkPendingApproval advances the user after a screenshot was received.
func (s *Store) MarkPendingApproval(ctx context.Context, chatID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET payment_status = $1 WHERE chat_id = $2`,
			domain.StatusPendingApproval, chatID,
		)
		if err != nil {
			return fmt.Errorf("update payment_status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Stats aggregates the counters shown by the admin overview, including the
// ten most recent registrations.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var st domain.Stats
	row := s.db.QueryRowxContext(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE package = $1),
		        count(*) FILTER (WHERE package = $2)
		 FROM users`,
		domain.PackageStandard, domain.PackageX,
	)
	if err := row.Scan(&st.TotalUsers, &st.StandardCount, &st.XCount); err != nil {
		return domain.Stats{}, fmt.Errorf("count users: %w", err)
	}

	err := s.db.SelectContext(ctx, &st.Recent,
		`SELECT chat_id, username, name, package, payment_status, approved_at, registered_at
		 FROM users
		 WHERE registered_at IS NOT NULL
		 ORDER BY registered_at DESC
		 LIMIT 10`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("select recent registrations: %w", err)
	}
	return st, nil
}

// stamp truncates timestamps to microseconds to match Postgres precision.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
