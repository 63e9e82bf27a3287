package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regbot/core/logger"
	"regbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

// CreateAttempt opens a fresh pending payment attempt for the actor and
// returns its id. Any attempt still pending for the same actor is rejected
// in the same transaction, so at most one attempt is ever live.
func (s *Store) CreateAttempt(ctx context.Context, chatID int64, pkg *domain.Package, account string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE payments SET status = $1 WHERE chat_id = $2 AND status = $3`,
			domain.AttemptRejected, chatID, domain.AttemptPending,
		)
		if err != nil {
			return fmt.Errorf("cancel prior attempts: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logger.Debug(ctx, "service.payments", "attempt.superseded",
				slog.Int64("chat_id", chatID),
				slog.Int64("count", n),
			)
		}

		err = tx.QueryRowxContext(ctx,
			`INSERT INTO payments (chat_id, package, payment_account, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			chatID, pkg, account, domain.AttemptPending,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ApprovePayment marks the attempt approved and advances the user, both in
// one transaction. attemptID may be nil, in which case only the user record
// is touched. Re-approving an already approved attempt just refreshes the
// timestamps. An attempt belonging to a different actor is refused.
func (s *Store) ApprovePayment(ctx context.Context, chatID int64, attemptID *int64, at time.Time) error {
	at = stamp(at)
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if attemptID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE payments SET status = $1, approved_at = $2
				 WHERE id = $3 AND chat_id = $4`,
				domain.AttemptApproved, at, *attemptID, chatID,
			)
			if err != nil {
				return fmt.Errorf("approve attempt: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if n == 0 {
				return ErrAttemptNotOwned
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET payment_status = $1, approved_at = $2 WHERE chat_id = $3`,
			domain.StatusApproved, at, chatID,
		)
		if err != nil {
			return fmt.Errorf("approve user: %w", err)
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

// RejectPayment marks the attempt rejected and resets the user to new, the
// single permitted status regression.
func (s *Store) RejectPayment(ctx context.Context, chatID int64, attemptID *int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if attemptID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE payments SET status = $1 WHERE id = $2 AND chat_id = $3`,
				domain.AttemptRejected, *attemptID, chatID,
			)
			if err != nil {
				return fmt.Errorf("reject attempt: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if n == 0 {
				return ErrAttemptNotOwned
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET payment_status = $1 WHERE chat_id = $2`,
			domain.StatusNew, chatID,
		)
		if err != nil {
			return fmt.Errorf("reset user: %w", err)
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

// FinalizeRegistration is the terminal transition: it stores the issued
// username, marks the user registered with a registration timestamp, and
// approves any attempt for the actor still sitting in pending as a
// best-effort cleanup of the attempt that led here.
func (s *Store) FinalizeRegistration(ctx context.Context, chatID int64, username string, at time.Time) error {
	at = stamp(at)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET username = $1, payment_status = $2, registered_at = $3
			 WHERE chat_id = $4`,
			username, domain.StatusRegistered, at, chatID,
		)
		if err != nil {
			return fmt.Errorf("register user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrUserNotFound
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE payments SET status = $1, approved_at = $2
			 WHERE chat_id = $3 AND status = $4`,
			domain.AttemptApproved, at, chatID, domain.AttemptPending,
		)
		if err != nil {
			return fmt.Errorf("settle pending attempts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "service.payments", "registration.finalized",
		slog.Int64("chat_id", chatID),
	)
	return nil
}
