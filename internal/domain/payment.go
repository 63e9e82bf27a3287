package domain

import "time"

// AttemptStatus is the lifecycle of a single payment attempt.
// An attempt transitions out of pending exactly once.
type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptApproved AttemptStatus = "approved"
	AttemptRejected AttemptStatus = "rejected"
)

// PaymentAttempt is one payment-account selection and its approval lifecycle.
// Many attempts may exist per user; workflow logic keeps at most one pending.
type PaymentAttempt struct {
	ID         int64         `db:"id"`
	ChatID     int64         `db:"chat_id"`
	Package    *Package      `db:"package"`
	Account    string        `db:"payment_account"`
	Status     AttemptStatus `db:"status"`
	CreatedAt  time.Time     `db:"created_at"`
	ApprovedAt *time.Time    `db:"approved_at"`
}
