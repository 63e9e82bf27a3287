package domain

import "time"

// Package identifies a purchasable registration package.
type Package string

const (
	// PackageStandard is the base offering.
	PackageStandard Package = "Standard"
	// PackageX grants access to special content.
	PackageX Package = "X"
)

// ValidPackage reports whether p is one of the known packages.
func ValidPackage(p Package) bool {
	return p == PackageStandard || p == PackageX
}

// PaymentStatus tracks a user's progress through the registration workflow.
// The only permitted regression is pending_approval -> new on rejection.
type PaymentStatus string

const (
	StatusNew             PaymentStatus = "new"
	StatusPendingPayment  PaymentStatus = "pending_payment"
	StatusPendingApproval PaymentStatus = "pending_approval"
	StatusApproved        PaymentStatus = "approved"
	StatusRegistered      PaymentStatus = "registered"
)

// User is one end-user chat identity and its registration progress.
type User struct {
	ChatID        int64         `db:"chat_id"`
	Username      *string       `db:"username"`
	Name          *string       `db:"name"`
	Package       *Package      `db:"package"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	ApprovedAt    *time.Time    `db:"approved_at"`
	RegisteredAt  *time.Time    `db:"registered_at"`
}

// Stats aggregates registration counters for the admin overview.
type Stats struct {
	TotalUsers    int64
	StandardCount int64
	XCount        int64
	Recent        []User
}
