// Package workflow implements the registration and payment-approval state
// machine. Each inbound event kind maps to exactly one Engine operation that
// reads current durable and ephemeral state, applies the transition inside a
// single store transaction, and emits outbound notifications as effects of
// the committed change.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"regbot/core/logger"
	"regbot/internal/domain"
	"regbot/internal/repository"
	"regbot/internal/session"
)

// Actor identifies the originator of an inbound event.
type Actor struct {
	ID       int64
	Username string
	Name     string
}

// ActionKind enumerates the follow-up affordances attached to notifications.
type ActionKind string

const (
	ActionApprove  ActionKind = "approve"
	ActionReject   ActionKind = "reject"
	ActionFinalize ActionKind = "finalize"
)

// Action is a typed follow-up affordance. AttemptID may be zero when the
// action targets the user record only.
type Action struct {
	Kind      ActionKind
	Target    int64
	AttemptID int64
}

// Notifier delivers messages to specific actors. Delivery is best-effort and
// at-most-once per call; a failure never rolls back the store write that
// preceded it.
type Notifier interface {
	SendText(ctx context.Context, actorID int64, text string, actions ...Action) error
	SendImage(ctx context.Context, actorID int64, imageRef, caption string, actions ...Action) error
}

// UserStore is the durable store surface for user records.
type UserStore interface {
	EnsureUser(ctx context.Context, chatID int64, username, name string) (bool, error)
	UserByChatID(ctx context.Context, chatID int64) (domain.User, error)
	SetPackage(ctx context.Context, chatID int64, username, name string, pkg domain.Package) error
	MarkPendingApproval(ctx context.Context, chatID int64) error
}

// PaymentStore is the durable store surface for payment attempts. Each
// method commits as one transaction.
type PaymentStore interface {
	CreateAttempt(ctx context.Context, chatID int64, pkg *domain.Package, account string) (int64, error)
	ApprovePayment(ctx context.Context, chatID int64, attemptID *int64, at time.Time) error
	RejectPayment(ctx context.Context, chatID int64, attemptID *int64) error
	FinalizeRegistration(ctx context.Context, chatID int64, username string, at time.Time) error
}

// Config wires the engine's collaborators.
type Config struct {
	Users    UserStore
	Payments PaymentStore
	Sessions session.Tracker
	Notifier Notifier

	// IsAdmin gates admin-only transitions. AdminID is the delivery target
	// for review notifications; with a single administrator they describe
	// the same actor, but checks go through the predicate only.
	IsAdmin func(actorID int64) bool
	AdminID int64

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

// Engine is the workflow state machine.
type Engine struct {
	users    UserStore
	payments PaymentStore
	sessions session.Tracker
	notifier Notifier
	isAdmin  func(int64) bool
	adminID  int64
	now      func() time.Time
}

// NewEngine validates the configuration and constructs an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Users == nil || cfg.Payments == nil {
		return nil, fmt.Errorf("workflow: store is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("workflow: session tracker is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("workflow: notifier is required")
	}
	if cfg.IsAdmin == nil {
		return nil, fmt.Errorf("workflow: admin predicate is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		users:    cfg.Users,
		payments: cfg.Payments,
		sessions: cfg.Sessions,
		notifier: cfg.Notifier,
		isAdmin:  cfg.IsAdmin,
		adminID:  cfg.AdminID,
		now:      now,
	}, nil
}

// OnEntry ensures a user row exists for the actor. Safe to call on every
// first-contact event; repeated calls neither duplicate nor reset state.
func (e *Engine) OnEntry(ctx context.Context, actor Actor) error {
	created, err := e.users.EnsureUser(ctx, actor.ID, actor.Username, actor.Name)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if created {
		logger.Info(ctx, "service.workflow", "workflow.entry",
			slog.Int64("chat_id", actor.ID),
		)
	}
	return nil
}

// OnPackageChosen records the chosen package and moves the actor to
// pending_payment. Reachable from any status; it simply resets the attempt,
// so any stale expectation for the actor is dropped as superseded.
func (e *Engine) OnPackageChosen(ctx context.Context, actor Actor, pkg domain.Package) error {
	if !domain.ValidPackage(pkg) {
		return ErrUnknownPackage
	}
	if err := e.users.SetPackage(ctx, actor.ID, actor.Username, actor.Name, pkg); err != nil {
		return fmt.Errorf("set package: %w", err)
	}
	e.sessions.Clear(actor.ID)
	logger.Info(ctx, "service.workflow", "workflow.package_chosen",
		slog.Int64("chat_id", actor.ID),
		slog.String("package", string(pkg)),
	)
	return nil
}

// OnAccountSelected opens a fresh pending payment attempt for the actor's
// current package and starts expecting a screenshot. Requires a user with a
// package set.
func (e *Engine) OnAccountSelected(ctx context.Context, actor Actor, account string) (int64, error) {
	user, err := e.users.UserByChatID(ctx, actor.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return 0, ErrNoActiveRegistration
	}
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}
	if user.Package == nil {
		return 0, ErrNoActiveRegistration
	}

	attemptID, err := e.payments.CreateAttempt(ctx, actor.ID, user.Package, account)
	if err != nil {
		return 0, fmt.Errorf("create attempt: %w", err)
	}
	e.sessions.Set(actor.ID, session.Session{
		Expectation: session.AwaitingScreenshot,
		AttemptID:   attemptID,
	})
	logger.Info(ctx, "service.workflow", "workflow.account_selected",
		slog.Int64("chat_id", actor.ID),
		slog.Int64("attempt_id", attemptID),
		slog.String("account", account),
	)
	return attemptID, nil
}

// OnScreenshotSubmitted consumes the actor's awaiting_screenshot session,
// advances the user to pending_approval, and forwards the image to the
// administrator with approve/reject/finalize affordances.
func (e *Engine) OnScreenshotSubmitted(ctx context.Context, actor Actor, imageRef string) error {
	sess, ok := e.sessions.Get(actor.ID)
	if !ok || sess.Expectation != session.AwaitingScreenshot {
		return ErrNoActiveProcess
	}

	if err := e.users.MarkPendingApproval(ctx, actor.ID); err != nil {
		return fmt.Errorf("mark pending approval: %w", err)
	}
	e.sessions.Clear(actor.ID)

	who := actor.Username
	if who == "" {
		who = fmt.Sprintf("%d", actor.ID)
	}
	caption := fmt.Sprintf("Payment screenshot from @%s (chat_id: %d, attempt: %d)",
		who, actor.ID, sess.AttemptID)
	e.notify(ctx, func() error {
		return e.notifier.SendImage(ctx, e.adminID, imageRef, caption,
			Action{Kind: ActionApprove, Target: actor.ID, AttemptID: sess.AttemptID},
			Action{Kind: ActionReject, Target: actor.ID, AttemptID: sess.AttemptID},
			Action{Kind: ActionFinalize, Target: actor.ID},
		)
	})
	logger.Info(ctx, "service.workflow", "workflow.screenshot_submitted",
		slog.Int64("chat_id", actor.ID),
		slog.Int64("attempt_id", sess.AttemptID),
	)
	return nil
}

// OnApprove marks the payment approved and notifies both parties. attemptID
// may be nil, touching only the user record. Re-approval is permitted and
// just refreshes timestamps; an attempt owned by another actor is refused.
func (e *Engine) OnApprove(ctx context.Context, adminActor, target int64, attemptID *int64) error {
	if !e.isAdmin(adminActor) {
		return ErrNotAdmin
	}
	if err := e.payments.ApprovePayment(ctx, target, attemptID, e.now()); err != nil {
		if errors.Is(err, repository.ErrAttemptNotOwned) {
			return ErrAttemptMismatch
		}
		return fmt.Errorf("approve payment: %w", err)
	}

	e.notify(ctx, func() error {
		return e.notifier.SendText(ctx, target,
			"✅ Your payment has been approved by the admin. Await credentials to complete registration.")
	})
	e.notify(ctx, func() error {
		return e.notifier.SendText(ctx, e.adminID,
			fmt.Sprintf("Payment approved. Finalize the credentials for user %d when ready.", target),
			Action{Kind: ActionFinalize, Target: target})
	})
	logger.Info(ctx, "service.workflow", "workflow.approved", approvalAttrs(target, attemptID)...)
	return nil
}

// OnReject marks the payment rejected, resets the user to new, and notifies
// the target.
func (e *Engine) OnReject(ctx context.Context, adminActor, target int64, attemptID *int64) error {
	if !e.isAdmin(adminActor) {
		return ErrNotAdmin
	}
	if err := e.payments.RejectPayment(ctx, target, attemptID); err != nil {
		if errors.Is(err, repository.ErrAttemptNotOwned) {
			return ErrAttemptMismatch
		}
		return fmt.Errorf("reject payment: %w", err)
	}

	e.notify(ctx, func() error {
		return e.notifier.SendText(ctx, target,
			"❌ Your payment was not approved. Please try again or contact the admin.")
	})
	logger.Info(ctx, "service.workflow", "workflow.rejected", approvalAttrs(target, attemptID)...)
	return nil
}

// OnFinalizeRequested opens an awaiting_credentials session keyed by the
// administrator's own actor id. No durable state changes here; the admin is
// prompted to send the credential pair as free text.
func (e *Engine) OnFinalizeRequested(ctx context.Context, adminActor, target int64) error {
	if !e.isAdmin(adminActor) {
		return ErrNotAdmin
	}
	e.sessions.Set(adminActor, session.Session{
		Expectation: session.AwaitingCredentials,
		TargetID:    target,
	})
	e.notify(ctx, func() error {
		return e.notifier.SendText(ctx, adminActor,
			fmt.Sprintf("Send username and password for user %d in two lines:\nusername\npassword", target))
	})
	logger.Info(ctx, "service.workflow", "workflow.finalize_requested",
		slog.Int64("target_id", target),
	)
	return nil
}

// OnCredentialsSubmitted parses the administrator's two-line credential pair
// and performs the terminal transition for the target. Validation failures
// keep the session so the admin can retry. It returns the target actor id
// and the issued username for the caller's confirmation message.
func (e *Engine) OnCredentialsSubmitted(ctx context.Context, adminActor int64, rawText string) (int64, string, error) {
	sess, ok := e.sessions.Get(adminActor)
	if !ok || sess.Expectation != session.AwaitingCredentials {
		return 0, "", ErrNotAwaitingCredentials
	}

	username, password, err := parseCredentials(rawText)
	if err != nil {
		return 0, "", err
	}

	target := sess.TargetID
	if err := e.payments.FinalizeRegistration(ctx, target, username, e.now()); err != nil {
		// Session kept: the admin can resend once the store recovers.
		return 0, "", fmt.Errorf("finalize registration: %w", err)
	}
	e.sessions.Clear(adminActor)

	e.notify(ctx, func() error {
		return e.notifier.SendText(ctx, target,
			fmt.Sprintf("🎉 Registration complete!\nUsername: %s\nPassword: %s\n\nWelcome!", username, password))
	})
	logger.Info(ctx, "service.workflow", "workflow.registered",
		slog.Int64("target_id", target),
		slog.String("username", username),
	)
	return target, username, nil
}

// parseCredentials extracts the first two non-empty lines as username and
// password.
func parseCredentials(raw string) (string, string, error) {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return "", "", ErrBadCredentials
	}
	return lines[0], lines[1], nil
}

func approvalAttrs(target int64, attemptID *int64) []slog.Attr {
	attrs := []slog.Attr{slog.Int64("target_id", target)}
	if attemptID != nil {
		attrs = append(attrs, slog.Int64("attempt_id", *attemptID))
	}
	return attrs
}

// notify runs a delivery closure, logging failures without propagating them.
// Notifications are effects of committed state changes, never preconditions.
func (e *Engine) notify(ctx context.Context, send func() error) {
	if err := send(); err != nil {
		logger.Warn(ctx, "service.notify", "notify.failed",
			slog.String("err", err.Error()),
		)
	}
}
