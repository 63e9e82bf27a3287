package workflow

import "errors"

// Sentinel errors, grouped by how handlers should report them. None of them
// leaves durable state modified.
var (
	// ErrUnknownPackage rejects a package name outside the catalogue.
	ErrUnknownPackage = errors.New("workflow: unknown package")
	// ErrBadCredentials rejects credential input with fewer than two
	// non-empty lines. The administrator's session is kept for a retry.
	ErrBadCredentials = errors.New("workflow: credentials must be two non-empty lines")

	// ErrNotAdmin refuses an admin-only transition for anyone else.
	ErrNotAdmin = errors.New("workflow: admin-only transition")

	// ErrNoActiveRegistration means an account was selected before a
	// package was chosen.
	ErrNoActiveRegistration = errors.New("workflow: no active registration")
	// ErrNoActiveProcess means a screenshot arrived with no live
	// awaiting_screenshot session.
	ErrNoActiveProcess = errors.New("workflow: no active payment process")
	// ErrNotAwaitingCredentials means free text arrived while the
	// administrator has no live awaiting_credentials session.
	ErrNotAwaitingCredentials = errors.New("workflow: not awaiting credentials")
	// ErrAttemptMismatch means the attempt named in an admin action does
	// not belong to the target actor (malformed or replayed callback).
	ErrAttemptMismatch = errors.New("workflow: attempt does not belong to target actor")
)
