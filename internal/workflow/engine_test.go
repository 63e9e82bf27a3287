package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"regbot/internal/domain"
	"regbot/internal/repository"
	"regbot/internal/session"

	"github.com/stretchr/testify/require"
)

const (
	adminID = int64(1000)
	aliceID = int64(7)
	bobID   = int64(8)
)

type storeStub struct {
	users    map[int64]*domain.User
	attempts map[int64]*domain.PaymentAttempt
	nextID   int64
}

func newStoreStub() *storeStub {
	return &storeStub{
		users:    make(map[int64]*domain.User),
		attempts: make(map[int64]*domain.PaymentAttempt),
		nextID:   1,
	}
}

func (s *storeStub) EnsureUser(_ context.Context, chatID int64, username, name string) (bool, error) {
	if _, ok := s.users[chatID]; ok {
		return false, nil
	}
	u := &domain.User{ChatID: chatID, PaymentStatus: domain.StatusNew}
	if username != "" {
		u.Username = &username
	}
	if name != "" {
		u.Name = &name
	}
	s.users[chatID] = u
	return true, nil
}

func (s *storeStub) UserByChatID(_ context.Context, chatID int64) (domain.User, error) {
	u, ok := s.users[chatID]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return *u, nil
}

func (s *storeStub) SetPackage(_ context.Context, chatID int64, username, name string, pkg domain.Package) error {
	u, ok := s.users[chatID]
	if !ok {
		u = &domain.User{ChatID: chatID}
		if username != "" {
			u.Username = &username
		}
		if name != "" {
			u.Name = &name
		}
		s.users[chatID] = u
	}
	p := pkg
	u.Package = &p
	u.PaymentStatus = domain.StatusPendingPayment
	return nil
}

func (s *storeStub) MarkPendingApproval(_ context.Context, chatID int64) error {
	u, ok := s.users[chatID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PaymentStatus = domain.StatusPendingApproval
	return nil
}

func (s *storeStub) CreateAttempt(_ context.Context, chatID int64, pkg *domain.Package, account string) (int64, error) {
	for _, a := range s.attempts {
		if a.ChatID == chatID && a.Status == domain.AttemptPending {
			a.Status = domain.AttemptRejected
		}
	}
	id := s.nextID
	s.nextID++
	s.attempts[id] = &domain.PaymentAttempt{
		ID:        id,
		ChatID:    chatID,
		Package:   pkg,
		Account:   account,
		Status:    domain.AttemptPending,
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

func (s *storeStub) ApprovePayment(_ context.Context, chatID int64, attemptID *int64, at time.Time) error {
	if attemptID != nil {
		a, ok := s.attempts[*attemptID]
		if !ok || a.ChatID != chatID {
			return repository.ErrAttemptNotOwned
		}
		a.Status = domain.AttemptApproved
		a.ApprovedAt = &at
	}
	u, ok := s.users[chatID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PaymentStatus = domain.StatusApproved
	u.ApprovedAt = &at
	return nil
}

func (s *storeStub) RejectPayment(_ context.Context, chatID int64, attemptID *int64) error {
	if attemptID != nil {
		a, ok := s.attempts[*attemptID]
		if !ok || a.ChatID != chatID {
			return repository.ErrAttemptNotOwned
		}
		a.Status = domain.AttemptRejected
	}
	u, ok := s.users[chatID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PaymentStatus = domain.StatusNew
	return nil
}

func (s *storeStub) FinalizeRegistration(_ context.Context, chatID int64, username string, at time.Time) error {
	u, ok := s.users[chatID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Username = &username
	u.PaymentStatus = domain.StatusRegistered
	u.RegisteredAt = &at
	for _, a := range s.attempts {
		if a.ChatID == chatID && a.Status == domain.AttemptPending {
			a.Status = domain.AttemptApproved
			a.ApprovedAt = &at
		}
	}
	return nil
}

// snapshot renders all durable state into a stable string for byte-for-byte
// comparison in authorization tests.
func (s *storeStub) snapshot() string {
	var b strings.Builder
	for id := int64(0); id < 2000; id++ {
		if u, ok := s.users[id]; ok {
			fmt.Fprintf(&b, "user %d %+v\n", id, *u)
		}
	}
	for id := int64(0); id < s.nextID; id++ {
		if a, ok := s.attempts[id]; ok {
			fmt.Fprintf(&b, "attempt %d %+v\n", id, *a)
		}
	}
	return b.String()
}

type sentMessage struct {
	to      int64
	text    string
	image   string
	actions []Action
}

type notifierStub struct {
	sent []sentMessage
}

func (n *notifierStub) SendText(_ context.Context, actorID int64, text string, actions ...Action) error {
	n.sent = append(n.sent, sentMessage{to: actorID, text: text, actions: actions})
	return nil
}

func (n *notifierStub) SendImage(_ context.Context, actorID int64, imageRef, caption string, actions ...Action) error {
	n.sent = append(n.sent, sentMessage{to: actorID, text: caption, image: imageRef, actions: actions})
	return nil
}

func (n *notifierStub) textsTo(actorID int64) []string {
	var out []string
	for _, m := range n.sent {
		if m.to == actorID && m.image == "" {
			out = append(out, m.text)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *storeStub, *notifierStub, session.Tracker) {
	t.Helper()
	store := newStoreStub()
	notifier := &notifierStub{}
	tracker := session.NewMemoryTracker()
	eng, err := NewEngine(Config{
		Users:    store,
		Payments: store,
		Sessions: tracker,
		Notifier: notifier,
		IsAdmin:  func(id int64) bool { return id == adminID },
		AdminID:  adminID,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return eng, store, notifier, tracker
}

func alice() Actor { return Actor{ID: aliceID, Username: "alice_tg", Name: "Alice"} }

func TestOnEntryIsIdempotent(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnEntry(ctx, alice()))
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	require.NoError(t, eng.OnEntry(ctx, alice()))

	require.Len(t, store.users, 1)
	require.Equal(t, domain.StatusPendingPayment, store.users[aliceID].PaymentStatus,
		"second entry must not reset existing state")
}

func TestOnPackageChosenUpsertsAndResets(t *testing.T) {
	eng, store, _, tracker := newTestEngine(t)
	ctx := context.Background()

	// No prior entry event: upsert semantics.
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageX))
	require.Equal(t, domain.StatusPendingPayment, store.users[aliceID].PaymentStatus)
	require.Equal(t, domain.PackageX, *store.users[aliceID].Package)

	// Repeated from any state: latest package wins, status stays pending_payment.
	_, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	require.Equal(t, domain.StatusPendingPayment, store.users[aliceID].PaymentStatus)
	require.Equal(t, domain.PackageStandard, *store.users[aliceID].Package)

	// Choosing a package supersedes the screenshot expectation.
	_, ok := tracker.Get(aliceID)
	require.False(t, ok, "stale awaiting_screenshot session must be dropped")

	require.ErrorIs(t, eng.OnPackageChosen(ctx, alice(), domain.Package("Gold")), ErrUnknownPackage)
}

func TestOnAccountSelectedRequiresActiveRegistration(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.ErrorIs(t, err, ErrNoActiveRegistration)

	require.NoError(t, eng.OnEntry(ctx, alice()))
	_, err = eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.ErrorIs(t, err, ErrNoActiveRegistration, "user without package has no active registration")
}

func TestOnAccountSelectedSupersedesPendingAttempt(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	first, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)
	second, err := eng.OnAccountSelected(ctx, alice(), "Bank B")
	require.NoError(t, err)

	require.Equal(t, domain.AttemptRejected, store.attempts[first].Status,
		"prior pending attempt is auto-cancelled")
	require.Equal(t, domain.AttemptPending, store.attempts[second].Status)
}

func TestOnScreenshotWithoutSession(t *testing.T) {
	eng, store, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnEntry(ctx, alice()))
	before := store.snapshot()

	err := eng.OnScreenshotSubmitted(ctx, alice(), "file-123")
	require.ErrorIs(t, err, ErrNoActiveProcess)
	require.Equal(t, before, store.snapshot(), "payment_status must be untouched")
	require.Empty(t, notifier.sent)
}

func TestHappyPathToRegistered(t *testing.T) {
	eng, store, notifier, tracker := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnEntry(ctx, alice()))
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	attemptID, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)

	require.NoError(t, eng.OnScreenshotSubmitted(ctx, alice(), "file-abc"))
	require.Equal(t, domain.StatusPendingApproval, store.users[aliceID].PaymentStatus)
	require.Equal(t, domain.AttemptPending, store.attempts[attemptID].Status,
		"attempt status only changes on admin action")
	_, ok := tracker.Get(aliceID)
	require.False(t, ok, "screenshot consumed the session")

	// Admin received the image with all three affordances.
	require.Len(t, notifier.sent, 1)
	review := notifier.sent[0]
	require.Equal(t, adminID, review.to)
	require.Equal(t, "file-abc", review.image)
	require.Len(t, review.actions, 3)

	require.NoError(t, eng.OnApprove(ctx, adminID, aliceID, &attemptID))
	require.Equal(t, domain.StatusApproved, store.users[aliceID].PaymentStatus)
	require.Equal(t, domain.AttemptApproved, store.attempts[attemptID].Status)

	require.NoError(t, eng.OnFinalizeRequested(ctx, adminID, aliceID))
	target, username, err := eng.OnCredentialsSubmitted(ctx, adminID, "alice\nSecret1")
	require.NoError(t, err)
	require.Equal(t, aliceID, target)
	require.Equal(t, "alice", username)

	require.Equal(t, domain.StatusRegistered, store.users[aliceID].PaymentStatus)
	require.Equal(t, "alice", *store.users[aliceID].Username)
	require.NotNil(t, store.users[aliceID].RegisteredAt)

	approved := 0
	for _, a := range store.attempts {
		if a.ChatID == aliceID && a.Status == domain.AttemptApproved {
			approved++
		}
	}
	require.Equal(t, 1, approved, "exactly one approved attempt")

	var credentials string
	for _, text := range notifier.textsTo(aliceID) {
		if strings.Contains(text, "alice") && strings.Contains(text, "Secret1") {
			credentials = text
		}
	}
	require.NotEmpty(t, credentials, "target actor must receive the issued credentials")

	_, ok = tracker.Get(adminID)
	require.False(t, ok, "admin session cleared after finalize")
}

func TestRejectPath(t *testing.T) {
	eng, store, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnEntry(ctx, alice()))
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	attemptID, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)
	require.NoError(t, eng.OnScreenshotSubmitted(ctx, alice(), "file-abc"))

	require.NoError(t, eng.OnReject(ctx, adminID, aliceID, &attemptID))

	require.Equal(t, domain.StatusNew, store.users[aliceID].PaymentStatus)
	require.Equal(t, domain.AttemptRejected, store.attempts[attemptID].Status)
	for _, text := range notifier.textsTo(aliceID) {
		require.NotContains(t, text, "Registration complete",
			"no credentials message for a rejected attempt")
	}
}

func TestAdminOnlyTransitionsRefuseOthers(t *testing.T) {
	eng, store, _, tracker := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnEntry(ctx, alice()))
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	attemptID, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)
	before := store.snapshot()

	require.ErrorIs(t, eng.OnApprove(ctx, bobID, aliceID, &attemptID), ErrNotAdmin)
	require.ErrorIs(t, eng.OnReject(ctx, bobID, aliceID, &attemptID), ErrNotAdmin)
	require.ErrorIs(t, eng.OnFinalizeRequested(ctx, bobID, aliceID), ErrNotAdmin)
	_, _, err = eng.OnCredentialsSubmitted(ctx, bobID, "u\np")
	require.ErrorIs(t, err, ErrNotAwaitingCredentials)

	require.Equal(t, before, store.snapshot(), "durable state byte-for-byte unchanged")
	_, ok := tracker.Get(bobID)
	require.False(t, ok)
}

func TestApproveRefusesForeignAttempt(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	bob := Actor{ID: bobID, Username: "bob_tg"}
	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	require.NoError(t, eng.OnPackageChosen(ctx, bob, domain.PackageX))
	bobAttempt, err := eng.OnAccountSelected(ctx, bob, "Bank B")
	require.NoError(t, err)

	// Replayed callback naming alice but carrying bob's attempt id.
	err = eng.OnApprove(ctx, adminID, aliceID, &bobAttempt)
	require.ErrorIs(t, err, ErrAttemptMismatch)
	require.Equal(t, domain.AttemptPending, store.attempts[bobAttempt].Status)
	require.Equal(t, domain.StatusPendingPayment, store.users[aliceID].PaymentStatus)
}

func TestApproveIsIdempotent(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	attemptID, err := eng.OnAccountSelected(ctx, alice(), "Bank A")
	require.NoError(t, err)

	require.NoError(t, eng.OnApprove(ctx, adminID, aliceID, &attemptID))
	require.NoError(t, eng.OnApprove(ctx, adminID, aliceID, &attemptID), "double-tap must be safe")
	require.Equal(t, domain.AttemptApproved, store.attempts[attemptID].Status)

	// Without an attempt id only the user record is touched.
	require.NoError(t, eng.OnApprove(ctx, adminID, aliceID, nil))
	require.Equal(t, domain.StatusApproved, store.users[aliceID].PaymentStatus)
}

func TestCredentialsValidation(t *testing.T) {
	eng, store, notifier, tracker := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.OnPackageChosen(ctx, alice(), domain.PackageStandard))
	require.NoError(t, eng.OnFinalizeRequested(ctx, adminID, aliceID))

	_, _, err := eng.OnCredentialsSubmitted(ctx, adminID, "only-one-line")
	require.ErrorIs(t, err, ErrBadCredentials)

	sess, ok := tracker.Get(adminID)
	require.True(t, ok, "session kept for retry")
	require.Equal(t, session.AwaitingCredentials, sess.Expectation)
	require.NotEqual(t, domain.StatusRegistered, store.users[aliceID].PaymentStatus)
	for _, text := range notifier.textsTo(aliceID) {
		require.NotContains(t, text, "Registration complete")
	}

	// Blank lines are ignored when extracting the pair.
	_, username, err := eng.OnCredentialsSubmitted(ctx, adminID, "\n  alice  \n\nSecret1\n")
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}
