package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/events"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

type stubUserRepo struct {
	byEmail   map[string]*domain.User
	byID      map[string]*domain.User
	bySubject map[string]*domain.User
	created   []*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{
		byEmail:   map[string]*domain.User{},
		byID:      map[string]*domain.User{},
		bySubject: map[string]*domain.User{},
	}
	for _, u := range users {
		r.index(u)
	}
	return r
}

func (r *stubUserRepo) index(u *domain.User) {
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	if u.OAuthSubject != nil {
		r.bySubject[*u.OAuthSubject] = u
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.created = append(r.created, u)
	r.index(u)
	return nil
}

func (r *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) UpdatePasswordHash(context.Context, string, string) error { return nil }
func (r *stubUserRepo) UpdateStatus(context.Context, string, domain.UserStatus) error {
	return nil
}
func (r *stubUserRepo) Delete(context.Context, string) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByOAuthSubject(_ context.Context, subject string) (*domain.User, error) {
	if u, ok := r.bySubject[subject]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListAllIDs(context.Context) ([]string, error) { return nil, nil }
func (r *stubUserRepo) ListChildIDs(context.Context, []string, domain.Role) ([]string, error) {
	return nil, nil
}
func (r *stubUserRepo) CountChildren(context.Context, string) (int, error) { return 0, nil }

type capturedEvents struct {
	events.Dispatcher
	seen []events.Event
}

func newCapturedEvents() *capturedEvents {
	c := &capturedEvents{Dispatcher: events.NewInMemoryDispatcher(zap.NewNop())}
	return c
}

func (c *capturedEvents) Publish(ctx context.Context, event events.Event) error {
	c.seen = append(c.seen, event)
	return c.Dispatcher.Publish(ctx, event)
}

func (c *capturedEvents) ofType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range c.seen {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestStore(repo *stubUserRepo, dispatcher events.Dispatcher) *Store {
	return NewStore(StoreDependencies{
		Users:      repo,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		BcryptCost: 4,
	})
}

func activeUser(t *testing.T, id, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.User{ID: id, Name: "N", Email: email, Role: domain.RoleUser, Status: domain.UserStatusActive, PasswordHash: hash}
}

func errorCodeOf(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestAuthenticateHappyPath(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "u1", "a@b.c", "secret"))
	dispatcher := newCapturedEvents()
	store := newTestStore(repo, dispatcher)

	principal, token, _, err := store.Authenticate(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if principal.UserID != "u1" || token == "" {
		t.Fatalf("principal=%+v token=%q", principal, token)
	}
	if got := dispatcher.ofType(events.EventLoginSucceeded); len(got) != 1 {
		t.Fatalf("login events = %d, want 1", len(got))
	}
	if got := dispatcher.ofType(events.EventLegacyCredentialSeen); len(got) != 0 {
		t.Fatal("bcrypt login must not mark the credential legacy")
	}
}

func TestAuthenticateUnknownEmailAndBadPasswordLookAlike(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "u1", "a@b.c", "secret"))
	store := newTestStore(repo, newCapturedEvents())

	_, _, _, errUnknown := store.Authenticate(context.Background(), "nobody@b.c", "secret")
	_, _, _, errBadPass := store.Authenticate(context.Background(), "a@b.c", "wrong")

	if errorCodeOf(t, errUnknown) != "INVALID_CREDENTIALS" {
		t.Fatalf("unknown email code = %s", errorCodeOf(t, errUnknown))
	}
	if errorCodeOf(t, errBadPass) != "INVALID_CREDENTIALS" {
		t.Fatalf("bad password code = %s", errorCodeOf(t, errBadPass))
	}
	if errUnknown.Error() != errBadPass.Error() {
		t.Fatal("error messages differ between unknown email and wrong password")
	}
}

func TestAuthenticateStatusGates(t *testing.T) {
	tests := []struct {
		status   domain.UserStatus
		wantCode string
	}{
		{domain.UserStatusPending, "PENDING_APPROVAL"},
		{domain.UserStatusBlocked, "ACCOUNT_BLOCKED"},
		{domain.UserStatusSuspended, "ACCOUNT_SUSPENDED"},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			user := activeUser(t, "u1", "a@b.c", "secret")
			user.Status = tc.status
			store := newTestStore(newStubUserRepo(user), newCapturedEvents())

			_, _, _, err := store.Authenticate(context.Background(), "a@b.c", "secret")
			if got := errorCodeOf(t, err); got != tc.wantCode {
				t.Fatalf("code = %s, want %s", got, tc.wantCode)
			}
		})
	}
}

func TestAuthenticateLegacyCredentialEmitsMigrationEvent(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleUser, Status: domain.UserStatusActive, PasswordHash: "plain-secret"}
	dispatcher := newCapturedEvents()
	store := newTestStore(newStubUserRepo(user), dispatcher)

	principal, _, _, err := store.Authenticate(context.Background(), "a@b.c", "plain-secret")
	if err != nil {
		t.Fatal(err)
	}
	if principal.UserID != "u1" {
		t.Fatalf("principal = %+v", principal)
	}

	seen := dispatcher.ofType(events.EventLegacyCredentialSeen)
	if len(seen) != 1 {
		t.Fatalf("legacy events = %d, want 1", len(seen))
	}
	payload, ok := seen[0].Payload.(events.LegacyCredentialSeenPayload)
	if !ok || payload.Plaintext != "plain-secret" {
		t.Fatalf("payload = %#v", seen[0].Payload)
	}
}

func TestAuthenticateLegacyMismatchRejected(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleUser, Status: domain.UserStatusActive, PasswordHash: "plain-secret"}
	dispatcher := newCapturedEvents()
	store := newTestStore(newStubUserRepo(user), dispatcher)

	_, _, _, err := store.Authenticate(context.Background(), "a@b.c", "other")
	if errorCodeOf(t, err) != "INVALID_CREDENTIALS" {
		t.Fatalf("code = %s", errorCodeOf(t, err))
	}
	if len(dispatcher.ofType(events.EventLegacyCredentialSeen)) != 0 {
		t.Fatal("failed login must not trigger a credential rewrite")
	}
}

func TestRegisterCreatesPendingMember(t *testing.T) {
	repo := newStubUserRepo()
	store := newTestStore(repo, newCapturedEvents())

	user, err := store.Register(context.Background(), "New User", "new@b.c", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("role = %s", user.Role)
	}
	if user.Status != domain.UserStatusPending {
		t.Fatalf("status = %s, want pending", user.Status)
	}
	if auth.DetectCredential(user.PasswordHash) != auth.CredentialBcrypt {
		t.Fatal("stored password is not bcrypt")
	}

	// A pending account cannot log in yet.
	_, _, _, err = store.Authenticate(context.Background(), "new@b.c", "secret")
	if errorCodeOf(t, err) != "PENDING_APPROVAL" {
		t.Fatalf("code = %s", errorCodeOf(t, err))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "u1", "a@b.c", "secret"))
	store := newTestStore(repo, newCapturedEvents())

	_, err := store.Register(context.Background(), "Other", "a@b.c", "secret")
	if errorCodeOf(t, err) != "CONFLICT" {
		t.Fatalf("code = %s", errorCodeOf(t, err))
	}
}

func TestAuthenticateFederatedCreatesActiveMemberOnFirstSight(t *testing.T) {
	repo := newStubUserRepo()
	store := newTestStore(repo, newCapturedEvents())

	info := &OAuthUserInfo{Subject: "google-123", Email: "fed@b.c", Name: "Fed"}
	principal, token, _, err := store.AuthenticateFederated(context.Background(), info)
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("no token issued")
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Status != domain.UserStatusActive {
		t.Fatalf("federated account status = %s, want active", created.Status)
	}
	if created.OAuthSubject == nil || *created.OAuthSubject != "google-123" {
		t.Fatal("oauth subject not linked")
	}

	// Second login reuses the linked row.
	again, _, _, err := store.AuthenticateFederated(context.Background(), info)
	if err != nil {
		t.Fatal(err)
	}
	if again.UserID != principal.UserID {
		t.Fatal("second federated login created a new account")
	}
	if len(repo.created) != 1 {
		t.Fatal("second federated login created a duplicate row")
	}
}

func TestRestoreFallsBackToCanonicalRow(t *testing.T) {
	user := activeUser(t, "u1", "a@b.c", "secret")
	user.Role = domain.RoleCenter
	repo := newStubUserRepo(user)
	store := newTestStore(repo, newCapturedEvents())

	_, token, _, err := store.Authenticate(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatal(err)
	}

	principal, err := store.Restore(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if principal.UserID != "u1" || principal.Role != domain.RoleCenter {
		t.Fatalf("principal = %+v", principal)
	}
}

func TestRestoreRejectsInvalidToken(t *testing.T) {
	store := newTestStore(newStubUserRepo(), newCapturedEvents())
	if _, err := store.Restore(context.Background(), "garbage"); err == nil {
		t.Fatal("garbage token restored a session")
	}
}

func TestRestoreRejectsDeletedAccount(t *testing.T) {
	user := activeUser(t, "u1", "a@b.c", "secret")
	repo := newStubUserRepo(user)
	store := newTestStore(repo, newCapturedEvents())

	_, token, _, err := store.Authenticate(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatal(err)
	}

	delete(repo.byID, "u1")
	if _, err := store.Restore(context.Background(), token); err == nil {
		t.Fatal("restored a session for a deleted account")
	}
}

func TestClearPublishesRevocation(t *testing.T) {
	dispatcher := newCapturedEvents()
	store := newTestStore(newStubUserRepo(), dispatcher)

	store.Clear(context.Background(), "u1", "logout")

	revoked := dispatcher.ofType(events.EventSessionRevoked)
	if len(revoked) != 1 || revoked[0].SubjectID != "u1" {
		t.Fatalf("revocation events = %+v", revoked)
	}
}
