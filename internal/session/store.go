package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/events"
	"github.com/spec-kit/wallet-access/internal/observability"
	"github.com/spec-kit/wallet-access/internal/repository"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

// Store is the SessionStore: it alone creates, refreshes and destroys
// principals. Everything else receives the principal as a value.
type Store struct {
	users      repository.UserRepository
	cache      *PrincipalCache
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	bcryptCost int
}

// StoreDependencies bundles construction inputs.
type StoreDependencies struct {
	Users      repository.UserRepository
	Cache      *PrincipalCache
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	BcryptCost int
}

// NewStore builds the session store.
func NewStore(deps StoreDependencies) *Store {
	return &Store{
		users:      deps.Users,
		cache:      deps.Cache,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// Authenticate performs the direct email/password exchange. The error
// never reveals which of email or password was wrong; account-status
// rejections are distinct causes.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*domain.Principal, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordAuthAttempt("invalid")
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	ok, legacy := auth.VerifyPassword(user.PasswordHash, password)
	if !ok {
		s.metrics.RecordAuthAttempt("invalid")
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	if err := s.gateStatus(user); err != nil {
		return nil, "", time.Time{}, err
	}

	if legacy {
		s.metrics.RecordAuthAttempt("legacy_ok")
		s.publish(ctx, events.EventLegacyCredentialSeen, user.ID, events.LegacyCredentialSeenPayload{Plaintext: password})
	} else {
		s.metrics.RecordAuthAttempt("ok")
	}

	return s.establish(ctx, user, "password")
}

// AuthenticateFederated links a provider-issued subject to a user row,
// creating an active member account on first sight.
func (s *Store) AuthenticateFederated(ctx context.Context, info *OAuthUserInfo) (*domain.Principal, string, time.Time, error) {
	user, err := s.users.GetByOAuthSubject(ctx, info.Subject)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.MapError(err)
		}
		user, err = s.createFederated(ctx, info)
		if err != nil {
			return nil, "", time.Time{}, err
		}
	}

	if err := s.gateStatus(user); err != nil {
		return nil, "", time.Time{}, err
	}

	s.metrics.RecordAuthAttempt("ok")
	return s.establish(ctx, user, "federated")
}

// Register creates a member account awaiting approval. Operator
// accounts are only ever created by their parent via the admin flow.
func (s *Store) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusPending,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Restore rehydrates a principal from the bearer token and the cache
// without re-verifying credentials. The result is optimistic UI state:
// trust-sensitive operations must re-fetch the user row.
func (s *Store) Restore(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	if principal, ok := s.cache.Get(ctx, claims.UserID); ok {
		return principal, nil
	}

	// Cache miss degrades to a canonical fetch, never to a crash.
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("account not found")
		}
		return nil, apperrors.MapError(err)
	}

	principal := domain.PrincipalFromUser(user, time.Now())
	s.cache.Put(ctx, principal)
	return principal, nil
}

// Clear destroys the session state for a user.
func (s *Store) Clear(ctx context.Context, userID, reason string) {
	s.cache.Delete(ctx, userID)
	s.publish(ctx, events.EventSessionRevoked, userID, events.SessionRevokedPayload{Reason: reason})
}

func (s *Store) establish(ctx context.Context, user *domain.User, method string) (*domain.Principal, string, time.Time, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	principal := domain.PrincipalFromUser(user, time.Now())
	s.cache.Put(ctx, principal)
	s.publish(ctx, events.EventLoginSucceeded, user.ID, events.LoginSucceededPayload{Role: user.Role, Method: method})

	return principal, token, expiresAt, nil
}

func (s *Store) gateStatus(user *domain.User) error {
	switch user.Status {
	case domain.UserStatusActive:
		return nil
	case domain.UserStatusPending:
		s.metrics.RecordAuthAttempt("pending")
		return apperrors.NewPendingApproval()
	case domain.UserStatusBlocked:
		s.metrics.RecordAuthAttempt("blocked")
		return apperrors.NewAccountBlocked()
	case domain.UserStatusSuspended:
		s.metrics.RecordAuthAttempt("suspended")
		return apperrors.NewAccountSuspended()
	default:
		return apperrors.NewUnauthorized("account not active")
	}
}

func (s *Store) createFederated(ctx context.Context, info *OAuthUserInfo) (*domain.User, error) {
	subject := info.Subject
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         info.Name,
		Email:        info.Email,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
		OAuthSubject: &subject,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("federated account created", zap.String("user_id", user.ID))
	return user, nil
}

func (s *Store) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
