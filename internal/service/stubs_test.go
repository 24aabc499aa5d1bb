package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/events"
	"github.com/spec-kit/wallet-access/internal/hierarchy"
	"github.com/spec-kit/wallet-access/internal/session"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

// memUserRepo serves the role tree out of a map, deriving child
// queries from parent links the way the SQL layer does.
type memUserRepo struct {
	users map[string]*domain.User
	fail  error
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (r *memUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Status = status
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		// Return a copy, like the real repository scanning a fresh row,
		// so later mutations of the stored user do not alias the result.
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByOAuthSubject(_ context.Context, subject string) (*domain.User, error) {
	for _, u := range r.users {
		if u.OAuthSubject != nil && *u.OAuthSubject == subject {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListAllIDs(context.Context) ([]string, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memUserRepo) ListChildIDs(_ context.Context, parentIDs []string, role domain.Role) ([]string, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	parents := map[string]struct{}{}
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	var out []string
	for id, u := range r.users {
		if u.Role != role || u.ParentID == nil {
			continue
		}
		if _, ok := parents[*u.ParentID]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memUserRepo) CountChildren(_ context.Context, parentID string) (int, error) {
	count := 0
	for _, u := range r.users {
		if u.ParentID != nil && *u.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

// memMappingRepo serves domain mappings out of a map.
type memMappingRepo struct {
	mappings map[string]*domain.DomainMapping
	fail     error
}

func newMemMappingRepo(mappings ...*domain.DomainMapping) *memMappingRepo {
	r := &memMappingRepo{mappings: map[string]*domain.DomainMapping{}}
	for _, m := range mappings {
		r.mappings[m.ID] = m
	}
	return r
}

func (r *memMappingRepo) Create(_ context.Context, m *domain.DomainMapping) error {
	r.mappings[m.ID] = m
	return nil
}

func (r *memMappingRepo) GetActiveByDomain(_ context.Context, host string) (*domain.DomainMapping, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	for _, m := range r.mappings {
		if m.Domain == host && m.Active {
			return m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memMappingRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.DomainMapping, error) {
	var out []domain.DomainMapping
	for _, m := range r.mappings {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) Deactivate(_ context.Context, id string) error {
	m, ok := r.mappings[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.Active = false
	return nil
}

func strptr(s string) *string { return &s }

func treeUser(t *testing.T, id string, role domain.Role, parentID, tenantID *string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret", 4)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.User{
		ID:           id,
		Name:         id,
		Email:        id + "@example.com",
		Role:         role,
		ParentID:     parentID,
		TenantID:     tenantID,
		Status:       domain.UserStatusActive,
		PasswordHash: hash,
	}
}

// walletFixture builds a small master->agency->center->store->user
// tree plus an out-of-tree center.
func walletFixture(t *testing.T) *memUserRepo {
	t.Helper()
	return newMemUserRepo(
		treeUser(t, "master-1", domain.RoleMaster, nil, nil),
		treeUser(t, "agency-1", domain.RoleAgency, strptr("master-1"), nil),
		treeUser(t, "center-1", domain.RoleCenter, strptr("agency-1"), strptr("center-1")),
		treeUser(t, "store-1", domain.RoleStore, strptr("center-1"), strptr("center-1")),
		treeUser(t, "user-1", domain.RoleUser, strptr("store-1"), strptr("center-1")),
		treeUser(t, "center-2", domain.RoleCenter, strptr("agency-2"), strptr("center-2")),
	)
}

func newTestSessions(repo *memUserRepo, dispatcher events.Dispatcher) *session.Store {
	return session.NewStore(session.StoreDependencies{
		Users:      repo,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		BcryptCost: 4,
	})
}

func newTestAdmin(repo *memUserRepo, mappings *memMappingRepo, dispatcher events.Dispatcher) *AdminService {
	return newTestAdminWithResolver(repo, mappings, dispatcher, hierarchy.NewResolver(repo, nil, nil, zap.NewNop()))
}

func newTestAdminWithResolver(repo *memUserRepo, mappings *memMappingRepo, dispatcher events.Dispatcher, resolver *hierarchy.Resolver) *AdminService {
	return NewAdminService(AdminDependencies{
		Users:      repo,
		Mappings:   mappings,
		Resolver:   resolver,
		Sessions:   newTestSessions(repo, dispatcher),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		BcryptCost: 4,
	})
}

// memScopeCache is a map-backed hierarchy.Cache.
type memScopeCache struct {
	entries map[string][]string
}

func newMemScopeCache() *memScopeCache {
	return &memScopeCache{entries: map[string][]string{}}
}

func (c *memScopeCache) Get(_ context.Context, userID string) ([]string, bool) {
	ids, ok := c.entries[userID]
	return ids, ok
}

func (c *memScopeCache) Put(_ context.Context, userID string, ids []string) {
	c.entries[userID] = ids
}

func (c *memScopeCache) Invalidate(_ context.Context, userIDs ...string) {
	for _, id := range userIDs {
		delete(c.entries, id)
	}
}

func principalOf(u *domain.User) *domain.Principal {
	return &domain.Principal{UserID: u.ID, Role: u.Role, TenantID: u.TenantID, Name: u.Name, Email: u.Email}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}
