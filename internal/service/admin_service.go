package service

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
	"github.com/spec-kit/wallet-access/internal/hierarchy"
	"github.com/spec-kit/wallet-access/internal/repository"
	"github.com/spec-kit/wallet-access/internal/session"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

// AdminService implements the operator actions on the role tree:
// creating subordinates, status changes, leaf deletion and domain
// provisioning. Every check re-fetches the canonical actor row; the
// passed principal only names who is acting.
type AdminService struct {
	users      repository.UserRepository
	mappings   repository.DomainMappingRepository
	resolver   *hierarchy.Resolver
	sessions   *session.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AdminDependencies bundles construction inputs.
type AdminDependencies struct {
	Users      repository.UserRepository
	Mappings   repository.DomainMappingRepository
	Resolver   *hierarchy.Resolver
	Sessions   *session.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:      deps.Users,
		mappings:   deps.Mappings,
		resolver:   deps.Resolver,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// CreateSubordinateInput describes a new child account.
type CreateSubordinateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// CreateSubordinate creates a child account one tier below the actor.
// The child inherits tenant linkage; a new center becomes its own
// tenant root.
func (s *AdminService) CreateSubordinate(ctx context.Context, actor *domain.Principal, input CreateSubordinateInput) (*domain.User, error) {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	if !actorUser.Role.CanParent(input.Role) {
		return nil, apperrors.NewForbidden("insufficient permission")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	childID := uuid.NewString()
	child := &domain.User{
		ID:           childID,
		Name:         input.Name,
		Email:        input.Email,
		Role:         input.Role,
		ParentID:     &actorUser.ID,
		TenantID:     s.tenantFor(actorUser, input.Role, childID),
		Status:       domain.UserStatusActive,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, child); err != nil {
		return nil, apperrors.MapError(err)
	}

	// Ancestors' cached expansions are stale now.
	s.invalidateAncestors(ctx, actorUser)
	s.publish(ctx, events.EventSubordinateCreated, child.ID, events.SubordinateCreatedPayload{
		ParentID: actorUser.ID,
		Role:     child.Role,
	})
	return child, nil
}

// ChangeStatus moves a subordinate between lifecycle states. Revoking
// states also clear the target's session.
func (s *AdminService) ChangeStatus(ctx context.Context, actor *domain.Principal, targetID string, status domain.UserStatus) error {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return err
	}

	if err := s.requireVisible(ctx, actorUser, targetID); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}

	if err := s.users.UpdateStatus(ctx, targetID, status); err != nil {
		return apperrors.MapError(err)
	}

	if status != domain.UserStatusActive {
		s.sessions.Clear(ctx, targetID, "status changed")
	}
	s.publish(ctx, events.EventStatusChanged, targetID, events.StatusChangedPayload{
		OldStatus: target.Status,
		NewStatus: status,
		ActorID:   actorUser.ID,
	})
	return nil
}

// DeleteSubordinate removes a leaf account. Deleting a user that
// still parents children is refused outright.
func (s *AdminService) DeleteSubordinate(ctx context.Context, actor *domain.Principal, targetID string) error {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return err
	}
	if targetID == actorUser.ID {
		return apperrors.NewForbidden("insufficient permission")
	}

	if err := s.requireVisible(ctx, actorUser, targetID); err != nil {
		return err
	}

	children, err := s.users.CountChildren(ctx, targetID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if children > 0 {
		return apperrors.NewConflict("account still has subordinate accounts", map[string]any{"children": children})
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}

	s.sessions.Clear(ctx, targetID, "account deleted")
	s.invalidateAncestors(ctx, actorUser)
	return nil
}

// ProvisionDomainInput describes a new domain mapping.
type ProvisionDomainInput struct {
	Domain   string
	Type     domain.DomainType
	TenantID string // master only; centers always provision their own tenant
}

// ProvisionDomain creates an active mapping for a tenant.
func (s *AdminService) ProvisionDomain(ctx context.Context, actor *domain.Principal, input ProvisionDomainInput) (*domain.DomainMapping, error) {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	var tenantID string
	switch actorUser.Role {
	case domain.RoleCenter:
		tenantID = actorUser.ID
	case domain.RoleMaster:
		if input.TenantID == "" {
			return nil, apperrors.NewValidationError("tenant_id required", nil)
		}
		tenantID = input.TenantID
	default:
		return nil, apperrors.NewForbidden("insufficient permission")
	}

	if _, err := s.mappings.GetActiveByDomain(ctx, input.Domain); err == nil {
		return nil, apperrors.NewConflict("domain already mapped", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	mapping := &domain.DomainMapping{
		ID:       uuid.NewString(),
		Domain:   input.Domain,
		TenantID: tenantID,
		Type:     input.Type,
		Active:   true,
	}
	if err := s.mappings.Create(ctx, mapping); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventDomainMappingProvisioned, tenantID, events.DomainMappingProvisionedPayload{
		Domain: mapping.Domain,
		Type:   mapping.Type,
	})
	return mapping, nil
}

// DeactivateDomain retires a mapping. Mappings are never deleted.
func (s *AdminService) DeactivateDomain(ctx context.Context, actor *domain.Principal, mappingID string) error {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return err
	}

	if actorUser.Role != domain.RoleMaster {
		if actorUser.Role != domain.RoleCenter {
			return apperrors.NewForbidden("insufficient permission")
		}
		owned, err := s.mappings.ListByTenant(ctx, actorUser.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		found := false
		for _, m := range owned {
			if m.ID == mappingID {
				found = true
				break
			}
		}
		if !found {
			return apperrors.NewNotFound("domain mapping", nil)
		}
	}

	if err := s.mappings.Deactivate(ctx, mappingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("domain mapping", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListDomains returns the mappings of the actor's tenant.
func (s *AdminService) ListDomains(ctx context.Context, actor *domain.Principal, tenantID string) ([]domain.DomainMapping, error) {
	actorUser, err := s.canonicalActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	switch actorUser.Role {
	case domain.RoleMaster:
	case domain.RoleCenter:
		tenantID = actorUser.ID
	default:
		return nil, apperrors.NewForbidden("insufficient permission")
	}
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id required", nil)
	}

	mappings, err := s.mappings.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return mappings, nil
}

// canonicalActor re-fetches the actor row; the cached principal is
// never trusted for administrative decisions.
func (s *AdminService) canonicalActor(ctx context.Context, actor *domain.Principal) (*domain.User, error) {
	actorUser, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("account not found")
		}
		return nil, apperrors.MapError(err)
	}
	if actorUser.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("insufficient permission")
	}
	return actorUser, nil
}

func (s *AdminService) requireVisible(ctx context.Context, actorUser *domain.User, targetID string) error {
	set, err := s.resolver.Expand(ctx, actorUser.ID, actorUser.Role)
	if err != nil {
		// Fail-closed: an unverified target is an invisible target.
		s.logger.Warn("visibility check on partial expansion", zap.String("actor_id", actorUser.ID), zap.Error(err))
	}
	if !set.Contains(targetID) {
		return apperrors.NewForbidden("insufficient permission")
	}
	return nil
}

func (s *AdminService) tenantFor(parent *domain.User, childRole domain.Role, childID string) *string {
	if childRole == domain.RoleCenter {
		// A center is its own tenant root.
		return &childID
	}
	if parent.Role == domain.RoleCenter {
		id := parent.ID
		return &id
	}
	return parent.TenantID
}

// invalidateAncestors drops cached expansions for the actor and every
// ancestor above it. The chain is at most four hops by construction.
func (s *AdminService) invalidateAncestors(ctx context.Context, actorUser *domain.User) {
	ids := []string{actorUser.ID}
	current := actorUser
	for current.ParentID != nil && len(ids) < 5 {
		parent, err := s.users.GetByID(ctx, *current.ParentID)
		if err != nil {
			break
		}
		ids = append(ids, parent.ID)
		current = parent
	}
	s.resolver.Invalidate(ctx, ids...)
}

func (s *AdminService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
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
