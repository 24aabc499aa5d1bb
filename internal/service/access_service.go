package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/hierarchy"
	"github.com/spec-kit/wallet-access/internal/observability"
	"github.com/spec-kit/wallet-access/internal/routing"
	"github.com/spec-kit/wallet-access/internal/session"
	"github.com/spec-kit/wallet-access/internal/tenant"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

// AccessService orchestrates one access resolution: domain lookup and
// session restoration settle first (independently), then the
// transition table decides the surface.
type AccessService struct {
	directory *tenant.Directory
	sessions  *session.Store
	resolver  *hierarchy.Resolver
	metrics   *observability.Metrics
	logger    *zap.Logger
	timeout   time.Duration
}

// NewAccessService builds the service. timeout bounds one resolution
// round trip.
func NewAccessService(directory *tenant.Directory, sessions *session.Store, resolver *hierarchy.Resolver, metrics *observability.Metrics, logger *zap.Logger, timeout time.Duration) *AccessService {
	return &AccessService{
		directory: directory,
		sessions:  sessions,
		resolver:  resolver,
		metrics:   metrics,
		logger:    logger,
		timeout:   timeout,
	}
}

// ResolveRequest carries the navigation inputs of one page view.
type ResolveRequest struct {
	Host     string
	Fragment string
	Token    string
}

// ResolveResult tells the client which surface to render.
type ResolveResult struct {
	Surface    domain.Surface
	Fragment   string
	DomainType domain.DomainType
	TenantID   *string
	Principal  *domain.Principal
}

// Resolve runs one full transition evaluation. An expired deadline or
// backend failure maps to a retryable unavailable error, never an
// indefinite pending state.
func (s *AccessService) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type domainOutcome struct {
		result tenant.Result
		err    error
	}
	domainCh := make(chan domainOutcome, 1)
	go func() {
		result, err := s.directory.Resolve(ctx, req.Host)
		domainCh <- domainOutcome{result: result, err: err}
	}()

	// Restoration failures mean an anonymous visitor, not a dead
	// request: an invalid or stale token degrades to fresh login.
	var principal *domain.Principal
	if req.Token != "" {
		restored, err := s.sessions.Restore(ctx, req.Token)
		if err == nil {
			principal = restored
		}
	}

	outcome := <-domainCh
	if outcome.err != nil {
		return nil, apperrors.NewServiceUnavailable(outcome.err)
	}

	decision := routing.Evaluate(routing.Input{
		Fragment:    req.Fragment,
		Principal:   principal,
		DomainFound: outcome.result.Resolution != tenant.ResolutionNotFound,
		DomainType:  outcome.result.DomainType(),
	})

	s.metrics.RecordResolution(string(decision.Surface))
	s.logger.Debug("access resolved",
		zap.String("host", req.Host),
		zap.String("fragment", req.Fragment),
		zap.String("surface", string(decision.Surface)),
	)

	result := &ResolveResult{
		Surface:    decision.Surface,
		Fragment:   decision.Fragment,
		DomainType: outcome.result.DomainType(),
		Principal:  principal,
	}
	if outcome.result.Mapping != nil {
		tenantID := outcome.result.Mapping.TenantID
		result.TenantID = &tenantID
	}
	return result, nil
}

// Scope returns the caller's visible-identifier set. partial reports
// that a stratum failed and the set is the fail-closed remainder.
func (s *AccessService) Scope(ctx context.Context, principal *domain.Principal) (ids []string, partial bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set, err := s.resolver.Expand(ctx, principal.UserID, principal.Role)
	if err != nil {
		// Fail-closed: the verified subset is still usable.
		return set.IDs(), true
	}
	return set.IDs(), false
}
