// Package hierarchy expands a principal's role into the closed set of
// user identifiers it is authorized to see. This is a security
// boundary: every failure path returns the most restrictive
// verified-so-far result, never a wildcard.
package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/observability"
)

// Set is a visible-identifier set. It is read-only for consumers;
// only the resolver constructs one.
type Set map[string]struct{}

// NewSet builds a set from identifiers.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in stable order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Set) add(ids []string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// TreeReader is the subset of the user repository the resolver needs.
type TreeReader interface {
	ListAllIDs(ctx context.Context) ([]string, error)
	ListChildIDs(ctx context.Context, parentIDs []string, role domain.Role) ([]string, error)
}

// Cache holds fully verified identifier lists between expansions.
// ScopeCache is the Redis-backed implementation.
type Cache interface {
	Get(ctx context.Context, userID string) ([]string, bool)
	Put(ctx context.Context, userID string, ids []string)
	Invalidate(ctx context.Context, userIDs ...string)
}

// Resolver computes visible-identifier sets over the fixed role tree.
type Resolver struct {
	tree    TreeReader
	cache   Cache
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewResolver builds a resolver. cache may be nil to disable caching.
func NewResolver(tree TreeReader, cache Cache, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{tree: tree, cache: cache, metrics: metrics, logger: logger}
}

// Expand returns the identifiers userID may query against. The result
// always contains userID itself. When err is non-nil the set is still
// valid: it holds every stratum the resolver could verify before the
// failure (fail-closed), and must not be cached.
func (r *Resolver) Expand(ctx context.Context, userID string, role domain.Role) (Set, error) {
	if r.cache != nil {
		if ids, ok := r.cache.Get(ctx, userID); ok {
			return NewSet(ids...), nil
		}
	}

	set, err := r.expand(ctx, userID, role)
	if err != nil {
		r.logger.Warn("hierarchy expansion failed closed",
			zap.String("user_id", userID),
			zap.String("role", string(role)),
			zap.Int("verified", len(set)),
			zap.Error(err),
		)
		return set, err
	}

	if r.cache != nil {
		r.cache.Put(ctx, userID, set.IDs())
	}
	return set, nil
}

// Invalidate drops any cached expansion for the given users. Called
// when a subordinate is created beneath their subtrees.
func (r *Resolver) Invalidate(ctx context.Context, userIDs ...string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, userIDs...)
	}
}

func (r *Resolver) expand(ctx context.Context, userID string, role domain.Role) (Set, error) {
	set := NewSet(userID)

	switch role {
	case domain.RoleMaster:
		// Global scope, no tree walk.
		all, err := r.stratum(ctx, func() ([]string, error) {
			return r.tree.ListAllIDs(ctx)
		})
		if err != nil {
			return set, fmt.Errorf("master stratum: %w", err)
		}
		set.add(all)
		return set, nil

	case domain.RoleAgency:
		// Four strata, widest-first: centers, stores, users.
		centers, err := r.children(ctx, []string{userID}, domain.RoleCenter)
		if err != nil {
			return set, fmt.Errorf("center stratum: %w", err)
		}
		set.add(centers)
		if len(centers) == 0 {
			return set, nil
		}

		stores, err := r.children(ctx, centers, domain.RoleStore)
		if err != nil {
			return set, fmt.Errorf("store stratum: %w", err)
		}
		set.add(stores)
		if len(stores) == 0 {
			return set, nil
		}

		users, err := r.children(ctx, stores, domain.RoleUser)
		if err != nil {
			return set, fmt.Errorf("user stratum: %w", err)
		}
		set.add(users)
		return set, nil

	case domain.RoleCenter:
		// A center may parent users both via stores and directly;
		// the two paths are unioned, never alternatives.
		stores, err := r.children(ctx, []string{userID}, domain.RoleStore)
		if err != nil {
			return set, fmt.Errorf("store stratum: %w", err)
		}
		set.add(stores)

		if len(stores) > 0 {
			storeUsers, err := r.children(ctx, stores, domain.RoleUser)
			if err != nil {
				return set, fmt.Errorf("store user stratum: %w", err)
			}
			set.add(storeUsers)
		}

		directUsers, err := r.children(ctx, []string{userID}, domain.RoleUser)
		if err != nil {
			return set, fmt.Errorf("direct user stratum: %w", err)
		}
		set.add(directUsers)
		return set, nil

	case domain.RoleStore:
		users, err := r.children(ctx, []string{userID}, domain.RoleUser)
		if err != nil {
			return set, fmt.Errorf("user stratum: %w", err)
		}
		set.add(users)
		return set, nil

	default:
		// user, admin and anything unknown see only themselves.
		return set, nil
	}
}

// children fetches one whole stratum in a single batched query.
func (r *Resolver) children(ctx context.Context, frontier []string, role domain.Role) ([]string, error) {
	if len(frontier) == 0 {
		return nil, nil
	}
	return r.stratum(ctx, func() ([]string, error) {
		return r.tree.ListChildIDs(ctx, frontier, role)
	})
}

func (r *Resolver) stratum(_ context.Context, fetch func() ([]string, error)) ([]string, error) {
	start := time.Now()
	ids, err := fetch()
	r.metrics.RecordStratum(time.Since(start), err)
	return ids, err
}
