// Package tenant resolves which business owns an inbound host name.
package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/repository"
)

// Resolution classifies the outcome of a domain lookup.
type Resolution int

const (
	// ResolutionMapped means an active mapping owns the host.
	ResolutionMapped Resolution = iota
	// ResolutionLocal means a development or preview host: no tenant,
	// public surface, resolved without touching the database.
	ResolutionLocal
	// ResolutionNotFound means no active mapping exists; callers must
	// render not-found, never default to the operator surface.
	ResolutionNotFound
)

// Result is the outcome of Directory.Resolve.
type Result struct {
	Resolution Resolution
	Mapping    *domain.DomainMapping
}

// DomainType returns the effective domain type of the resolution.
// Local hosts behave as public main domains.
func (r Result) DomainType() domain.DomainType {
	if r.Resolution == ResolutionMapped && r.Mapping != nil {
		return r.Mapping.Type
	}
	return domain.DomainTypeMain
}

// Directory maps exact host names to tenant domain mappings.
type Directory struct {
	mappings          repository.DomainMappingRepository
	logger            *zap.Logger
	previewHostSuffix string
	localHosts        map[string]struct{}
}

// NewDirectory builds a Directory. extraLocalHosts supplements the
// built-in localhost set for bespoke development setups.
func NewDirectory(mappings repository.DomainMappingRepository, logger *zap.Logger, previewHostSuffix string, extraLocalHosts []string) *Directory {
	local := map[string]struct{}{
		"localhost": {},
		"127.0.0.1": {},
	}
	for _, host := range extraLocalHosts {
		local[host] = struct{}{}
	}
	return &Directory{
		mappings:          mappings,
		logger:            logger,
		previewHostSuffix: previewHostSuffix,
		localHosts:        local,
	}
}

// Resolve looks up the owning tenant for the exact host component;
// the match is case-sensitive and expects no port or trailing dot.
func (d *Directory) Resolve(ctx context.Context, host string) (Result, error) {
	if d.isLocal(host) {
		return Result{Resolution: ResolutionLocal}, nil
	}

	mapping, err := d.mappings.GetActiveByDomain(ctx, host)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{Resolution: ResolutionNotFound}, nil
		}
		return Result{}, err
	}

	d.logger.Debug("domain resolved",
		zap.String("domain", mapping.Domain),
		zap.String("tenant_id", mapping.TenantID),
		zap.String("type", string(mapping.Type)),
	)
	return Result{Resolution: ResolutionMapped, Mapping: mapping}, nil
}

func (d *Directory) isLocal(host string) bool {
	if _, ok := d.localHosts[host]; ok {
		return true
	}
	return d.previewHostSuffix != "" && strings.HasSuffix(host, d.previewHostSuffix)
}
