package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wallet-access/internal/domain"
)

// DomainMappingRepository defines persistence access for domain mappings.
type DomainMappingRepository interface {
	Create(ctx context.Context, mapping *domain.DomainMapping) error
	GetActiveByDomain(ctx context.Context, host string) (*domain.DomainMapping, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.DomainMapping, error)
	Deactivate(ctx context.Context, id string) error
}

type domainMappingRepository struct {
	pool *pgxpool.Pool
}

// NewDomainMappingRepository returns a Postgres-backed implementation.
func NewDomainMappingRepository(pool *pgxpool.Pool) DomainMappingRepository {
	return &domainMappingRepository{pool: pool}
}

func (r *domainMappingRepository) Create(ctx context.Context, mapping *domain.DomainMapping) error {
	const query = `
        INSERT INTO domain_mappings (id, domain, tenant_id, domain_type, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		mapping.ID,
		mapping.Domain,
		mapping.TenantID,
		mapping.Type,
		mapping.Active,
	).Scan(&mapping.CreatedAt)
}

// GetActiveByDomain is an exact, case-sensitive host match against
// active mappings only.
func (r *domainMappingRepository) GetActiveByDomain(ctx context.Context, host string) (*domain.DomainMapping, error) {
	const query = `
        SELECT id, domain, tenant_id, domain_type, active, created_at
        FROM domain_mappings WHERE domain=$1 AND active=TRUE`

	var mapping domain.DomainMapping
	if err := r.pool.QueryRow(ctx, query, host).Scan(
		&mapping.ID,
		&mapping.Domain,
		&mapping.TenantID,
		&mapping.Type,
		&mapping.Active,
		&mapping.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *domainMappingRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.DomainMapping, error) {
	const query = `
        SELECT id, domain, tenant_id, domain_type, active, created_at
        FROM domain_mappings WHERE tenant_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []domain.DomainMapping
	for rows.Next() {
		var mapping domain.DomainMapping
		if err := rows.Scan(
			&mapping.ID,
			&mapping.Domain,
			&mapping.TenantID,
			&mapping.Type,
			&mapping.Active,
			&mapping.CreatedAt,
		); err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

func (r *domainMappingRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE domain_mappings SET active=FALSE WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
