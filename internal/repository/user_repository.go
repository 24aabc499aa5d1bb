package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wallet-access/internal/domain"
)

// UserRepository defines persistence access for accounts in the role tree.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByOAuthSubject(ctx context.Context, subject string) (*domain.User, error)
	ListAllIDs(ctx context.Context) ([]string, error)
	ListChildIDs(ctx context.Context, parentIDs []string, role domain.Role) ([]string, error)
	CountChildren(ctx context.Context, parentID string) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, role, parent_id, tenant_id, status, password_hash, oauth_subject, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ParentID,
		&user.TenantID,
		&user.Status,
		&user.PasswordHash,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, role, parent_id, tenant_id, status, password_hash, oauth_subject)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.ParentID,
		user.TenantID,
		user.Status,
		user.PasswordHash,
		user.OAuthSubject,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, role=$3, parent_id=$4, tenant_id=$5, status=$6,
            password_hash=$7, oauth_subject=$8, updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.ParentID,
		user.TenantID,
		user.Status,
		user.PasswordHash,
		user.OAuthSubject,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	const query = `UPDATE users SET status=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByOAuthSubject(ctx context.Context, subject string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE oauth_subject=$1`
	return scanUser(r.pool.QueryRow(ctx, query, subject))
}

func (r *userRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM users`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListChildIDs fetches one whole stratum in a single query. An empty
// frontier returns nothing without touching the database; the resolver
// additionally short-circuits before calling with one.
func (r *userRepository) ListChildIDs(ctx context.Context, parentIDs []string, role domain.Role) ([]string, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	const query = `SELECT id FROM users WHERE parent_id = ANY($1) AND role = $2`

	rows, err := r.pool.Query(ctx, query, parentIDs, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepository) CountChildren(ctx context.Context, parentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE parent_id=$1`

	var count int
	if err := r.pool.QueryRow(ctx, query, parentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
