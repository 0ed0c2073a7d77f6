package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

const userColumns = ` id, email, password_hash, full_name, is_active, created_at, updated_at `

// PostgresUserRepository is the PostgreSQL implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new user repository.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{db: db}
}

// Save inserts or updates a user.
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, full_name, is_active, created_at, updated_at
		) VALUES (
			:id, :email, :password_hash, :full_name, :is_active, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return user.ErrEmailTaken()
		}
		return errx.Wrap(err, "failed to save user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return nil
}

// FindByID looks a user up by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE id = $1`

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal)
	}
	return &u, nil
}

// FindByEmail looks a user up by normalized email.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE email = $1`

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, user.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	return &u, nil
}

// PostgresMembershipRepository is the PostgreSQL implementation of
// user.MembershipRepository.
type PostgresMembershipRepository struct {
	db *sqlx.DB
}

// NewPostgresMembershipRepository creates a new membership repository.
func NewPostgresMembershipRepository(db *sqlx.DB) user.MembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

// Save inserts or updates a membership.
func (r *PostgresMembershipRepository) Save(ctx context.Context, m user.Membership) error {
	query := `
		INSERT INTO memberships (
			id, user_id, tenant_id, roles, is_active, created_at, updated_at
		) VALUES (
			:id, :user_id, :tenant_id, :roles, :is_active, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			roles = EXCLUDED.roles,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return user.ErrAlreadyMember()
		}
		return errx.Wrap(err, "failed to save membership", errx.TypeInternal)
	}
	return nil
}

// Find returns the user's active membership in one tenant. A suspended
// membership is indistinguishable from a missing one.
func (r *PostgresMembershipRepository) Find(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) (*user.Membership, error) {
	query := `SELECT id, user_id, tenant_id, roles, is_active, created_at, updated_at
		FROM memberships WHERE user_id = $1 AND tenant_id = $2 AND is_active = TRUE`

	var m user.Membership
	if err := r.db.GetContext(ctx, &m, query, userID.String(), tenantID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNoMembership()
		}
		return nil, errx.Wrap(err, "failed to find membership", errx.TypeInternal)
	}
	return &m, nil
}

// FindDetailsByUser returns all of a user's memberships joined with tenant
// and project.
func (r *PostgresMembershipRepository) FindDetailsByUser(ctx context.Context, userID kernel.UserID) ([]user.MembershipDetail, error) {
	query := `
		SELECT
			m.id AS membership_id,
			t.id AS tenant_id,
			t.name AS tenant_name,
			t.slug AS tenant_slug,
			p.id AS project_id,
			p.name AS project_name,
			m.roles AS roles
		FROM memberships m
		JOIN tenants t ON t.id = m.tenant_id
		JOIN projects p ON p.id = t.project_id
		WHERE m.user_id = $1 AND m.is_active = TRUE
		ORDER BY m.created_at DESC`

	var details []user.MembershipDetail
	if err := r.db.SelectContext(ctx, &details, query, userID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list memberships", errx.TypeInternal)
	}
	return details, nil
}

// FindByTenant returns the tenant's members joined with user details.
func (r *PostgresMembershipRepository) FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]user.Member, error) {
	opts.Normalize()
	query := `
		SELECT
			m.id AS membership_id,
			u.id AS user_id,
			u.email AS email,
			u.full_name AS full_name,
			u.is_active AS is_active,
			m.roles AS roles,
			m.created_at AS joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.tenant_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`

	var members []user.Member
	if err := r.db.SelectContext(ctx, &members, query, tenantID.String(), opts.PageSize, opts.Offset()); err != nil {
		return nil, errx.Wrap(err, "failed to list members", errx.TypeInternal)
	}
	return members, nil
}

// Delete removes a membership.
func (r *PostgresMembershipRepository) Delete(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID.String(), tenantID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete membership", errx.TypeInternal)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return user.ErrMembershipNotFound()
	}
	return nil
}
