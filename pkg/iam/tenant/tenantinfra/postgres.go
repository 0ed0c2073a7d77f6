package tenantinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/kernel"
)

const tenantColumns = ` id, project_id, name, slug, schema_name, is_active, created_at, updated_at `

// PostgresTenantRepository is the PostgreSQL implementation of
// tenant.Repository.
type PostgresTenantRepository struct {
	db *sqlx.DB
}

// NewPostgresTenantRepository creates a new tenant repository.
func NewPostgresTenantRepository(db *sqlx.DB) tenant.Repository {
	return &PostgresTenantRepository{db: db}
}

// Save inserts or updates a tenant.
func (r *PostgresTenantRepository) Save(ctx context.Context, t tenant.Tenant) error {
	query := `
		INSERT INTO tenants (
			id, project_id, name, slug, is_active, created_at, updated_at
		) VALUES (
			:id, :project_id, :name, :slug, :is_active, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return tenant.ErrSlugTaken().WithDetail("slug", t.Slug)
		}
		return errx.Wrap(err, "failed to save tenant", errx.TypeInternal).
			WithDetail("tenant_id", t.ID.String())
	}
	return nil
}

// FindByID looks a tenant up by id.
func (r *PostgresTenantRepository) FindByID(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	query := `SELECT` + tenantColumns + `FROM tenants WHERE id = $1`

	var t tenant.Tenant
	if err := r.db.GetContext(ctx, &t, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound().WithDetail("tenant_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find tenant by id", errx.TypeInternal)
	}
	return &t, nil
}

// FindByProjectAndSlug resolves a slug within one project.
func (r *PostgresTenantRepository) FindByProjectAndSlug(ctx context.Context, projectID kernel.ProjectID, slug string) (*tenant.Tenant, error) {
	query := `SELECT` + tenantColumns + `FROM tenants WHERE project_id = $1 AND slug = $2`

	var t tenant.Tenant
	if err := r.db.GetContext(ctx, &t, query, projectID.String(), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound().WithDetail("slug", slug)
		}
		return nil, errx.Wrap(err, "failed to find tenant by slug", errx.TypeInternal)
	}
	return &t, nil
}

// FindByProject returns the project's tenants, newest first.
func (r *PostgresTenantRepository) FindByProject(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*tenant.Tenant, error) {
	opts.Normalize()
	query := `SELECT` + tenantColumns + `FROM tenants
		WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var tenants []tenant.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query, projectID.String(), opts.PageSize, opts.Offset()); err != nil {
		return nil, errx.Wrap(err, "failed to list tenants", errx.TypeInternal)
	}

	result := make([]*tenant.Tenant, len(tenants))
	for i := range tenants {
		result[i] = &tenants[i]
	}
	return result, nil
}

// Delete removes a tenant.
func (r *PostgresTenantRepository) Delete(ctx context.Context, id kernel.TenantID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete tenant", errx.TypeInternal)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return tenant.ErrTenantNotFound().WithDetail("tenant_id", id.String())
	}
	return nil
}
