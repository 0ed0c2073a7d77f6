package projectinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/kernel"
)

const projectColumns = `
	id, name, slug, tenant_strategy, api_key_hash, client_id,
	client_secret_hash, jwt_secret, jwt_algorithm, jwt_expiration_minutes,
	is_active, created_at, updated_at`

// PostgresProjectRepository is the PostgreSQL implementation of
// project.Repository.
type PostgresProjectRepository struct {
	db *sqlx.DB
}

// NewPostgresProjectRepository creates a new project repository.
func NewPostgresProjectRepository(db *sqlx.DB) project.Repository {
	return &PostgresProjectRepository{db: db}
}

// Save inserts or updates a project.
func (r *PostgresProjectRepository) Save(ctx context.Context, p project.Project) error {
	query := `
		INSERT INTO projects (
			id, name, slug, tenant_strategy, api_key_hash, client_id,
			client_secret_hash, jwt_secret, jwt_algorithm, jwt_expiration_minutes,
			is_active, created_at, updated_at
		) VALUES (
			:id, :name, :slug, :tenant_strategy, :api_key_hash, :client_id,
			:client_secret_hash, :jwt_secret, :jwt_algorithm, :jwt_expiration_minutes,
			:is_active, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			tenant_strategy = EXCLUDED.tenant_strategy,
			api_key_hash = EXCLUDED.api_key_hash,
			client_secret_hash = EXCLUDED.client_secret_hash,
			jwt_secret = EXCLUDED.jwt_secret,
			jwt_algorithm = EXCLUDED.jwt_algorithm,
			jwt_expiration_minutes = EXCLUDED.jwt_expiration_minutes,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return project.ErrSlugTaken().WithDetail("slug", p.Slug)
		}
		return errx.Wrap(err, "failed to save project", errx.TypeInternal).
			WithDetail("project_id", p.ID.String())
	}
	return nil
}

// FindByID looks a project up by id.
func (r *PostgresProjectRepository) FindByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	query := `SELECT` + projectColumns + `FROM projects WHERE id = $1`

	var p project.Project
	if err := r.db.GetContext(ctx, &p, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrProjectNotFound().WithDetail("project_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find project by id", errx.TypeInternal)
	}
	return &p, nil
}

// FindBySlug looks a project up by slug.
func (r *PostgresProjectRepository) FindBySlug(ctx context.Context, slug string) (*project.Project, error) {
	query := `SELECT` + projectColumns + `FROM projects WHERE slug = $1`

	var p project.Project
	if err := r.db.GetContext(ctx, &p, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrProjectNotFound().WithDetail("slug", slug)
		}
		return nil, errx.Wrap(err, "failed to find project by slug", errx.TypeInternal)
	}
	return &p, nil
}

// FindByAPIKeyHash looks a project up by the digest of a presented API key.
// The digest column is indexed, so presenting an unknown key costs one miss.
func (r *PostgresProjectRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*project.Project, error) {
	query := `SELECT` + projectColumns + `FROM projects WHERE api_key_hash = $1`

	var p project.Project
	if err := r.db.GetContext(ctx, &p, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrInvalidAPIKey()
		}
		return nil, errx.Wrap(err, "failed to find project by api key", errx.TypeInternal)
	}
	return &p, nil
}

// FindByClientID looks a project up by OAuth2 client id.
func (r *PostgresProjectRepository) FindByClientID(ctx context.Context, clientID string) (*project.Project, error) {
	query := `SELECT` + projectColumns + `FROM projects WHERE client_id = $1`

	var p project.Project
	if err := r.db.GetContext(ctx, &p, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrInvalidClientCred()
		}
		return nil, errx.Wrap(err, "failed to find project by client id", errx.TypeInternal)
	}
	return &p, nil
}

// List returns all projects, newest first.
func (r *PostgresProjectRepository) List(ctx context.Context, opts kernel.PaginationOptions) ([]*project.Project, error) {
	opts.Normalize()
	query := `SELECT` + projectColumns + `FROM projects ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var projects []project.Project
	if err := r.db.SelectContext(ctx, &projects, query, opts.PageSize, opts.Offset()); err != nil {
		return nil, errx.Wrap(err, "failed to list projects", errx.TypeInternal)
	}

	result := make([]*project.Project, len(projects))
	for i := range projects {
		result[i] = &projects[i]
	}
	return result, nil
}

// Delete removes a project; tenants cascade in the schema.
func (r *PostgresProjectRepository) Delete(ctx context.Context, id kernel.ProjectID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete project", errx.TypeInternal)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return project.ErrProjectNotFound().WithDetail("project_id", id.String())
	}
	return nil
}
