package tenant

import (
	"context"

	"github.com/gestionsaas/identity/pkg/kernel"
)

// Repository defines the contract for tenant persistence.
type Repository interface {
	// Save inserts or updates a tenant.
	Save(ctx context.Context, t Tenant) error

	// FindByID looks a tenant up by id.
	FindByID(ctx context.Context, id kernel.TenantID) (*Tenant, error)

	// FindByProjectAndSlug resolves a slug within one project. A slug from
	// another project never matches.
	FindByProjectAndSlug(ctx context.Context, projectID kernel.ProjectID, slug string) (*Tenant, error)

	// FindByProject returns the project's tenants, newest first.
	FindByProject(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*Tenant, error)

	// Delete removes a tenant.
	Delete(ctx context.Context, id kernel.TenantID) error
}
