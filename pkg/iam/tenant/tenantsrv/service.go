package tenantsrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// TenantService manages tenants within a project boundary. Every operation
// takes the caller's project id so one project can never see another's
// tenants.
type TenantService struct {
	tenantRepo tenant.Repository
}

// NewTenantService creates a new tenant service.
func NewTenantService(tenantRepo tenant.Repository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// Resolve maps a slug to the project's tenant. Inactive tenants resolve the
// same way missing ones do.
func (s *TenantService) Resolve(ctx context.Context, projectID kernel.ProjectID, slug string) (*tenant.Tenant, error) {
	if slug == "" {
		return nil, tenant.ErrTenantNotFound()
	}

	t, err := s.tenantRepo.FindByProjectAndSlug(ctx, projectID, slug)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tenant.ErrTenantInactive().WithDetail("slug", slug)
	}
	return t, nil
}

// Get returns a tenant by id, scoped to the caller's project.
func (s *TenantService) Get(ctx context.Context, projectID kernel.ProjectID, id kernel.TenantID) (*tenant.Tenant, error) {
	t, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != projectID {
		return nil, tenant.ErrTenantNotFound().WithDetail("tenant_id", id.String())
	}
	return t, nil
}

// Create registers a new tenant under the project. Projects isolating by
// schema get a schema name derived from the project and tenant slugs;
// discriminator projects leave it unset.
func (s *TenantService) Create(ctx context.Context, p *project.Project, req tenant.CreateTenantRequest) (*tenant.Tenant, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, errx.New("Tenant name and slug are required", errx.TypeValidation)
	}

	var schemaName *string
	if p.TenantStrategy == project.StrategySchema {
		name := strings.ReplaceAll("tenant_"+p.Slug+"_"+req.Slug, "-", "_")
		schemaName = &name
	}

	now := time.Now().UTC()
	t := tenant.Tenant{
		ID:         kernel.NewTenantID(uuid.NewString()),
		ProjectID:  p.ID,
		Name:       req.Name,
		Slug:       req.Slug,
		SchemaName: schemaName,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns the project's tenants.
func (s *TenantService) List(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*tenant.Tenant, error) {
	return s.tenantRepo.FindByProject(ctx, projectID, opts)
}

// Deactivate turns a tenant off without deleting its data.
func (s *TenantService) Deactivate(ctx context.Context, projectID kernel.ProjectID, id kernel.TenantID) error {
	t, err := s.Get(ctx, projectID, id)
	if err != nil {
		return err
	}
	t.Deactivate()
	return s.tenantRepo.Save(ctx, *t)
}
