package tenant

import (
	"net/http"
	"time"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TENANT")

var (
	CodeTenantNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Tenant not found")
	// Inactive tenants are indistinguishable from missing ones to callers.
	CodeTenantInactive = ErrRegistry.Register("INACTIVE", errx.TypeNotFound, http.StatusNotFound, "Tenant not found")
	CodeSlugTaken      = ErrRegistry.Register("SLUG_TAKEN", errx.TypeConflict, http.StatusConflict, "Tenant slug already exists in this project")
)

func ErrTenantNotFound() *errx.Error { return ErrRegistry.New(CodeTenantNotFound) }
func ErrTenantInactive() *errx.Error { return ErrRegistry.New(CodeTenantInactive) }
func ErrSlugTaken() *errx.Error      { return ErrRegistry.New(CodeSlugTaken) }

// ============================================================================
// Entity
// ============================================================================

// Tenant is a customer organization inside a project. Slugs are unique per
// project, not globally, so two projects can both have an "acme".
type Tenant struct {
	ID        kernel.TenantID  `db:"id" json:"id"`
	ProjectID kernel.ProjectID `db:"project_id" json:"project_id"`
	Name      string           `db:"name" json:"name"`
	Slug      string           `db:"slug" json:"slug"`
	// SchemaName is the isolation identifier for schema-strategy projects;
	// nil for discriminator projects.
	SchemaName *string   `db:"schema_name" json:"schema_name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Deactivate turns the tenant off. Logins and token verification against it
// fail from this point on.
func (t *Tenant) Deactivate() {
	t.IsActive = false
	t.UpdatedAt = time.Now().UTC()
}

// CreateTenantRequest carries the fields a project supplies when registering
// a tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
