package tenantapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantsrv"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// TenantHandlers exposes project-scoped tenant management.
type TenantHandlers struct {
	tenants *tenantsrv.TenantService
}

// NewTenantHandlers creates the tenant handler set.
func NewTenantHandlers(tenants *tenantsrv.TenantService) *TenantHandlers {
	return &TenantHandlers{tenants: tenants}
}

// RegisterRoutes mounts tenant management under the project API key.
func (h *TenantHandlers) RegisterRoutes(app *fiber.App, apiKey *auth.APIKeyMiddleware) {
	g := app.Group("/api/v1/tenants", apiKey.RequireAPIKey())
	g.Get("/", h.list)
	g.Post("/", h.create)
	g.Delete("/:id", h.deactivate)
}

func (h *TenantHandlers) list(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	opts.Normalize()

	tenants, err := h.tenants.List(c.UserContext(), p.ID, opts)
	if err != nil {
		return err
	}
	return c.JSON(kernel.NewPaginated(tenants, opts.Page, opts.PageSize, len(tenants)))
}

func (h *TenantHandlers) create(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	var req tenant.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	t, err := h.tenants.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// deactivate turns a tenant off rather than deleting its rows; tokens and
// logins against it stop working immediately.
func (h *TenantHandlers) deactivate(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	if err := h.tenants.Deactivate(c.UserContext(), p.ID, kernel.NewTenantID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
