package invitationapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/invitation"
	"github.com/gestionsaas/identity/pkg/iam/invitation/invitationsrv"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantsrv"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// InvitationHandlers exposes invitation onboarding: the public token
// endpoints invitees hit, and the project-side management endpoints.
type InvitationHandlers struct {
	invitations *invitationsrv.InvitationService
	tenants     *tenantsrv.TenantService
}

// NewInvitationHandlers creates the invitation handler set.
func NewInvitationHandlers(invitations *invitationsrv.InvitationService, tenants *tenantsrv.TenantService) *InvitationHandlers {
	return &InvitationHandlers{invitations: invitations, tenants: tenants}
}

// RegisterRoutes mounts the invitation endpoints. The token routes are
// public: possession of the token is the credential. Management routes sit
// under the tenant and require the project's API key.
func (h *InvitationHandlers) RegisterRoutes(app *fiber.App, apiKey *auth.APIKeyMiddleware) {
	pub := app.Group("/api/v1/invitations")
	pub.Get("/:token", h.resolve)
	pub.Post("/:token/accept", h.accept)

	mgmt := app.Group("/api/v1/tenants/:slug/invitations", apiKey.RequireAPIKey())
	mgmt.Get("/", h.list)
	mgmt.Post("/", h.create)
	mgmt.Delete("/:id", h.revoke)
}

func (h *InvitationHandlers) resolve(c *fiber.Ctx) error {
	preview, err := h.invitations.Resolve(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(preview)
}

func (h *InvitationHandlers) accept(c *fiber.Ctx) error {
	var req invitation.AcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	result, err := h.invitations.Accept(c.UserContext(), c.Params("token"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *InvitationHandlers) list(c *fiber.Ctx) error {
	p, t, err := h.scopedTenant(c)
	if err != nil {
		return err
	}
	opts := paginationFromQuery(c)
	invitations, err := h.invitations.ListByTenant(c.UserContext(), p, t, opts)
	if err != nil {
		return err
	}
	return c.JSON(kernel.NewPaginated(invitations, opts.Page, opts.PageSize, len(invitations)))
}

func (h *InvitationHandlers) create(c *fiber.Ctx) error {
	p, t, err := h.scopedTenant(c)
	if err != nil {
		return err
	}
	var req invitation.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	inv, err := h.invitations.Create(c.UserContext(), p, t, req)
	if err != nil {
		return err
	}
	// The token rides back to the creating project so it can deliver the
	// invite through its own channel as well.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invitation": inv,
		"token":      inv.Token,
	})
}

func (h *InvitationHandlers) revoke(c *fiber.Ctx) error {
	p, _, err := h.scopedTenant(c)
	if err != nil {
		return err
	}
	if err := h.invitations.Revoke(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *InvitationHandlers) scopedTenant(c *fiber.Ctx) (kernel.ProjectID, kernel.TenantID, error) {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return "", "", err
	}
	t, err := h.tenants.Resolve(c.UserContext(), p.ID, c.Params("slug"))
	if err != nil {
		return "", "", err
	}
	return p.ID, t.ID, nil
}

func paginationFromQuery(c *fiber.Ctx) kernel.PaginationOptions {
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	opts.Normalize()
	return opts
}
