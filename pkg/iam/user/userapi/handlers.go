package userapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantsrv"
	"github.com/gestionsaas/identity/pkg/iam/user/usersrv"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// UserHandlers exposes the end-user self-service endpoints and the
// project-side member roster.
type UserHandlers struct {
	users   *usersrv.UserService
	tenants *tenantsrv.TenantService
}

// NewUserHandlers creates the user handler set.
func NewUserHandlers(users *usersrv.UserService, tenants *tenantsrv.TenantService) *UserHandlers {
	return &UserHandlers{users: users, tenants: tenants}
}

// RegisterRoutes mounts /users/me behind bearer tokens and the member roster
// behind the project API key.
func (h *UserHandlers) RegisterRoutes(app *fiber.App, tokens *auth.TokenMiddleware, apiKey *auth.APIKeyMiddleware) {
	me := app.Group("/api/v1/users/me", tokens.Authenticate())
	me.Get("/", h.profile)
	me.Put("/", h.updateProfile)
	me.Put("/password", h.updatePassword)
	me.Get("/memberships", h.memberships)

	members := app.Group("/api/v1/tenants/:slug/members", apiKey.RequireAPIKey())
	members.Get("/", h.listMembers)
	members.Delete("/:userID", h.removeMember)
}

func (h *UserHandlers) profile(c *fiber.Ctx) error {
	ac, err := auth.AuthFromCtx(c)
	if err != nil {
		return err
	}
	u, err := h.users.GetByID(c.UserContext(), *ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(u.ToProfileDTO())
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
}

func (h *UserHandlers) updateProfile(c *fiber.Ctx) error {
	ac, err := auth.AuthFromCtx(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	u, err := h.users.UpdateProfile(c.UserContext(), *ac.UserID, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(u.ToProfileDTO())
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandlers) updatePassword(c *fiber.Ctx) error {
	ac, err := auth.AuthFromCtx(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	if err := h.users.UpdatePassword(c.UserContext(), *ac.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandlers) memberships(c *fiber.Ctx) error {
	ac, err := auth.AuthFromCtx(c)
	if err != nil {
		return err
	}
	details, err := h.users.Memberships(c.UserContext(), *ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"memberships": details})
}

func (h *UserHandlers) listMembers(c *fiber.Ctx) error {
	t, err := h.scopedTenant(c)
	if err != nil {
		return err
	}
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	opts.Normalize()

	members, err := h.users.Members(c.UserContext(), t, opts)
	if err != nil {
		return err
	}
	return c.JSON(kernel.NewPaginated(members, opts.Page, opts.PageSize, len(members)))
}

func (h *UserHandlers) removeMember(c *fiber.Ctx) error {
	t, err := h.scopedTenant(c)
	if err != nil {
		return err
	}
	userID := kernel.NewUserID(c.Params("userID"))
	if err := h.users.RemoveMember(c.UserContext(), userID, t); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandlers) scopedTenant(c *fiber.Ctx) (kernel.TenantID, error) {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return "", err
	}
	t, err := h.tenants.Resolve(c.UserContext(), p.ID, c.Params("slug"))
	if err != nil {
		return "", err
	}
	return t.ID, nil
}
