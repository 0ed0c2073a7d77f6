package authapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/iam/project/projectsrv"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantsrv"
	"github.com/gestionsaas/identity/pkg/iam/user/usersrv"
)

// AuthHandlers exposes the broker's authentication surface: project
// resolution, grants, and token verification.
type AuthHandlers struct {
	projects *projectsrv.ProjectService
	tenants  *tenantsrv.TenantService
	users    *usersrv.UserService
	grants   *auth.GrantService
}

// NewAuthHandlers creates the auth handler set.
func NewAuthHandlers(
	projects *projectsrv.ProjectService,
	tenants *tenantsrv.TenantService,
	users *usersrv.UserService,
	grants *auth.GrantService,
) *AuthHandlers {
	return &AuthHandlers{
		projects: projects,
		tenants:  tenants,
		users:    users,
		grants:   grants,
	}
}

// RegisterRoutes mounts the auth endpoints under /api/v1/auth. The project
// group carries the API key middleware; the grant endpoints authenticate the
// project from client credentials in the body instead.
func (h *AuthHandlers) RegisterRoutes(app *fiber.App, apiKey *auth.APIKeyMiddleware) {
	g := app.Group("/api/v1/auth")

	keyed := g.Group("", apiKey.RequireAPIKey())
	keyed.Get("/project", h.getProject)
	keyed.Get("/tenant/:slug", h.getTenant)
	keyed.Post("/verify", h.verifyToken)
	keyed.Get("/verify", h.verifyBearer)

	g.Post("/register", h.register)
	g.Post("/login", h.globalLogin)
	g.Post("/login/tenant", h.tenantLogin)
	g.Post("/refresh", h.refresh)
}

// getProject returns the calling project's own configuration, including the
// JWT secret it signs with.
func (h *AuthHandlers) getProject(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	return c.JSON(p.ToConfigDTO())
}

func (h *AuthHandlers) getTenant(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	t, err := h.tenants.Resolve(c.UserContext(), p.ID, c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *AuthHandlers) verifyToken(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	var req auth.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	if req.Token == "" {
		return errx.New("Token is required", errx.TypeValidation)
	}
	return c.JSON(h.grants.VerifyToken(c.UserContext(), p, req.Token))
}

// verifyBearer verifies the token in the Authorization header rather than
// the body, for callers that forward their inbound header untouched.
func (h *AuthHandlers) verifyBearer(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	token := auth.BearerToken(c)
	if token == "" {
		return auth.ErrMissingToken()
	}
	return c.JSON(h.grants.VerifyToken(c.UserContext(), p, token))
}

func (h *AuthHandlers) register(c *fiber.Ctx) error {
	var req usersrv.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	u, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u.ToProfileDTO())
}

func (h *AuthHandlers) globalLogin(c *fiber.Ctx) error {
	var req auth.GlobalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	p, err := h.clientProject(c, req.ClientCredentials)
	if err != nil {
		return err
	}
	result, err := h.grants.GlobalLogin(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *AuthHandlers) tenantLogin(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	p, err := h.clientProject(c, req.ClientCredentials)
	if err != nil {
		return err
	}
	pair, err := h.grants.PasswordGrant(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

func (h *AuthHandlers) refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	p, err := h.clientProject(c, req.ClientCredentials)
	if err != nil {
		return err
	}
	pair, err := h.grants.RefreshGrant(c.UserContext(), p, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

// clientProject authenticates the calling project from body credentials,
// falling back to an API key when the header is present.
func (h *AuthHandlers) clientProject(c *fiber.Ctx, creds auth.ClientCredentials) (*project.Project, error) {
	if rawKey := c.Get(auth.APIKeyHeader); rawKey != "" {
		return h.projects.AuthenticateAPIKey(c.UserContext(), rawKey)
	}
	return h.projects.AuthenticateClient(c.UserContext(), creds.ClientID, creds.ClientSecret)
}
