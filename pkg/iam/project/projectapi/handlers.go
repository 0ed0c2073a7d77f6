package projectapi

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/iam/project/projectsrv"
)

// AdminTokenHeader authorizes the provisioning endpoints. Provisioning is a
// bootstrap operation: there is no project credential yet to authenticate
// with.
const AdminTokenHeader = "X-Admin-Token"

// ProjectHandlers exposes project provisioning and credential rotation.
type ProjectHandlers struct {
	projects   *projectsrv.ProjectService
	adminToken string
}

// NewProjectHandlers creates the project handler set. An empty adminToken
// disables provisioning entirely.
func NewProjectHandlers(projects *projectsrv.ProjectService, adminToken string) *ProjectHandlers {
	return &ProjectHandlers{projects: projects, adminToken: adminToken}
}

// RegisterRoutes mounts provisioning behind the admin token and rotation
// behind the owning project's API key.
func (h *ProjectHandlers) RegisterRoutes(app *fiber.App, apiKey *auth.APIKeyMiddleware) {
	app.Post("/api/v1/projects", h.requireAdminToken, h.create)

	rotate := app.Group("/api/v1/auth/project", apiKey.RequireAPIKey())
	rotate.Post("/rotate-api-key", h.rotateAPIKey)
	rotate.Post("/rotate-client-secret", h.rotateClientSecret)
}

func (h *ProjectHandlers) requireAdminToken(c *fiber.Ctx) error {
	presented := c.Get(AdminTokenHeader)
	if h.adminToken == "" || presented == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(h.adminToken)) != 1 {
		return fiber.ErrNotFound
	}
	return c.Next()
}

func (h *ProjectHandlers) create(c *fiber.Ctx) error {
	var req project.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("Invalid request body", errx.TypeValidation)
	}
	resp, err := h.projects.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ProjectHandlers) rotateAPIKey(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	resp, err := h.projects.RotateAPIKey(c.UserContext(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *ProjectHandlers) rotateClientSecret(c *fiber.Ctx) error {
	p, err := auth.ProjectFromCtx(c)
	if err != nil {
		return err
	}
	resp, err := h.projects.RotateClientSecret(c.UserContext(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
