package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// APIKeyHeader carries the project credential on every broker call.
const APIKeyHeader = "X-API-Key"

// ProjectAuthenticator resolves a raw API key to an active project.
type ProjectAuthenticator interface {
	AuthenticateAPIKey(ctx context.Context, rawKey string) (*project.Project, error)
	GetByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error)
}

// APIKeyMiddleware authenticates the calling project.
type APIKeyMiddleware struct {
	projects ProjectAuthenticator
}

// NewAPIKeyMiddleware creates a new API key middleware.
func NewAPIKeyMiddleware(projects ProjectAuthenticator) *APIKeyMiddleware {
	return &APIKeyMiddleware{projects: projects}
}

// RequireAPIKey rejects requests without a valid X-API-Key and stores the
// resolved project for the handler.
func (m *APIKeyMiddleware) RequireAPIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawKey := c.Get(APIKeyHeader)
		if rawKey == "" {
			return project.ErrInvalidAPIKey()
		}

		p, err := m.projects.AuthenticateAPIKey(c.UserContext(), rawKey)
		if err != nil {
			return err
		}

		c.Locals(kernel.ProjectContextKey, p)
		return c.Next()
	}
}

// ProjectFromCtx returns the project stored by RequireAPIKey.
func ProjectFromCtx(c *fiber.Ctx) (*project.Project, error) {
	p, ok := c.Locals(kernel.ProjectContextKey).(*project.Project)
	if !ok || p == nil {
		return nil, project.ErrInvalidAPIKey()
	}
	return p, nil
}

// TokenMiddleware authenticates end users by bearer token. The project is
// resolved from the token's own claim, then the signature is verified with
// that project's secret; a forged claim still fails verification.
type TokenMiddleware struct {
	projects ProjectAuthenticator
	tokens   TokenService
}

// NewTokenMiddleware creates a new bearer token middleware.
func NewTokenMiddleware(projects ProjectAuthenticator, tokens TokenService) *TokenMiddleware {
	return &TokenMiddleware{projects: projects, tokens: tokens}
}

// Authenticate validates the bearer token and stores the auth context for
// the handler.
func (m *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return ErrMissingToken()
		}

		projectID, err := ExtractProjectID(token)
		if err != nil {
			return err
		}
		p, err := m.projects.GetByID(c.UserContext(), projectID)
		if err != nil {
			return ErrBadSignature()
		}
		if !p.IsActive {
			return project.ErrProjectInactive()
		}

		claims, err := m.tokens.Verify(p, token)
		if err != nil {
			return err
		}
		if claims.Type != TokenTypeAccess {
			return ErrWrongTokenType()
		}

		userID := claims.Subject
		c.Locals(kernel.AuthContextKey, &kernel.AuthContext{
			ProjectID: claims.ProjectID,
			TenantID:  claims.TenantID,
			UserID:    &userID,
			Email:     claims.Email,
			Roles:     claims.Roles,
			IsAPIKey:  false,
		})
		return c.Next()
	}
}

// RequireRole gates a route on any of the given roles.
func (m *TokenMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, err := AuthFromCtx(c)
		if err != nil {
			return err
		}
		if !ac.HasAnyRole(roles...) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// AuthFromCtx returns the auth context stored by Authenticate.
func AuthFromCtx(c *fiber.Ctx) (*kernel.AuthContext, error) {
	ac, ok := c.Locals(kernel.AuthContextKey).(*kernel.AuthContext)
	if !ok || ac == nil {
		return nil, ErrMissingToken()
	}
	return ac, nil
}

// BearerToken extracts the token from the Authorization header, or returns
// the empty string.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
