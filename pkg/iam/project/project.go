package project

import (
	"net/http"
	"time"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("PROJECT")

var (
	CodeProjectNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Project not found")
	CodeInvalidAPIKey     = ErrRegistry.Register("INVALID_API_KEY", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid API key")
	CodeProjectInactive   = ErrRegistry.Register("INACTIVE", errx.TypeAuthentication, http.StatusUnauthorized, "Project is inactive")
	CodeInvalidClientCred = ErrRegistry.Register("INVALID_CLIENT_CREDENTIALS", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid client credentials")
	CodeSlugTaken         = ErrRegistry.Register("SLUG_TAKEN", errx.TypeConflict, http.StatusConflict, "Project slug already exists")
)

func ErrProjectNotFound() *errx.Error   { return ErrRegistry.New(CodeProjectNotFound) }
func ErrInvalidAPIKey() *errx.Error     { return ErrRegistry.New(CodeInvalidAPIKey) }
func ErrProjectInactive() *errx.Error   { return ErrRegistry.New(CodeProjectInactive) }
func ErrInvalidClientCred() *errx.Error { return ErrRegistry.New(CodeInvalidClientCred) }
func ErrSlugTaken() *errx.Error         { return ErrRegistry.New(CodeSlugTaken) }

// ============================================================================
// Entity
// ============================================================================

// TenantStrategy selects how a project isolates tenant data.
type TenantStrategy string

const (
	StrategySchema        TenantStrategy = "schema"
	StrategyDiscriminator TenantStrategy = "discriminator"
)

// Project is a registered SaaS application consuming the broker. It owns an
// API key, OAuth2 client credentials, and a JWT signing configuration. The
// JWT secret is only ever disclosed to the project's own authenticated
// caller.
type Project struct {
	ID                   kernel.ProjectID `db:"id" json:"id"`
	Name                 string           `db:"name" json:"name"`
	Slug                 string           `db:"slug" json:"slug"`
	TenantStrategy       TenantStrategy   `db:"tenant_strategy" json:"tenant_strategy"`
	APIKeyHash           string           `db:"api_key_hash" json:"-"`
	ClientID             string           `db:"client_id" json:"client_id"`
	ClientSecretHash     string           `db:"client_secret_hash" json:"-"`
	JWTSecret            string           `db:"jwt_secret" json:"-"`
	JWTAlgorithm         string           `db:"jwt_algorithm" json:"jwt_algorithm"`
	JWTExpirationMinutes int              `db:"jwt_expiration_minutes" json:"jwt_expiration_minutes"`
	IsActive             bool             `db:"is_active" json:"is_active"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (p *Project) AccessTokenTTL() time.Duration {
	return time.Duration(p.JWTExpirationMinutes) * time.Minute
}

// Deactivate turns the project off. Tokens minted for it fail verification
// from this point on.
func (p *Project) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
}

// ============================================================================
// DTOs
// ============================================================================

// ConfigDTO is the project configuration returned to the owning project's
// authenticated caller. It includes the JWT secret so the project can sign
// its own tokens locally.
type ConfigDTO struct {
	ID                   kernel.ProjectID `json:"id"`
	Name                 string           `json:"name"`
	Slug                 string           `json:"slug"`
	TenantStrategy       TenantStrategy   `json:"tenant_strategy"`
	JWTSecret            string           `json:"jwt_secret"`
	JWTAlgorithm         string           `json:"jwt_algorithm"`
	JWTExpirationMinutes int              `json:"jwt_expiration_minutes"`
}

// ToConfigDTO builds the owning-caller view of the project.
func (p *Project) ToConfigDTO() ConfigDTO {
	return ConfigDTO{
		ID:                   p.ID,
		Name:                 p.Name,
		Slug:                 p.Slug,
		TenantStrategy:       p.TenantStrategy,
		JWTSecret:            p.JWTSecret,
		JWTAlgorithm:         p.JWTAlgorithm,
		JWTExpirationMinutes: p.JWTExpirationMinutes,
	}
}
