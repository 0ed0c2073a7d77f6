package iamcontainer

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/gestionsaas/identity/pkg/config"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/auth/authapi"
	"github.com/gestionsaas/identity/pkg/iam/auth/authinfra"
	"github.com/gestionsaas/identity/pkg/iam/invitation/invitationapi"
	"github.com/gestionsaas/identity/pkg/iam/invitation/invitationinfra"
	"github.com/gestionsaas/identity/pkg/iam/invitation/invitationsrv"
	"github.com/gestionsaas/identity/pkg/iam/project/projectapi"
	"github.com/gestionsaas/identity/pkg/iam/project/projectinfra"
	"github.com/gestionsaas/identity/pkg/iam/project/projectsrv"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantapi"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantinfra"
	"github.com/gestionsaas/identity/pkg/iam/tenant/tenantsrv"
	"github.com/gestionsaas/identity/pkg/iam/user/userapi"
	"github.com/gestionsaas/identity/pkg/iam/user/userinfra"
	"github.com/gestionsaas/identity/pkg/iam/user/usersrv"
	"github.com/gestionsaas/identity/pkg/logx"
	"github.com/gestionsaas/identity/pkg/notifx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Notifier accepts invitation emails for delivery. Injected so the IAM
	// module has zero knowledge of the transport (direct provider or queue).
	Notifier notifx.EmailSender
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what other modules or cmd/ actually need.
// Internal repos, infra details, etc. stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	ProjectService    *projectsrv.ProjectService
	TenantService     *tenantsrv.TenantService
	UserService       *usersrv.UserService
	InvitationService *invitationsrv.InvitationService
	GrantService      *auth.GrantService
	TokenService      auth.TokenService

	// Handlers — needed by cmd/ to register routes
	AuthHandlers       *authapi.AuthHandlers
	ProjectHandlers    *projectapi.ProjectHandlers
	TenantHandlers     *tenantapi.TenantHandlers
	UserHandlers       *userapi.UserHandlers
	InvitationHandlers *invitationapi.InvitationHandlers

	// Middleware — needed by cmd/ to protect route groups
	APIKeyMiddleware *auth.APIKeyMiddleware
	TokenMiddleware  *auth.TokenMiddleware
}

// New constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
func New(deps Deps) *Container {
	c := &Container{}

	// ── Repositories ─────────────────────────────────────────────────────

	projectRepo := projectinfra.NewPostgresProjectRepository(deps.DB)
	tenantRepo := tenantinfra.NewPostgresTenantRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	membershipRepo := userinfra.NewPostgresMembershipRepository(deps.DB)
	invitationRepo := invitationinfra.NewPostgresInvitationRepository(deps.DB)

	// ── Infrastructure services ──────────────────────────────────────────

	hasher := authinfra.NewBcryptPasswordService(deps.Cfg.Auth.BcryptCost)
	refreshStore := authinfra.NewRedisTokenStore(deps.Redis)
	auditService := authinfra.NewLogxAuditService()
	c.TokenService = auth.NewJWTService()

	// ── Domain services ──────────────────────────────────────────────────

	c.ProjectService = projectsrv.NewProjectService(projectRepo, hasher)
	c.TenantService = tenantsrv.NewTenantService(tenantRepo)
	c.UserService = usersrv.NewUserService(
		userRepo,
		membershipRepo,
		hasher,
		deps.Cfg.Auth.MinPasswordLength,
	)
	c.InvitationService = invitationsrv.NewInvitationService(
		invitationRepo,
		userRepo,
		membershipRepo,
		tenantRepo,
		hasher,
		deps.Notifier,
		auditService,
		deps.Cfg.Auth.InvitationTTL,
		deps.Cfg.Auth.MinPasswordLength,
	)
	c.GrantService = auth.NewGrantService(
		c.TokenService,
		refreshStore,
		c.UserService,
		c.TenantService,
		userRepo,
		membershipRepo,
		tenantRepo,
		auditService,
		deps.Cfg.Auth.RefreshTokenTTL,
	)

	// ── Middleware ────────────────────────────────────────────────────────

	c.APIKeyMiddleware = auth.NewAPIKeyMiddleware(c.ProjectService)
	c.TokenMiddleware = auth.NewTokenMiddleware(c.ProjectService, c.TokenService)

	// ── Handlers ─────────────────────────────────────────────────────────

	c.AuthHandlers = authapi.NewAuthHandlers(
		c.ProjectService,
		c.TenantService,
		c.UserService,
		c.GrantService,
	)
	c.ProjectHandlers = projectapi.NewProjectHandlers(c.ProjectService, deps.Cfg.Auth.AdminToken)
	c.TenantHandlers = tenantapi.NewTenantHandlers(c.TenantService)
	c.UserHandlers = userapi.NewUserHandlers(c.UserService, c.TenantService)
	c.InvitationHandlers = invitationapi.NewInvitationHandlers(c.InvitationService, c.TenantService)

	logx.Info("IAM container initialized")
	return c
}
