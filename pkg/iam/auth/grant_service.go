package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// UserAuthenticator verifies end-user credentials.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

// TenantResolver maps a slug to a project's active tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, projectID kernel.ProjectID, slug string) (*tenant.Tenant, error)
}

// GlobalLoginResult is the response of a tenant-less login: the account plus
// every tenant of the calling project it can log into.
type GlobalLoginResult struct {
	User    user.ProfileDTO         `json:"user"`
	Tenants []user.MembershipDetail `json:"tenants"`
}

// GrantService implements the password and refresh grants and token
// verification. Every operation runs on behalf of an already-authenticated
// project; nothing here crosses a project boundary.
type GrantService struct {
	tokens          TokenService
	refreshStore    RefreshTokenStore
	users           UserAuthenticator
	tenants         TenantResolver
	userRepo        user.Repository
	membershipRepo  user.MembershipRepository
	tenantRepo      tenant.Repository
	audit           AuditService
	refreshTokenTTL time.Duration
}

// NewGrantService creates a new grant service.
func NewGrantService(
	tokens TokenService,
	refreshStore RefreshTokenStore,
	users UserAuthenticator,
	tenants TenantResolver,
	userRepo user.Repository,
	membershipRepo user.MembershipRepository,
	tenantRepo tenant.Repository,
	audit AuditService,
	refreshTokenTTL time.Duration,
) *GrantService {
	if refreshTokenTTL <= 0 {
		refreshTokenTTL = 7 * 24 * time.Hour
	}
	return &GrantService{
		tokens:          tokens,
		refreshStore:    refreshStore,
		users:           users,
		tenants:         tenants,
		userRepo:        userRepo,
		membershipRepo:  membershipRepo,
		tenantRepo:      tenantRepo,
		audit:           audit,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// PasswordGrant exchanges email, password, and tenant slug for a token pair.
// The user must hold a membership in the tenant; authenticating is not
// enough.
func (s *GrantService) PasswordGrant(ctx context.Context, p *project.Project, req LoginRequest) (*TokenPair, error) {
	t, err := s.tenants.Resolve(ctx, p.ID, req.TenantSlug)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.audit.LoginAttempt(ctx, p.ID.String(), req.TenantSlug, req.Email, false)
		return nil, err
	}

	m, err := s.membershipRepo.Find(ctx, u.ID, t.ID)
	if err != nil {
		s.audit.LoginAttempt(ctx, p.ID.String(), req.TenantSlug, req.Email, false)
		return nil, err
	}

	pair, err := s.issuePair(p, u, t.ID, m.Roles)
	if err != nil {
		return nil, err
	}
	s.audit.LoginAttempt(ctx, p.ID.String(), req.TenantSlug, req.Email, true)
	return pair, nil
}

// GlobalLogin authenticates without a tenant and returns the tenants of the
// calling project the user belongs to, so a client can offer a picker before
// the real login.
func (s *GrantService) GlobalLogin(ctx context.Context, p *project.Project, req GlobalLoginRequest) (*GlobalLoginResult, error) {
	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.audit.LoginAttempt(ctx, p.ID.String(), "", req.Email, false)
		return nil, err
	}

	details, err := s.membershipRepo.FindDetailsByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	scoped := make([]user.MembershipDetail, 0, len(details))
	for _, d := range details {
		if d.ProjectID == p.ID {
			scoped = append(scoped, d)
		}
	}

	s.audit.LoginAttempt(ctx, p.ID.String(), "", req.Email, true)
	return &GlobalLoginResult{User: u.ToProfileDTO(), Tenants: scoped}, nil
}

// RefreshGrant redeems a refresh token for a fresh pair. Each refresh token
// works once; the losing side of a concurrent redemption gets
// TOKEN_ALREADY_USED. User, tenant, and roles are re-read so deactivations
// and role changes take effect here, not at access-token expiry.
func (s *GrantService) RefreshGrant(ctx context.Context, p *project.Project, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(p, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrWrongTokenType()
	}
	if claims.JTI == "" {
		return nil, ErrTokenMalformed()
	}

	remaining := time.Until(claims.ExpiresAt)
	if remaining <= 0 {
		return nil, ErrTokenExpired()
	}
	first, err := s.refreshStore.MarkUsed(ctx, claims.JTI, remaining)
	if err != nil {
		return nil, errx.Wrap(err, "failed to mark refresh token used", errx.TypeInternal)
	}
	if !first {
		s.audit.TokenRefresh(ctx, p.ID.String(), claims.Subject.String(), false)
		return nil, ErrTokenAlreadyUsed()
	}

	u, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrInvalidCredentials()
	}

	t, err := s.tenantRepo.FindByID(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tenant.ErrTenantInactive()
	}

	m, err := s.membershipRepo.Find(ctx, u.ID, t.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(p, u, t.ID, m.Roles)
	if err != nil {
		return nil, err
	}
	s.audit.TokenRefresh(ctx, p.ID.String(), u.ID.String(), true)
	return pair, nil
}

// VerifyToken checks an access token on behalf of its project. The verdict
// goes in the result, not the error; only infrastructure failures error out.
func (s *GrantService) VerifyToken(ctx context.Context, p *project.Project, token string) *VerifyResult {
	claims, err := s.tokens.Verify(p, token)
	if err != nil {
		return &VerifyResult{Valid: false, Error: err.Error()}
	}
	if claims.Type != TokenTypeAccess {
		return &VerifyResult{Valid: false, Error: ErrWrongTokenType().Error()}
	}

	// A token outlives neither its tenant nor its account.
	t, err := s.tenantRepo.FindByID(ctx, claims.TenantID)
	if err != nil || !t.IsActive || t.ProjectID != p.ID {
		return &VerifyResult{Valid: false, Error: tenant.ErrTenantInactive().Error()}
	}
	u, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		return &VerifyResult{Valid: false, Error: user.ErrInvalidCredentials().Error()}
	}

	return &VerifyResult{Valid: true, Claims: claims}
}

// IssueFor mints a pair directly, used after invitation acceptance where the
// caller has already proven control of the account.
func (s *GrantService) IssueFor(p *project.Project, u *user.User, tenantID kernel.TenantID, roles []string) (*TokenPair, error) {
	return s.issuePair(p, u, tenantID, roles)
}

func (s *GrantService) issuePair(p *project.Project, u *user.User, tenantID kernel.TenantID, roles []string) (*TokenPair, error) {
	now := time.Now().UTC()
	accessTTL := p.AccessTokenTTL()

	base := Claims{
		Subject:   u.ID,
		Email:     u.Email,
		TenantID:  tenantID,
		ProjectID: p.ID,
		Roles:     roles,
		IssuedAt:  now,
	}

	access := base
	access.Type = TokenTypeAccess
	access.JTI = uuid.NewString()
	access.ExpiresAt = now.Add(accessTTL)
	accessToken, err := s.tokens.Issue(p, access)
	if err != nil {
		return nil, err
	}

	refresh := base
	refresh.Type = TokenTypeRefresh
	refresh.JTI = uuid.NewString()
	refresh.ExpiresAt = now.Add(s.refreshTokenTTL)
	refreshToken, err := s.tokens.Issue(p, refresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
	}, nil
}
