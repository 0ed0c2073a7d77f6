package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

type grantFixture struct {
	svc         *auth.GrantService
	tokens      *auth.JWTService
	users       *fakeUserRepo
	memberships *fakeMembershipRepo
	tenants     *fakeTenantRepo
	store       *fakeRefreshStore
}

func newGrantFixture() *grantFixture {
	tokens := auth.NewJWTService()
	store := newFakeRefreshStore()
	users := newFakeUserRepo()
	memberships := &fakeMembershipRepo{}
	tenants := newFakeTenantRepo()

	svc := auth.NewGrantService(
		tokens,
		store,
		&fakeAuthenticator{repo: users, hasher: fakeHasher{}},
		&fakeResolver{repo: tenants},
		users,
		memberships,
		tenants,
		nopAudit{},
		7*24*time.Hour,
	)
	return &grantFixture{
		svc:         svc,
		tokens:      tokens,
		users:       users,
		memberships: memberships,
		tenants:     tenants,
		store:       store,
	}
}

func (f *grantFixture) seed() {
	f.tenants.tenants["tenant-1"] = tenant.Tenant{
		ID:        kernel.NewTenantID("tenant-1"),
		ProjectID: kernel.NewProjectID("proj-1"),
		Name:      "Acme",
		Slug:      "acme",
		IsActive:  true,
	}
	f.users.users["user-1"] = user.User{
		ID:           kernel.NewUserID("user-1"),
		Email:        "alice@example.com",
		PasswordHash: "hashed:correct-horse",
		IsActive:     true,
	}
	f.memberships.memberships = append(f.memberships.memberships, user.Membership{
		ID:       "m-1",
		UserID:   kernel.NewUserID("user-1"),
		TenantID: kernel.NewTenantID("tenant-1"),
		Roles:    []string{"admin", "user"},
		IsActive: true,
	})
}

func TestPasswordGrant(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email:      "alice@example.com",
		Password:   "correct-horse",
		TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("wrong token type: %s", pair.TokenType)
	}
	if pair.ExpiresIn != 30*60 {
		t.Errorf("wrong expires_in: %d", pair.ExpiresIn)
	}

	claims, err := f.tokens.Verify(p, pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify access token: %v", err)
	}
	if claims.Type != auth.TokenTypeAccess {
		t.Errorf("access token has type %s", claims.Type)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "admin" {
		t.Errorf("roles not carried: %v", claims.Roles)
	}
	if claims.TenantID.String() != "tenant-1" {
		t.Errorf("wrong tenant: %s", claims.TenantID)
	}

	refreshClaims, err := f.tokens.Verify(p, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Verify refresh token: %v", err)
	}
	if refreshClaims.Type != auth.TokenTypeRefresh {
		t.Errorf("refresh token has type %s", refreshClaims.Type)
	}
	if refreshClaims.JTI == claims.JTI {
		t.Error("access and refresh tokens must not share a jti")
	}
}

func TestPasswordGrantFailures(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	if _, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "wrong", TenantSlug: "acme",
	}); !errx.HasCode(err, user.CodeInvalidCredentials) {
		t.Errorf("wrong password: expected invalid credentials, got %v", err)
	}

	if _, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "nobody@example.com", Password: "correct-horse", TenantSlug: "acme",
	}); !errx.HasCode(err, user.CodeInvalidCredentials) {
		t.Errorf("unknown email: expected invalid credentials, got %v", err)
	}

	if _, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "missing",
	}); !errx.HasCode(err, tenant.CodeTenantNotFound) {
		t.Errorf("unknown tenant: expected not found, got %v", err)
	}

	// Authenticated but no membership in the tenant.
	f.users.users["user-2"] = user.User{
		ID:           kernel.NewUserID("user-2"),
		Email:        "bob@example.com",
		PasswordHash: "hashed:correct-horse",
		IsActive:     true,
	}
	if _, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "bob@example.com", Password: "correct-horse", TenantSlug: "acme",
	}); !errx.HasCode(err, user.CodeNoMembership) {
		t.Errorf("no membership: expected forbidden, got %v", err)
	}
}

// A membership that was suspended must block the grant the same way a
// missing one does.
func TestPasswordGrantRejectsInactiveMembership(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	f.memberships.memberships[0].IsActive = false

	if _, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	}); !errx.HasCode(err, user.CodeNoMembership) {
		t.Errorf("inactive membership: expected forbidden, got %v", err)
	}
}

func TestRefreshGrantRotation(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	next, err := f.svc.RefreshGrant(ctx, p, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshGrant: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh must rotate the refresh token")
	}

	// The redeemed token is dead.
	if _, err := f.svc.RefreshGrant(ctx, p, pair.RefreshToken); !errx.HasCode(err, auth.CodeTokenAlreadyUsed) {
		t.Errorf("expected already used, got %v", err)
	}

	// The replacement works.
	if _, err := f.svc.RefreshGrant(ctx, p, next.RefreshToken); err != nil {
		t.Errorf("rotated token should refresh: %v", err)
	}
}

func TestRefreshGrantRejectsAccessToken(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	if _, err := f.svc.RefreshGrant(ctx, p, pair.AccessToken); !errx.HasCode(err, auth.CodeWrongTokenType) {
		t.Errorf("expected wrong token type, got %v", err)
	}
}

func TestRefreshGrantConcurrentSingleWinner(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RefreshGrant(ctx, p, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errx.HasCode(err, auth.CodeTokenAlreadyUsed) {
			t.Errorf("loser should see already used, got %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestRefreshGrantReReadsState(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	// Role change lands in the next pair.
	f.memberships.memberships[0].Roles = []string{"viewer"}
	next, err := f.svc.RefreshGrant(ctx, p, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshGrant: %v", err)
	}
	claims, err := f.tokens.Verify(p, next.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "viewer" {
		t.Errorf("refresh should re-read roles, got %v", claims.Roles)
	}

	// Deactivated account cannot refresh.
	u := f.users.users["user-1"]
	u.Deactivate()
	f.users.users["user-1"] = u
	if _, err := f.svc.RefreshGrant(ctx, p, next.RefreshToken); !errx.HasCode(err, user.CodeInvalidCredentials) {
		t.Errorf("deactivated account should not refresh, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	f := newGrantFixture()
	f.seed()
	p := testProject("proj-1", "secret-one")
	ctx := context.Background()

	pair, err := f.svc.PasswordGrant(ctx, p, auth.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse", TenantSlug: "acme",
	})
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	result := f.svc.VerifyToken(ctx, p, pair.AccessToken)
	if !result.Valid {
		t.Fatalf("expected valid, got error %q", result.Error)
	}
	if result.Claims == nil || result.Claims.Email != "alice@example.com" {
		t.Errorf("missing claims: %+v", result.Claims)
	}

	if r := f.svc.VerifyToken(ctx, p, pair.RefreshToken); r.Valid {
		t.Error("refresh token must not verify as access token")
	}
	if r := f.svc.VerifyToken(ctx, p, "garbage"); r.Valid || r.Error == "" {
		t.Errorf("garbage should be invalid with an error, got %+v", r)
	}

	other := testProject("proj-2", "secret-two")
	if r := f.svc.VerifyToken(ctx, other, pair.AccessToken); r.Valid {
		t.Error("token must not verify under another project's secret")
	}

	// Tenant deactivation kills live tokens.
	tn := f.tenants.tenants["tenant-1"]
	tn.Deactivate()
	f.tenants.tenants["tenant-1"] = tn
	if r := f.svc.VerifyToken(ctx, p, pair.AccessToken); r.Valid {
		t.Error("token must not verify for a deactivated tenant")
	}
}
