package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/auth"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/kernel"
)

func testProject(id, secret string) *project.Project {
	return &project.Project{
		ID:                   kernel.NewProjectID(id),
		Name:                 "Test",
		Slug:                 id,
		JWTSecret:            secret,
		JWTAlgorithm:         "HS256",
		JWTExpirationMinutes: 30,
		IsActive:             true,
	}
}

func testClaims(p *project.Project, tokenType auth.TokenType, ttl time.Duration) auth.Claims {
	now := time.Now().UTC()
	return auth.Claims{
		Subject:   kernel.NewUserID("user-1"),
		Email:     "alice@example.com",
		TenantID:  kernel.NewTenantID("tenant-1"),
		ProjectID: p.ID,
		Roles:     []string{"admin", "user"},
		Type:      tokenType,
		JTI:       "jti-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc := auth.NewJWTService()
	p := testProject("proj-1", "secret-one")

	token, err := svc.Issue(p, testClaims(p, auth.TokenTypeAccess, time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(p, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject.String() != "user-1" {
		t.Errorf("wrong subject: %s", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("wrong email: %s", claims.Email)
	}
	if claims.TenantID.String() != "tenant-1" || claims.ProjectID != p.ID {
		t.Errorf("wrong scope: tenant=%s project=%s", claims.TenantID, claims.ProjectID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "admin" {
		t.Errorf("wrong roles: %v", claims.Roles)
	}
	if claims.Type != auth.TokenTypeAccess {
		t.Errorf("wrong type: %s", claims.Type)
	}
	if claims.JTI != "jti-1" {
		t.Errorf("wrong jti: %s", claims.JTI)
	}
}

func TestVerifyRejectsOtherProjectsToken(t *testing.T) {
	svc := auth.NewJWTService()
	projectA := testProject("proj-a", "secret-a")
	projectB := testProject("proj-b", "secret-b")

	token, err := svc.Issue(projectA, testClaims(projectA, auth.TokenTypeAccess, time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Verify(projectB, token); !errx.HasCode(err, auth.CodeBadSignature) {
		t.Errorf("expected bad signature across projects, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := auth.NewJWTService()
	p := testProject("proj-1", "secret-one")

	token, err := svc.Issue(p, testClaims(p, auth.TokenTypeAccess, -time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Verify(p, token); !errx.HasCode(err, auth.CodeTokenExpired) {
		t.Errorf("expected expired, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := auth.NewJWTService()
	p := testProject("proj-1", "secret-one")

	for _, input := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(p, input); !errx.HasCode(err, auth.CodeTokenMalformed) {
			t.Errorf("input %q: expected malformed, got %v", input, err)
		}
	}
}

func TestIssueHonorsProjectAlgorithm(t *testing.T) {
	svc := auth.NewJWTService()

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		p := testProject("proj-1", "secret-one")
		p.JWTAlgorithm = alg

		token, err := svc.Issue(p, testClaims(p, auth.TokenTypeAccess, time.Hour))
		if err != nil {
			t.Fatalf("%s: Issue: %v", alg, err)
		}
		if _, err := svc.Verify(p, token); err != nil {
			t.Errorf("%s: Verify: %v", alg, err)
		}
	}
}

func TestExtractProjectID(t *testing.T) {
	svc := auth.NewJWTService()
	p := testProject("proj-1", "secret-one")

	token, err := svc.Issue(p, testClaims(p, auth.TokenTypeAccess, time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := auth.ExtractProjectID(token)
	if err != nil {
		t.Fatalf("ExtractProjectID: %v", err)
	}
	if id != p.ID {
		t.Errorf("wrong project id: %s", id)
	}

	if _, err := auth.ExtractProjectID("garbage"); !errx.HasCode(err, auth.CodeTokenMalformed) {
		t.Errorf("expected malformed, got %v", err)
	}
}

// Tokens carry a fixed claim set; a signature-valid token that omits any of
// them must be rejected, not decoded into a partial payload.
func TestVerifyRejectsIncompleteClaims(t *testing.T) {
	svc := auth.NewJWTService()
	p := testProject("proj-1", "secret-one")
	now := time.Now().UTC()

	full := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":        "user-1",
			"email":      "alice@example.com",
			"tenant_id":  "tenant-1",
			"project_id": "proj-1",
			"roles":      []string{"user"},
			"type":       "access",
			"iat":        now.Unix(),
			"exp":        now.Add(time.Hour).Unix(),
		}
	}

	required := []string{"sub", "email", "tenant_id", "project_id", "roles", "type", "iat", "exp"}
	for _, missing := range required {
		claims := full()
		delete(claims, missing)

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.JWTSecret))
		if err != nil {
			t.Fatalf("sign token without %s: %v", missing, err)
		}

		if _, err := svc.Verify(p, signed); !errx.HasCode(err, auth.CodeTokenMalformed) {
			t.Errorf("token without %s: got %v, want TOKEN_MALFORMED", missing, err)
		}
	}

	// The complete set still verifies.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, full()).SignedString([]byte(p.JWTSecret))
	if err != nil {
		t.Fatalf("sign full token: %v", err)
	}
	if _, err := svc.Verify(p, signed); err != nil {
		t.Errorf("full claim set rejected: %v", err)
	}
}
