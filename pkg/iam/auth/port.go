package auth

import (
	"context"
	"time"

	"github.com/gestionsaas/identity/pkg/iam/project"
)

// TokenService signs and verifies tokens with a project's own secret and
// algorithm. Tokens never verify across projects.
type TokenService interface {
	// Issue signs the claims with the project's secret.
	Issue(p *project.Project, claims Claims) (string, error)

	// Verify parses the token against the project's secret and returns its
	// claims. The error codes distinguish bad signature, expiry, and
	// malformed input.
	Verify(p *project.Project, token string) (*Claims, error)
}

// RefreshTokenStore remembers which refresh tokens have been redeemed. A
// token id can be marked used exactly once.
type RefreshTokenStore interface {
	// MarkUsed records the token id for ttl and reports whether this call
	// was the first to do so. Concurrent redemptions of one token see
	// exactly one true.
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// AuditService records security-relevant grant events.
type AuditService interface {
	LoginAttempt(ctx context.Context, projectID, tenantSlug, email string, success bool)
	TokenRefresh(ctx context.Context, projectID, userID string, success bool)
}
