package auth

import (
	"net/http"
	"time"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeBadSignature     = ErrRegistry.Register("TOKEN_BAD_SIGNATURE", errx.TypeAuthentication, http.StatusUnauthorized, "Token signature is invalid")
	CodeTokenExpired     = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthentication, http.StatusUnauthorized, "Token has expired")
	CodeTokenMalformed   = ErrRegistry.Register("TOKEN_MALFORMED", errx.TypeAuthentication, http.StatusUnauthorized, "Token is malformed")
	CodeWrongTokenType   = ErrRegistry.Register("WRONG_TOKEN_TYPE", errx.TypeAuthentication, http.StatusUnauthorized, "Wrong token type for this operation")
	CodeTokenAlreadyUsed = ErrRegistry.Register("TOKEN_ALREADY_USED", errx.TypeAuthentication, http.StatusUnauthorized, "Refresh token has already been used")
	CodeMissingToken     = ErrRegistry.Register("MISSING_TOKEN", errx.TypeAuthentication, http.StatusUnauthorized, "Authorization token is required")
	CodeSigningFailed    = ErrRegistry.Register("SIGNING_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to sign token")
)

func ErrBadSignature() *errx.Error     { return ErrRegistry.New(CodeBadSignature) }
func ErrTokenExpired() *errx.Error     { return ErrRegistry.New(CodeTokenExpired) }
func ErrTokenMalformed() *errx.Error   { return ErrRegistry.New(CodeTokenMalformed) }
func ErrWrongTokenType() *errx.Error   { return ErrRegistry.New(CodeWrongTokenType) }
func ErrTokenAlreadyUsed() *errx.Error { return ErrRegistry.New(CodeTokenAlreadyUsed) }
func ErrMissingToken() *errx.Error     { return ErrRegistry.New(CodeMissingToken) }
func ErrSigningFailed() *errx.Error    { return ErrRegistry.New(CodeSigningFailed) }

// ============================================================================
// Tokens
// ============================================================================

// TokenType separates access tokens, which authorize requests, from refresh
// tokens, which only mint new pairs.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the identity a broker token carries. Roles reflect the user's
// membership in the tenant at issue time; a refresh re-reads them from the
// store rather than trusting the presented token.
type Claims struct {
	Subject   kernel.UserID    `json:"sub"`
	Email     string           `json:"email"`
	TenantID  kernel.TenantID  `json:"tenant_id"`
	ProjectID kernel.ProjectID `json:"project_id"`
	Roles     []string         `json:"roles"`
	Type      TokenType        `json:"type"`
	JTI       string           `json:"jti"`
	IssuedAt  time.Time        `json:"iat"`
	ExpiresAt time.Time        `json:"exp"`
}

// TokenPair is the response of the password and refresh grants.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// VerifyResult is the answer to a verification request. The transport status
// is 200 whether or not the token holds; Valid and Error carry the verdict.
type VerifyResult struct {
	Valid  bool    `json:"valid"`
	Claims *Claims `json:"payload,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// ============================================================================
// Requests
// ============================================================================

// ClientCredentials authenticate the calling project on grant endpoints that
// end users reach directly, where no API key is present.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// LoginRequest is the password grant input for a tenant-scoped login.
type LoginRequest struct {
	ClientCredentials
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantSlug string `json:"tenant_slug"`
}

// GlobalLoginRequest authenticates without a tenant; the response lists the
// tenants the user can then log into.
type GlobalLoginRequest struct {
	ClientCredentials
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the refresh grant input.
type RefreshRequest struct {
	ClientCredentials
	RefreshToken string `json:"refresh_token"`
}

// VerifyRequest is the token verification input.
type VerifyRequest struct {
	Token string `json:"token"`
}
