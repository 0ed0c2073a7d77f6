package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// JWTService signs and verifies tokens with each project's own HMAC secret.
type JWTService struct{}

// NewJWTService creates a new JWT token service.
func NewJWTService() *JWTService {
	return &JWTService{}
}

// jwtClaims is the wire shape of broker claims.
type jwtClaims struct {
	Email     string    `json:"email"`
	TenantID  string    `json:"tenant_id"`
	ProjectID string    `json:"project_id"`
	Roles     []string  `json:"roles"`
	Type      TokenType `json:"type"`
	jwt.RegisteredClaims
}

func signingMethod(algorithm string) *jwt.SigningMethodHMAC {
	switch algorithm {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// Issue signs the claims with the project's secret and configured algorithm.
func (s *JWTService) Issue(p *project.Project, claims Claims) (string, error) {
	wire := jwtClaims{
		Email:     claims.Email,
		TenantID:  claims.TenantID.String(),
		ProjectID: claims.ProjectID.String(),
		Roles:     claims.Roles,
		Type:      claims.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			ID:        claims.JTI,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(signingMethod(p.JWTAlgorithm), wire)
	signed, err := token.SignedString([]byte(p.JWTSecret))
	if err != nil {
		return "", ErrSigningFailed().WithCause(err)
	}
	return signed, nil
}

// Verify parses the token against the project's secret. Signature, expiry,
// and malformed failures surface as distinct codes so verification callers
// can report the reason.
func (s *JWTService) Verify(p *project.Project, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature().WithDetail("alg", t.Header["alg"])
		}
		return []byte(p.JWTSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired()
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature()
		default:
			return nil, ErrTokenMalformed().WithCause(err)
		}
	}

	wire, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed()
	}
	if wire.Subject == "" || wire.Email == "" || wire.TenantID == "" ||
		wire.ProjectID == "" || len(wire.Roles) == 0 || wire.Type == "" ||
		wire.IssuedAt == nil || wire.ExpiresAt == nil {
		return nil, ErrTokenMalformed()
	}

	return &Claims{
		Subject:   kernel.NewUserID(wire.Subject),
		Email:     wire.Email,
		TenantID:  kernel.NewTenantID(wire.TenantID),
		ProjectID: kernel.NewProjectID(wire.ProjectID),
		Roles:     wire.Roles,
		Type:      wire.Type,
		JTI:       wire.ID,
		IssuedAt:  wire.IssuedAt.Time,
		ExpiresAt: wire.ExpiresAt.Time,
	}, nil
}

// ExtractProjectID reads the project claim without verifying the signature.
// It only tells the caller which project's secret to verify with; nothing is
// trusted until Verify passes.
func ExtractProjectID(tokenString string) (kernel.ProjectID, error) {
	var wire jwtClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &wire); err != nil {
		return "", ErrTokenMalformed().WithCause(err)
	}
	if wire.ProjectID == "" {
		return "", ErrTokenMalformed()
	}
	return kernel.NewProjectID(wire.ProjectID), nil
}
