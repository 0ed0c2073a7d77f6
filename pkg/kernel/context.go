package kernel

// ============================================================================
// Context Types
// ============================================================================

// AuthContext is the authentication context injected into each request.
// For server-to-server callers it carries the project resolved from the API
// key; for end-user callers it carries the identity decoded from a token.
type AuthContext struct {
	ProjectID ProjectID `json:"project_id"`
	TenantID  TenantID  `json:"tenant_id,omitempty"`
	UserID    *UserID   `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	IsAPIKey  bool      `json:"is_api_key"`
}

// IsValid reports whether the context carries enough identity to act on.
func (ac *AuthContext) IsValid() bool {
	if ac.IsAPIKey {
		return !ac.ProjectID.IsEmpty()
	}
	return ac.UserID != nil && !ac.UserID.IsEmpty() && !ac.ProjectID.IsEmpty()
}

// HasRole reports whether the context carries a specific role tag.
func (ac *AuthContext) HasRole(role string) bool {
	for _, r := range ac.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the context carries at least one of the roles.
func (ac *AuthContext) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if ac.HasRole(role) {
			return true
		}
	}
	return false
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey stores the AuthContext in fiber locals / context.Context.
	AuthContextKey ContextKey = "auth_context"

	// ProjectContextKey stores the authenticated project in fiber locals.
	ProjectContextKey ContextKey = "project"

	// RequestIDKey stores the request id.
	RequestIDKey ContextKey = "request_id"
)
