package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken   = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeValidation, http.StatusBadRequest, "Email already registered")
	// Wrong email and wrong password share one message so a caller cannot
	// probe which emails exist.
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid email or password")
	CodeWeakPassword       = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password does not meet the minimum length")
	CodeMembershipNotFound = ErrRegistry.Register("MEMBERSHIP_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Membership not found")
	CodeAlreadyMember      = ErrRegistry.Register("ALREADY_MEMBER", errx.TypeConflict, http.StatusConflict, "User already belongs to this tenant")
	CodeNoMembership       = ErrRegistry.Register("NO_MEMBERSHIP", errx.TypePermission, http.StatusForbidden, "User does not belong to this tenant")
)

func ErrUserNotFound() *errx.Error       { return ErrRegistry.New(CodeUserNotFound) }
func ErrEmailTaken() *errx.Error         { return ErrRegistry.New(CodeEmailTaken) }
func ErrInvalidCredentials() *errx.Error { return ErrRegistry.New(CodeInvalidCredentials) }
func ErrWeakPassword() *errx.Error       { return ErrRegistry.New(CodeWeakPassword) }
func ErrMembershipNotFound() *errx.Error { return ErrRegistry.New(CodeMembershipNotFound) }
func ErrAlreadyMember() *errx.Error      { return ErrRegistry.New(CodeAlreadyMember) }
func ErrNoMembership() *errx.Error       { return ErrRegistry.New(CodeNoMembership) }

// ============================================================================
// Entity
// ============================================================================

// User is a global end-user account. Identity is the email; tenant access is
// carried by memberships, never on the user itself.
type User struct {
	ID           kernel.UserID `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	PasswordHash string        `db:"password_hash" json:"-"`
	FullName     string        `db:"full_name" json:"full_name"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Deactivate turns the account off. Logins and token refresh fail from this
// point on.
func (u *User) Deactivate() {
	u.IsActive = false
	u.UpdatedAt = time.Now().UTC()
}

// ProfileDTO is the self-service view of an account.
type ProfileDTO struct {
	ID       kernel.UserID `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	IsActive bool          `json:"is_active"`
}

// ToProfileDTO builds the self-service view.
func (u *User) ToProfileDTO() ProfileDTO {
	return ProfileDTO{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		IsActive: u.IsActive,
	}
}
