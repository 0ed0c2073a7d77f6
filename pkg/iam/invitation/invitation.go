package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("INVITATION")

var (
	CodeInvitationNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invitation not found")
	CodeInvitationExpired  = ErrRegistry.Register("EXPIRED", errx.TypeAuthentication, http.StatusUnauthorized, "Invitation has expired")
	CodeAlreadyUsed        = ErrRegistry.Register("ALREADY_USED", errx.TypeAuthentication, http.StatusUnauthorized, "Invitation has already been used")
	CodePendingExists      = ErrRegistry.Register("PENDING_EXISTS", errx.TypeValidation, http.StatusBadRequest, "A pending invitation already exists for this email")
)

func ErrInvitationNotFound() *errx.Error { return ErrRegistry.New(CodeInvitationNotFound) }
func ErrInvitationExpired() *errx.Error  { return ErrRegistry.New(CodeInvitationExpired) }
func ErrAlreadyUsed() *errx.Error        { return ErrRegistry.New(CodeAlreadyUsed) }
func ErrPendingExists() *errx.Error      { return ErrRegistry.New(CodePendingExists) }

// ============================================================================
// Entity
// ============================================================================

// Invitation is a single-use, time-bound offer of tenant membership sent to
// an email address. The token is the whole credential; knowing it is proving
// the invite.
type Invitation struct {
	ID        string           `db:"id" json:"id"`
	ProjectID kernel.ProjectID `db:"project_id" json:"project_id"`
	TenantID  kernel.TenantID  `db:"tenant_id" json:"tenant_id"`
	Email     string           `db:"email" json:"email"`
	Roles     pq.StringArray   `db:"roles" json:"roles"`
	Token     string           `db:"token" json:"-"`
	ExpiresAt time.Time        `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time       `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the invitation is past its deadline.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsUsed reports whether the invitation has been redeemed.
func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

// Validate returns the precise reason an invitation cannot be redeemed, or
// nil. Expiry is checked before use so a token that is both reports expired.
func (i *Invitation) Validate() error {
	if i.IsExpired() {
		return ErrInvitationExpired()
	}
	if i.IsUsed() {
		return ErrAlreadyUsed()
	}
	return nil
}

const tokenRandomBytes = 32

// GenerateToken returns a new URL-safe invitation token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate invitation token", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ============================================================================
// DTOs
// ============================================================================

// CreateRequest carries the fields a project supplies when inviting someone.
type CreateRequest struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// PreviewDTO is the non-consuming view of an invitation shown before the
// invitee decides to accept. The token is never echoed back.
type PreviewDTO struct {
	Email      string    `json:"email"`
	TenantName string    `json:"tenant_name"`
	TenantSlug string    `json:"tenant_slug"`
	Roles      []string  `json:"roles"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AcceptRequest carries the account fields for redemption. Password and
// FullName are only used when the email has no account yet.
type AcceptRequest struct {
	Password string `json:"password"`
	FullName string `json:"full_name"`
}
