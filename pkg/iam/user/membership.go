package user

import (
	"time"

	"github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/kernel"
)

// Membership binds a user to a tenant with a set of roles. A user holds at
// most one membership per tenant.
type Membership struct {
	ID        string          `db:"id" json:"id"`
	UserID    kernel.UserID   `db:"user_id" json:"user_id"`
	TenantID  kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Roles     pq.StringArray  `db:"roles" json:"roles"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the membership carries the role.
func (m *Membership) HasRole(role string) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MembershipDetail is a membership joined with its tenant and project, the
// shape a user sees when listing where they belong.
type MembershipDetail struct {
	MembershipID string           `db:"membership_id" json:"membership_id"`
	TenantID     kernel.TenantID  `db:"tenant_id" json:"tenant_id"`
	TenantName   string           `db:"tenant_name" json:"tenant_name"`
	TenantSlug   string           `db:"tenant_slug" json:"tenant_slug"`
	ProjectID    kernel.ProjectID `db:"project_id" json:"project_id"`
	ProjectName  string           `db:"project_name" json:"project_name"`
	Roles        pq.StringArray   `db:"roles" json:"roles"`
}

// Member is a membership joined with its user, the shape a tenant admin sees
// when listing members.
type Member struct {
	MembershipID string         `db:"membership_id" json:"membership_id"`
	UserID       kernel.UserID  `db:"user_id" json:"user_id"`
	Email        string         `db:"email" json:"email"`
	FullName     string         `db:"full_name" json:"full_name"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	JoinedAt     time.Time      `db:"joined_at" json:"joined_at"`
}
