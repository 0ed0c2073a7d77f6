package user

import (
	"context"

	"github.com/gestionsaas/identity/pkg/kernel"
)

// Repository defines the contract for user persistence.
type Repository interface {
	// Save inserts or updates a user.
	Save(ctx context.Context, u User) error

	// FindByID looks a user up by id.
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// FindByEmail looks a user up by normalized email.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// MembershipRepository defines the contract for membership persistence.
type MembershipRepository interface {
	// Save inserts or updates a membership.
	Save(ctx context.Context, m Membership) error

	// Find returns the user's membership in one tenant.
	Find(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) (*Membership, error)

	// FindDetailsByUser returns all of a user's memberships joined with
	// tenant and project.
	FindDetailsByUser(ctx context.Context, userID kernel.UserID) ([]MembershipDetail, error)

	// FindByTenant returns the tenant's members joined with user details.
	FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]Member, error)

	// Delete removes a membership.
	Delete(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error
}
