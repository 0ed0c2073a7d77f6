package invitation

import (
	"context"

	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// Repository defines the contract for invitation persistence.
type Repository interface {
	// Save inserts an invitation.
	Save(ctx context.Context, inv Invitation) error

	// FindByToken looks an invitation up by its token.
	FindByToken(ctx context.Context, token string) (*Invitation, error)

	// FindByID looks an invitation up by id.
	FindByID(ctx context.Context, id string) (*Invitation, error)

	// FindPending returns the unexpired, unused invitation for an email in
	// a tenant, if one exists.
	FindPending(ctx context.Context, tenantID kernel.TenantID, email string) (*Invitation, error)

	// FindByTenant returns the tenant's invitations, newest first.
	FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]*Invitation, error)

	// Redeem marks the invitation used and creates the membership, plus the
	// account when newUser is non-nil, in one transaction. A concurrent
	// redemption of the same token leaves exactly one winner; the losers
	// get ALREADY_USED.
	Redeem(ctx context.Context, inv *Invitation, newUser *user.User, membership user.Membership) error

	// Delete removes an invitation, revoking it.
	Delete(ctx context.Context, id string) error
}
