package invitationinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/invitation"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

const invitationColumns = ` id, project_id, tenant_id, email, roles, token, expires_at, used_at, created_at `

// PostgresInvitationRepository is the PostgreSQL implementation of
// invitation.Repository.
type PostgresInvitationRepository struct {
	db *sqlx.DB
}

// NewPostgresInvitationRepository creates a new invitation repository.
func NewPostgresInvitationRepository(db *sqlx.DB) invitation.Repository {
	return &PostgresInvitationRepository{db: db}
}

// Save inserts an invitation.
func (r *PostgresInvitationRepository) Save(ctx context.Context, inv invitation.Invitation) error {
	query := `
		INSERT INTO invitations (
			id, project_id, tenant_id, email, roles, token, expires_at, used_at, created_at
		) VALUES (
			:id, :project_id, :tenant_id, :email, :roles, :token, :expires_at, :used_at, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return errx.Wrap(err, "failed to save invitation", errx.TypeInternal)
	}
	return nil
}

// FindByToken looks an invitation up by its token.
func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	query := `SELECT` + invitationColumns + `FROM invitations WHERE token = $1`

	var inv invitation.Invitation
	if err := r.db.GetContext(ctx, &inv, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation by token", errx.TypeInternal)
	}
	return &inv, nil
}

// FindByID looks an invitation up by id.
func (r *PostgresInvitationRepository) FindByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	query := `SELECT` + invitationColumns + `FROM invitations WHERE id = $1`

	var inv invitation.Invitation
	if err := r.db.GetContext(ctx, &inv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation by id", errx.TypeInternal)
	}
	return &inv, nil
}

// FindPending returns the live invitation for an email in a tenant, if any.
func (r *PostgresInvitationRepository) FindPending(ctx context.Context, tenantID kernel.TenantID, email string) (*invitation.Invitation, error) {
	query := `SELECT` + invitationColumns + `FROM invitations
		WHERE tenant_id = $1 AND email = $2 AND used_at IS NULL AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1`

	var inv invitation.Invitation
	if err := r.db.GetContext(ctx, &inv, query, tenantID.String(), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find pending invitation", errx.TypeInternal)
	}
	return &inv, nil
}

// FindByTenant returns the tenant's invitations, newest first.
func (r *PostgresInvitationRepository) FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]*invitation.Invitation, error) {
	opts.Normalize()
	query := `SELECT` + invitationColumns + `FROM invitations
		WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var invitations []invitation.Invitation
	if err := r.db.SelectContext(ctx, &invitations, query, tenantID.String(), opts.PageSize, opts.Offset()); err != nil {
		return nil, errx.Wrap(err, "failed to list invitations", errx.TypeInternal)
	}

	result := make([]*invitation.Invitation, len(invitations))
	for i := range invitations {
		result[i] = &invitations[i]
	}
	return result, nil
}

// Redeem consumes the invitation in one transaction. The UPDATE only matches
// while used_at is still NULL, so under concurrent redemption the row count
// decides the single winner and everything else rolls back.
func (r *PostgresInvitationRepository) Redeem(ctx context.Context, inv *invitation.Invitation, newUser *user.User, membership user.Membership) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin redeem transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE invitations SET used_at = now() WHERE id = $1 AND used_at IS NULL AND expires_at > now()`,
		inv.ID)
	if err != nil {
		return errx.Wrap(err, "failed to consume invitation", errx.TypeInternal)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return invitation.ErrAlreadyUsed()
	}

	if newUser != nil {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO users (
				id, email, password_hash, full_name, is_active, created_at, updated_at
			) VALUES (
				:id, :email, :password_hash, :full_name, :is_active, :created_at, :updated_at
			)`, newUser)
		if err != nil {
			return errx.Wrap(err, "failed to create invited user", errx.TypeInternal)
		}
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO memberships (
			id, user_id, tenant_id, roles, created_at, updated_at
		) VALUES (
			:id, :user_id, :tenant_id, :roles, :created_at, :updated_at
		)`, membership)
	if err != nil {
		return errx.Wrap(err, "failed to create membership", errx.TypeInternal)
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit redeem transaction", errx.TypeInternal)
	}
	return nil
}

// Delete removes an invitation.
func (r *PostgresInvitationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete invitation", errx.TypeInternal)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return invitation.ErrInvitationNotFound()
	}
	return nil
}
