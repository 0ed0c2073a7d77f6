package invitationsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/invitation"
	"github.com/gestionsaas/identity/pkg/iam/roles"
	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
	"github.com/gestionsaas/identity/pkg/logx"
	"github.com/gestionsaas/identity/pkg/notifx"
)

// AcceptResult is the outcome of a redeemed invitation.
type AcceptResult struct {
	User     user.ProfileDTO `json:"user"`
	TenantID kernel.TenantID `json:"tenant_id"`
	Roles    []string        `json:"roles"`
	// NewAccount is true when redemption created the account rather than
	// attaching to an existing one.
	NewAccount bool `json:"new_account"`
}

// Auditor records invitation redemptions.
type Auditor interface {
	InvitationAccepted(ctx context.Context, projectID, tenantID, email string)
}

// InvitationService manages the invitation lifecycle: create, preview,
// redeem, revoke.
type InvitationService struct {
	invitationRepo invitation.Repository
	userRepo       user.Repository
	membershipRepo user.MembershipRepository
	tenantRepo     tenant.Repository
	hasher         user.PasswordHasher
	notifier       notifx.EmailSender
	audit          Auditor
	invitationTTL  time.Duration
	minPasswordLen int
}

// NewInvitationService creates a new invitation service.
func NewInvitationService(
	invitationRepo invitation.Repository,
	userRepo user.Repository,
	membershipRepo user.MembershipRepository,
	tenantRepo tenant.Repository,
	hasher user.PasswordHasher,
	notifier notifx.EmailSender,
	audit Auditor,
	invitationTTL time.Duration,
	minPasswordLen int,
) *InvitationService {
	if invitationTTL <= 0 {
		invitationTTL = 7 * 24 * time.Hour
	}
	if minPasswordLen <= 0 {
		minPasswordLen = 8
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		tenantRepo:     tenantRepo,
		hasher:         hasher,
		notifier:       notifier,
		audit:          audit,
		invitationTTL:  invitationTTL,
		minPasswordLen: minPasswordLen,
	}
}

// Create issues an invitation for an email into one of the project's
// tenants. At most one live invitation exists per email and tenant, and
// existing members cannot be re-invited.
func (s *InvitationService) Create(ctx context.Context, projectID kernel.ProjectID, tenantID kernel.TenantID, req invitation.CreateRequest) (*invitation.Invitation, error) {
	email := user.NormalizeEmail(req.Email)
	if email == "" {
		return nil, errx.New("Invitee email is required", errx.TypeValidation)
	}
	if err := roles.Validate(req.Roles); err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != projectID {
		return nil, tenant.ErrTenantNotFound()
	}

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		if _, err := s.membershipRepo.Find(ctx, existing.ID, tenantID); err == nil {
			return nil, user.ErrAlreadyMember()
		}
	}

	if _, err := s.invitationRepo.FindPending(ctx, tenantID, email); err == nil {
		return nil, invitation.ErrPendingExists().WithDetail("email", email)
	}

	token, err := invitation.GenerateToken()
	if err != nil {
		return nil, err
	}

	inv := invitation.Invitation{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		TenantID:  tenantID,
		Email:     email,
		Roles:     req.Roles,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.invitationTTL),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.invitationRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.sendInvitationEmail(ctx, inv, t)
	return &inv, nil
}

// Resolve returns the preview of a live invitation without consuming it.
func (s *InvitationService) Resolve(ctx context.Context, token string) (*invitation.PreviewDTO, error) {
	inv, err := s.invitationRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.FindByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	return &invitation.PreviewDTO{
		Email:      inv.Email,
		TenantName: t.Name,
		TenantSlug: t.Slug,
		Roles:      inv.Roles,
		ExpiresAt:  inv.ExpiresAt,
	}, nil
}

// Accept redeems the invitation: the account is created when the email is
// new, and the membership is granted with the invitation's roles. Redemption
// is atomic; racing accepts of one token produce one membership.
func (s *InvitationService) Accept(ctx context.Context, token string, req invitation.AcceptRequest) (*AcceptResult, error) {
	inv, err := s.invitationRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.FindByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tenant.ErrTenantInactive()
	}

	var newUser *user.User
	existing, err := s.userRepo.FindByEmail(ctx, inv.Email)
	switch {
	case err == nil:
		if _, err := s.membershipRepo.Find(ctx, existing.ID, inv.TenantID); err == nil {
			return nil, user.ErrAlreadyMember()
		}
	case errx.HasCode(err, user.CodeUserNotFound):
		if len(req.Password) < s.minPasswordLen {
			return nil, user.ErrWeakPassword().WithDetail("min_length", s.minPasswordLen)
		}
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
		}
		now := time.Now().UTC()
		newUser = &user.User{
			ID:           kernel.NewUserID(uuid.NewString()),
			Email:        inv.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	default:
		return nil, err
	}

	account := existing
	if newUser != nil {
		account = newUser
	}

	now := time.Now().UTC()
	membership := user.Membership{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		TenantID:  inv.TenantID,
		Roles:     inv.Roles,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.invitationRepo.Redeem(ctx, inv, newUser, membership); err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.InvitationAccepted(ctx, inv.ProjectID.String(), inv.TenantID.String(), inv.Email)
	}

	return &AcceptResult{
		User:       account.ToProfileDTO(),
		TenantID:   inv.TenantID,
		Roles:      inv.Roles,
		NewAccount: newUser != nil,
	}, nil
}

// Revoke deletes an invitation, scoped to the caller's project.
func (s *InvitationService) Revoke(ctx context.Context, projectID kernel.ProjectID, id string) error {
	inv, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.ProjectID != projectID {
		return invitation.ErrInvitationNotFound()
	}
	return s.invitationRepo.Delete(ctx, inv.ID)
}

// ListByTenant returns the tenant's invitations.
func (s *InvitationService) ListByTenant(ctx context.Context, projectID kernel.ProjectID, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]*invitation.Invitation, error) {
	t, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != projectID {
		return nil, tenant.ErrTenantNotFound()
	}
	return s.invitationRepo.FindByTenant(ctx, tenantID, opts)
}

// sendInvitationEmail hands the invite to the mail sender (in production, a
// queue that delivers out of band). Failures are logged, not surfaced: the
// invitation exists either way and the token can be re-sent.
func (s *InvitationService) sendInvitationEmail(ctx context.Context, inv invitation.Invitation, t *tenant.Tenant) {
	if s.notifier == nil {
		return
	}
	msg := notifx.EmailMessage{
		To:      []string{inv.Email},
		Subject: fmt.Sprintf("You have been invited to %s", t.Name),
		TextBody: fmt.Sprintf(
			"You have been invited to join %s.\n\nYour invitation token:\n\n%s\n\nThe invitation expires at %s.",
			t.Name, inv.Token, inv.ExpiresAt.Format(time.RFC3339),
		),
	}
	if err := s.notifier.SendEmail(ctx, msg); err != nil {
		logx.WithError(err).WithField("email", inv.Email).Error("failed to queue invitation email")
	}
}
