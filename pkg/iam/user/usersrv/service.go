package usersrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

// RegisterRequest carries the fields for a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// UserService manages accounts and their tenant memberships.
type UserService struct {
	userRepo       user.Repository
	membershipRepo user.MembershipRepository
	hasher         user.PasswordHasher
	minPasswordLen int
}

// NewUserService creates a new user service.
func NewUserService(userRepo user.Repository, membershipRepo user.MembershipRepository, hasher user.PasswordHasher, minPasswordLen int) *UserService {
	if minPasswordLen <= 0 {
		minPasswordLen = 8
	}
	return &UserService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		hasher:         hasher,
		minPasswordLen: minPasswordLen,
	}
}

// Register creates a new account. Emails are normalized before storage so
// registration and login agree on case.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	email := user.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errx.New("A valid email is required", errx.TypeValidation)
	}
	if len(req.Password) < s.minPasswordLen {
		return nil, user.ErrWeakPassword().WithDetail("min_length", s.minPasswordLen)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Email:        email,
		PasswordHash: hash,
		FullName:     req.FullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Save(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies an email/password pair. Every failure path returns
// the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errx.HasCode(err, user.CodeUserNotFound) {
			return nil, user.ErrInvalidCredentials()
		}
		return nil, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials()
	}
	if !u.IsActive {
		return nil, user.ErrInvalidCredentials()
	}
	return u, nil
}

// GetByID returns an account by id.
func (s *UserService) GetByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateProfile changes the account's display fields.
func (s *UserService) UpdateProfile(ctx context.Context, id kernel.UserID, fullName string) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FullName = fullName
	u.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePassword changes the account password after verifying the current
// one.
func (s *UserService) UpdatePassword(ctx context.Context, id kernel.UserID, current, next string) error {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, u.PasswordHash) {
		return user.ErrInvalidCredentials()
	}
	if len(next) < s.minPasswordLen {
		return user.ErrWeakPassword().WithDetail("min_length", s.minPasswordLen)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return s.userRepo.Save(ctx, *u)
}

// Memberships returns everywhere the user belongs, joined with tenant and
// project details.
func (s *UserService) Memberships(ctx context.Context, id kernel.UserID) ([]user.MembershipDetail, error) {
	return s.membershipRepo.FindDetailsByUser(ctx, id)
}

// Members returns the tenant's member roster.
func (s *UserService) Members(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) ([]user.Member, error) {
	return s.membershipRepo.FindByTenant(ctx, tenantID, opts)
}

// RemoveMember deletes a user's membership in a tenant.
func (s *UserService) RemoveMember(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	return s.membershipRepo.Delete(ctx, userID, tenantID)
}
