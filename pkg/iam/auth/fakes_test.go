package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/gestionsaas/identity/pkg/iam/tenant"
	"github.com/gestionsaas/identity/pkg/iam/user"
	"github.com/gestionsaas/identity/pkg/kernel"
)

type fakeRefreshStore struct {
	mu   sync.Mutex
	used map[string]bool
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{used: make(map[string]bool)}
}

func (s *fakeRefreshStore) MarkUsed(_ context.Context, jti string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used[jti] {
		return false, nil
	}
	s.used[jti] = true
	return true, nil
}

type fakeUserRepo struct {
	users map[kernel.UserID]user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[kernel.UserID]user.User)}
}

func (r *fakeUserRepo) Save(_ context.Context, u user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

// fakeAuthenticator applies the same uniform-failure rule as the real user
// service.
type fakeAuthenticator struct {
	repo   *fakeUserRepo
	hasher fakeHasher
}

func (a *fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := a.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, user.ErrInvalidCredentials()
	}
	if !a.hasher.Verify(password, u.PasswordHash) || !u.IsActive {
		return nil, user.ErrInvalidCredentials()
	}
	return u, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return "hashed:"+plain == hash }

type fakeMembershipRepo struct {
	memberships []user.Membership
}

func (r *fakeMembershipRepo) Save(_ context.Context, m user.Membership) error {
	r.memberships = append(r.memberships, m)
	return nil
}

func (r *fakeMembershipRepo) Find(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) (*user.Membership, error) {
	for _, m := range r.memberships {
		if m.UserID == userID && m.TenantID == tenantID && m.IsActive {
			m := m
			return &m, nil
		}
	}
	return nil, user.ErrNoMembership()
}

func (r *fakeMembershipRepo) FindDetailsByUser(_ context.Context, userID kernel.UserID) ([]user.MembershipDetail, error) {
	var out []user.MembershipDetail
	for _, m := range r.memberships {
		if m.UserID == userID && m.IsActive {
			out = append(out, user.MembershipDetail{
				MembershipID: m.ID,
				TenantID:     m.TenantID,
				Roles:        m.Roles,
			})
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) FindByTenant(_ context.Context, tenantID kernel.TenantID, _ kernel.PaginationOptions) ([]user.Member, error) {
	var out []user.Member
	for _, m := range r.memberships {
		if m.TenantID == tenantID {
			out = append(out, user.Member{MembershipID: m.ID, UserID: m.UserID, Roles: m.Roles})
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	for i, m := range r.memberships {
		if m.UserID == userID && m.TenantID == tenantID {
			r.memberships = append(r.memberships[:i], r.memberships[i+1:]...)
			return nil
		}
	}
	return user.ErrMembershipNotFound()
}

type fakeTenantRepo struct {
	tenants map[kernel.TenantID]tenant.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[kernel.TenantID]tenant.Tenant)}
}

func (r *fakeTenantRepo) Save(_ context.Context, t tenant.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func (r *fakeTenantRepo) FindByID(_ context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound()
	}
	return &t, nil
}

func (r *fakeTenantRepo) FindByProjectAndSlug(_ context.Context, projectID kernel.ProjectID, slug string) (*tenant.Tenant, error) {
	for _, t := range r.tenants {
		if t.ProjectID == projectID && t.Slug == slug {
			t := t
			return &t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound()
}

func (r *fakeTenantRepo) FindByProject(_ context.Context, projectID kernel.ProjectID, _ kernel.PaginationOptions) ([]*tenant.Tenant, error) {
	var out []*tenant.Tenant
	for _, t := range r.tenants {
		if t.ProjectID == projectID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) Delete(_ context.Context, id kernel.TenantID) error {
	delete(r.tenants, id)
	return nil
}

// fakeResolver mirrors the tenant service's active check.
type fakeResolver struct {
	repo *fakeTenantRepo
}

func (f *fakeResolver) Resolve(ctx context.Context, projectID kernel.ProjectID, slug string) (*tenant.Tenant, error) {
	t, err := f.repo.FindByProjectAndSlug(ctx, projectID, slug)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tenant.ErrTenantInactive()
	}
	return t, nil
}

type nopAudit struct{}

func (nopAudit) LoginAttempt(context.Context, string, string, string, bool) {}
func (nopAudit) TokenRefresh(context.Context, string, string, bool)         {}
