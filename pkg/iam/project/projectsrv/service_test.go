package projectsrv_test

import (
	"context"
	"testing"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/iam/project/projectsrv"
	"github.com/gestionsaas/identity/pkg/kernel"
)

type fakeProjectRepo struct {
	projects map[kernel.ProjectID]project.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[kernel.ProjectID]project.Project)}
}

func (r *fakeProjectRepo) Save(_ context.Context, p project.Project) error {
	r.projects[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id kernel.ProjectID) (*project.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound()
	}
	return &p, nil
}

func (r *fakeProjectRepo) FindBySlug(_ context.Context, slug string) (*project.Project, error) {
	for _, p := range r.projects {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, project.ErrProjectNotFound()
}

func (r *fakeProjectRepo) FindByAPIKeyHash(_ context.Context, hash string) (*project.Project, error) {
	for _, p := range r.projects {
		if p.APIKeyHash == hash {
			p := p
			return &p, nil
		}
	}
	return nil, project.ErrInvalidAPIKey()
}

func (r *fakeProjectRepo) FindByClientID(_ context.Context, clientID string) (*project.Project, error) {
	for _, p := range r.projects {
		if p.ClientID == clientID {
			p := p
			return &p, nil
		}
	}
	return nil, project.ErrInvalidClientCred()
}

func (r *fakeProjectRepo) List(_ context.Context, _ kernel.PaginationOptions) ([]*project.Project, error) {
	out := make([]*project.Project, 0, len(r.projects))
	for _, p := range r.projects {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id kernel.ProjectID) error {
	delete(r.projects, id)
	return nil
}

// fakeHasher is reversible on purpose so tests can assert verification paths
// without bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return "hashed:"+plain == hash }

func newService() (*projectsrv.ProjectService, *fakeProjectRepo) {
	repo := newFakeProjectRepo()
	return projectsrv.NewProjectService(repo, fakeHasher{}), repo
}

func TestCreateReturnsCredentialsOnce(t *testing.T) {
	svc, repo := newService()

	resp, err := svc.Create(context.Background(), project.CreateProjectRequest{
		Name: "Acme CRM",
		Slug: "acme-crm",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !project.ValidateAPIKeyFormat(resp.APIKey) {
		t.Errorf("expected well-formed API key, got %q", resp.APIKey)
	}
	if resp.ClientID == "" || resp.ClientSecret == "" {
		t.Error("expected client credentials in the response")
	}
	if resp.Project.JWTSecret == "" {
		t.Error("expected JWT secret in the config DTO")
	}
	if resp.Project.JWTExpirationMinutes != 30 {
		t.Errorf("expected default expiration 30, got %d", resp.Project.JWTExpirationMinutes)
	}

	stored := repo.projects[resp.Project.ID]
	if stored.APIKeyHash == resp.APIKey {
		t.Error("API key must be stored as a digest, not plaintext")
	}
	if stored.ClientSecretHash == resp.ClientSecret {
		t.Error("client secret must be stored hashed, not plaintext")
	}
	if !stored.IsActive {
		t.Error("new projects should be active")
	}
}

func TestCreateRequiresNameAndSlug(t *testing.T) {
	svc, _ := newService()

	if _, err := svc.Create(context.Background(), project.CreateProjectRequest{Slug: "x"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := svc.Create(context.Background(), project.CreateProjectRequest{Name: "x"}); err == nil {
		t.Error("expected error for missing slug")
	}
}

func TestAuthenticateAPIKey(t *testing.T) {
	svc, repo := newService()

	resp, err := svc.Create(context.Background(), project.CreateProjectRequest{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := svc.AuthenticateAPIKey(context.Background(), resp.APIKey)
	if err != nil {
		t.Fatalf("AuthenticateAPIKey: %v", err)
	}
	if p.ID != resp.Project.ID {
		t.Errorf("resolved wrong project: %s", p.ID)
	}

	if _, err := svc.AuthenticateAPIKey(context.Background(), "not-a-key"); !errx.HasCode(err, project.CodeInvalidAPIKey) {
		t.Errorf("expected invalid API key error for malformed key, got %v", err)
	}

	other, _, err := project.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if _, err := svc.AuthenticateAPIKey(context.Background(), other); !errx.HasCode(err, project.CodeInvalidAPIKey) {
		t.Errorf("expected invalid API key error for unknown key, got %v", err)
	}

	stored := repo.projects[resp.Project.ID]
	stored.Deactivate()
	repo.projects[resp.Project.ID] = stored
	if _, err := svc.AuthenticateAPIKey(context.Background(), resp.APIKey); !errx.HasCode(err, project.CodeProjectInactive) {
		t.Errorf("expected inactive project error, got %v", err)
	}
}

func TestAuthenticateClient(t *testing.T) {
	svc, _ := newService()

	resp, err := svc.Create(context.Background(), project.CreateProjectRequest{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := svc.AuthenticateClient(context.Background(), resp.ClientID, resp.ClientSecret)
	if err != nil {
		t.Fatalf("AuthenticateClient: %v", err)
	}
	if p.ID != resp.Project.ID {
		t.Errorf("resolved wrong project: %s", p.ID)
	}

	cases := []struct {
		name             string
		clientID, secret string
	}{
		{"unknown client id", "deadbeef", resp.ClientSecret},
		{"wrong secret", resp.ClientID, "wrong"},
		{"empty credentials", "", ""},
	}
	for _, tc := range cases {
		if _, err := svc.AuthenticateClient(context.Background(), tc.clientID, tc.secret); !errx.HasCode(err, project.CodeInvalidClientCred) {
			t.Errorf("%s: expected invalid client credentials error, got %v", tc.name, err)
		}
	}
}

func TestRotateAPIKeyInvalidatesOldKey(t *testing.T) {
	svc, _ := newService()

	resp, err := svc.Create(context.Background(), project.CreateProjectRequest{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rotated, err := svc.RotateAPIKey(context.Background(), resp.Project.ID)
	if err != nil {
		t.Fatalf("RotateAPIKey: %v", err)
	}
	if rotated.APIKey == resp.APIKey {
		t.Fatal("rotation must produce a new key")
	}

	if _, err := svc.AuthenticateAPIKey(context.Background(), resp.APIKey); !errx.HasCode(err, project.CodeInvalidAPIKey) {
		t.Errorf("old key should stop authenticating, got %v", err)
	}
	if _, err := svc.AuthenticateAPIKey(context.Background(), rotated.APIKey); err != nil {
		t.Errorf("new key should authenticate: %v", err)
	}
}

func TestRotateClientSecretInvalidatesOldSecret(t *testing.T) {
	svc, _ := newService()

	resp, err := svc.Create(context.Background(), project.CreateProjectRequest{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rotated, err := svc.RotateClientSecret(context.Background(), resp.Project.ID)
	if err != nil {
		t.Fatalf("RotateClientSecret: %v", err)
	}

	if _, err := svc.AuthenticateClient(context.Background(), resp.ClientID, resp.ClientSecret); !errx.HasCode(err, project.CodeInvalidClientCred) {
		t.Errorf("old secret should stop authenticating, got %v", err)
	}
	if _, err := svc.AuthenticateClient(context.Background(), resp.ClientID, rotated.ClientSecret); err != nil {
		t.Errorf("new secret should authenticate: %v", err)
	}
}
