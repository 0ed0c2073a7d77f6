package projectsrv

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/iam/project"
	"github.com/gestionsaas/identity/pkg/kernel"
)

const defaultJWTExpirationMinutes = 30

// ProjectService authenticates project callers and manages project
// credentials.
type ProjectService struct {
	projectRepo project.Repository
	hasher      project.SecretHasher
}

// NewProjectService creates a new project service.
func NewProjectService(projectRepo project.Repository, hasher project.SecretHasher) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		hasher:      hasher,
	}
}

// AuthenticateAPIKey resolves a raw API key to an active project. The key is
// matched through its one-way digest; the failure for a malformed, unknown,
// or wrong key is always the same.
func (s *ProjectService) AuthenticateAPIKey(ctx context.Context, rawKey string) (*project.Project, error) {
	if !project.ValidateAPIKeyFormat(rawKey) {
		return nil, project.ErrInvalidAPIKey()
	}

	p, err := s.projectRepo.FindByAPIKeyHash(ctx, project.HashAPIKey(rawKey))
	if err != nil {
		if errx.HasCode(err, project.CodeInvalidAPIKey) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to authenticate API key", errx.TypeInternal)
	}

	if !p.IsActive {
		return nil, project.ErrProjectInactive()
	}
	return p, nil
}

// AuthenticateClient resolves OAuth2 client credentials to an active
// project. Unknown client id and wrong secret produce the same error.
func (s *ProjectService) AuthenticateClient(ctx context.Context, clientID, clientSecret string) (*project.Project, error) {
	if clientID == "" || clientSecret == "" {
		return nil, project.ErrInvalidClientCred()
	}

	p, err := s.projectRepo.FindByClientID(ctx, clientID)
	if err != nil {
		if errx.HasCode(err, project.CodeInvalidClientCred) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to authenticate client", errx.TypeInternal)
	}

	if !s.hasher.Verify(clientSecret, p.ClientSecretHash) {
		return nil, project.ErrInvalidClientCred()
	}
	if !p.IsActive {
		return nil, project.ErrProjectInactive()
	}
	return p, nil
}

// GetByID returns a project by id.
func (s *ProjectService) GetByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	return s.projectRepo.FindByID(ctx, id)
}

// Create registers a new project and returns its credentials. The plaintext
// API key and client secret are part of the response and are never stored.
func (s *ProjectService) Create(ctx context.Context, req project.CreateProjectRequest) (*project.CreateProjectResponse, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, errx.New("Project name and slug are required", errx.TypeValidation)
	}

	strategy := req.TenantStrategy
	if strategy == "" {
		strategy = project.StrategySchema
	}
	expiration := req.JWTExpirationMinutes
	if expiration <= 0 {
		expiration = defaultJWTExpirationMinutes
	}

	apiKey, apiKeyHash, err := project.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	clientID, err := project.GenerateClientID()
	if err != nil {
		return nil, err
	}
	clientSecret, err := project.GenerateClientSecret()
	if err != nil {
		return nil, err
	}
	clientSecretHash, err := s.hasher.Hash(clientSecret)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash client secret", errx.TypeInternal)
	}
	jwtSecret, err := project.GenerateJWTSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := project.Project{
		ID:                   kernel.NewProjectID(uuid.NewString()),
		Name:                 req.Name,
		Slug:                 req.Slug,
		TenantStrategy:       strategy,
		APIKeyHash:           apiKeyHash,
		ClientID:             clientID,
		ClientSecretHash:     clientSecretHash,
		JWTSecret:            jwtSecret,
		JWTAlgorithm:         "HS256",
		JWTExpirationMinutes: expiration,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	return &project.CreateProjectResponse{
		Project:      p.ToConfigDTO(),
		APIKey:       apiKey,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Message:      "Store these credentials securely. They will not be shown again.",
	}, nil
}

// RotateAPIKey replaces the project's API key. The old key stops matching as
// soon as the new digest is stored.
func (s *ProjectService) RotateAPIKey(ctx context.Context, id kernel.ProjectID) (*project.RotateResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apiKey, apiKeyHash, err := project.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	p.APIKeyHash = apiKeyHash
	p.UpdatedAt = time.Now().UTC()
	if err := s.projectRepo.Save(ctx, *p); err != nil {
		return nil, err
	}

	return &project.RotateResponse{
		APIKey:  apiKey,
		Message: "Store the new API key securely. It will not be shown again.",
	}, nil
}

// RotateClientSecret replaces the project's OAuth2 client secret.
func (s *ProjectService) RotateClientSecret(ctx context.Context, id kernel.ProjectID) (*project.RotateResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clientSecret, err := project.GenerateClientSecret()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(clientSecret)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash client secret", errx.TypeInternal)
	}

	p.ClientSecretHash = hash
	p.UpdatedAt = time.Now().UTC()
	if err := s.projectRepo.Save(ctx, *p); err != nil {
		return nil, err
	}

	return &project.RotateResponse{
		ClientSecret: clientSecret,
		Message:      "Store the new client secret securely. It will not be shown again.",
	}, nil
}
