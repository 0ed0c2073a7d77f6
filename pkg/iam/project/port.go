package project

import (
	"context"

	"github.com/gestionsaas/identity/pkg/kernel"
)

// Repository defines the contract for project persistence.
type Repository interface {
	// Save inserts or updates a project.
	Save(ctx context.Context, p Project) error

	// FindByID looks a project up by id.
	FindByID(ctx context.Context, id kernel.ProjectID) (*Project, error)

	// FindBySlug looks a project up by its unique slug.
	FindBySlug(ctx context.Context, slug string) (*Project, error)

	// FindByAPIKeyHash looks a project up by the digest of a presented key.
	FindByAPIKeyHash(ctx context.Context, hash string) (*Project, error)

	// FindByClientID looks a project up by its OAuth2 client id.
	FindByClientID(ctx context.Context, clientID string) (*Project, error)

	// List returns all projects, newest first.
	List(ctx context.Context, opts kernel.PaginationOptions) ([]*Project, error)

	// Delete removes a project and, through the store, its tenants.
	Delete(ctx context.Context, id kernel.ProjectID) error
}

// SecretHasher hashes and verifies client secrets.
type SecretHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
