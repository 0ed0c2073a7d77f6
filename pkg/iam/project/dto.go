package project

// CreateProjectRequest carries the fields needed to register a project.
type CreateProjectRequest struct {
	Name                 string         `json:"name"`
	Slug                 string         `json:"slug"`
	TenantStrategy       TenantStrategy `json:"tenant_strategy"`
	JWTExpirationMinutes int            `json:"jwt_expiration_minutes"`
}

// CreateProjectResponse returns the generated credentials exactly once.
// None of the plaintext values are recoverable afterwards.
type CreateProjectResponse struct {
	Project      ConfigDTO `json:"project"`
	APIKey       string    `json:"api_key"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Message      string    `json:"message"`
}

// RotateResponse returns a newly rotated credential exactly once.
type RotateResponse struct {
	APIKey       string `json:"api_key,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	Message      string `json:"message"`
}
