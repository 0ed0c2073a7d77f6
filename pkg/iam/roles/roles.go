// Package roles defines the role vocabulary granted through memberships and
// invitations. Roles are opaque tags to this service; enforcement of what a
// role permits is the consuming project's concern.
package roles

import (
	"net/http"

	"github.com/gestionsaas/identity/pkg/errx"
)

const (
	Admin   = "admin"
	Manager = "manager"
	User    = "user"
	Viewer  = "viewer"
)

var ErrRegistry = errx.NewRegistry("ROLES")

var CodeUnknownRole = ErrRegistry.Register("UNKNOWN_ROLE", errx.TypeValidation, http.StatusBadRequest, "Unknown role")

var known = map[string]struct{}{
	Admin:   {},
	Manager: {},
	User:    {},
	Viewer:  {},
}

// IsKnown reports whether a role tag belongs to the vocabulary.
func IsKnown(role string) bool {
	_, ok := known[role]
	return ok
}

// Validate checks a role set against the vocabulary. An empty set is
// rejected: a membership always grants at least one role.
func Validate(set []string) error {
	if len(set) == 0 {
		return ErrRegistry.NewWithMessage(CodeUnknownRole, "Role set must not be empty")
	}
	for _, r := range set {
		if !IsKnown(r) {
			return ErrRegistry.New(CodeUnknownRole).WithDetail("role", r)
		}
	}
	return nil
}

// Contains reports whether a role set carries the given role.
func Contains(set []string, role string) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}
