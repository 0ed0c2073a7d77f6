package errx

// Type categorizes an error for transport-level mapping.
type Type string

const (
	// TypeInternal represents internal server errors.
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents malformed or invalid input.
	TypeValidation Type = "VALIDATION"

	// TypeAuthentication represents failed authentication (bad credentials,
	// bad API key, bad or expired token, inactive project).
	TypeAuthentication Type = "AUTHENTICATION"

	// TypePermission represents an authenticated caller lacking a role.
	TypePermission Type = "PERMISSION"

	// TypeNotFound represents a missing resource.
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents a resource conflict (duplicates, lost races).
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents failures of external collaborators.
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type.
func (t Type) String() string {
	return string(t)
}

// typeToHTTPStatus maps error types to HTTP status codes.
func typeToHTTPStatus(t Type) int {
	switch t {
	case TypeValidation:
		return 400
	case TypeAuthentication:
		return 401
	case TypePermission:
		return 403
	case TypeNotFound:
		return 404
	case TypeConflict:
		return 409
	case TypeExternal:
		return 502
	default:
		return 500
	}
}
