package domain

import dErrors "campuspulse/pkg/domain-errors"

// Role identifies the kind of principal acting on the platform.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries (token claims, request
// bodies); direct casting bypasses validation.
type Role string

// Supported roles. Faculty hold the elevated permissions (event management,
// attendance marking); students are the only role that accrues incentive
// points.
const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleFaculty: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
