// Package users manages user records and their role assignments. The auth
// plugin consumes this package read-only (encrypted credentials, role sets);
// everything else is plain CRUD.
//
// Roles live in two places for historical reasons: the primary role column
// on the user row (the "profile") and the user_roles join table for
// additional grants. RolesByEmail exposes the union so callers never care
// which shape a deployment used.
package users

import "time"

// User is the domain model for a registered user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	Rut       string    `json:"rut,omitempty"` // National ID, dash-joined with its check digit.
	Role      string    `json:"role"`          // Primary role ("profile").
	Roles     []string  `json:"roles"`         // Full role set: Role + user_roles rows.
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordEncrypted is the cipher payload of the user's password.
	// Never serialized in responses.
	PasswordEncrypted string `json:"-"`
}

// DefaultRole is assigned to new users when no role is specified.
const DefaultRole = "user"

// CreateUserRequest holds the body for user creation.
type CreateUserRequest struct {
	Name     string `json:"name" form:"name"`
	Lastname string `json:"lastname" form:"lastname"`
	Email    string `json:"email" form:"email"`
	Rut      string `json:"rut" form:"rut"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// UpdateUserRequest holds the body for user updates. Nil pointers mean
// "leave unchanged".
type UpdateUserRequest struct {
	Name     *string `json:"name" form:"name"`
	Lastname *string `json:"lastname" form:"lastname"`
	Rut      *string `json:"rut" form:"rut"`
	Role     *string `json:"role" form:"role"`
	Active   *bool   `json:"active" form:"active"`
}

// AssignRoleRequest holds the body for role assignment.
type AssignRoleRequest struct {
	Role string `json:"role" form:"role"`
}
