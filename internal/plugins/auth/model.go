// Package auth implements the authentication and authorization core:
// credential verification against cipher-encrypted stored passwords,
// stateless session token issuance/verification, and request guards for
// role-based access control.
//
// Sessions carry no server-side state. A token's validity is re-derived on
// every request from its signature and embedded expiry, and the signing
// secret is fetched from the property store per operation so it can be
// rotated without a restart.
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the facts embedded in a session token. Email is required;
// Profile carries the user's primary role and is only needed where
// role-guarded routes are involved.
type Claims struct {
	Email   string `json:"email"`
	Profile string `json:"profile,omitempty"`
	jwt.RegisteredClaims
}

// Sentinel errors for the token and credential paths. The HTTP boundary
// collapses most of these into 401, but they stay distinguishable so the
// specific reason can be logged.
var (
	// ErrConfigMissing means a required property (JWT_SECRET,
	// JWT_EXPIRE_TIME, CRYPTO_SECRET, CRYPTO_SALT) is absent or unusable.
	// Fatal to the calling operation.
	ErrConfigMissing = errors.New("auth: required configuration property missing")

	// ErrTokenInvalid means the signature did not verify, the signing
	// algorithm was wrong, or a required claim is missing.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrTokenExpired means the token was once valid but its expiry has
	// passed. A new token must be issued via a fresh login.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidCredentials means the candidate password did not match.
	// Only returned when the verifier runs under PolicyError.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// PropertySource is the configuration lookup the token and credential code
// depends on. Satisfied by properties.PropertyService.
type PropertySource interface {
	Value(ctx context.Context, key string) (string, error)
}

// UserSource is what the auth plugin needs from the users plugin: read-only
// access to stored credentials and role data. The auth core never writes
// user records.
type UserSource interface {
	CredentialSource
	RoleSource

	// ProfileByEmail returns the user's primary role for embedding in the
	// token's profile claim.
	ProfileByEmail(ctx context.Context, email string) (string, error)
}

// CredentialSource provides the encrypted stored password for an identity.
type CredentialSource interface {
	EncryptedPasswordByEmail(ctx context.Context, email string) (string, error)
}

// RoleSource resolves the full role set for an identity. Used by the role
// guard when it re-fetches roles instead of trusting the token's profile
// claim alone.
type RoleSource interface {
	RolesByEmail(ctx context.Context, email string) ([]string, error)
}

// FailurePolicy selects how a password mismatch surfaces from VerifyLogin.
// Both behaviors exist at different call sites of the original system, so
// the choice belongs to the integrator, not the verifier.
type FailurePolicy string

const (
	// PolicyBoolean returns (false, nil) on mismatch.
	PolicyBoolean FailurePolicy = "boolean"

	// PolicyError returns ErrInvalidCredentials on mismatch.
	PolicyError FailurePolicy = "error"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Status bool   `json:"status"`
	Token  string `json:"token"`
}
