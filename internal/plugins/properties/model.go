// Package properties manages the key-value configuration store backing the
// auth core. The cipher secrets (CRYPTO_SECRET, CRYPTO_SALT) and token
// settings (JWT_SECRET, JWT_EXPIRE_TIME) live here rather than in env vars,
// so they can be rotated at runtime. Absence of a required key is an error,
// never a default.
package properties

import "time"

// Property represents a single row in the properties key-value table.
type Property struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known property keys the auth core depends on.
const (
	KeyCryptoSecret  = "CRYPTO_SECRET"
	KeyCryptoSalt    = "CRYPTO_SALT"
	KeyJWTSecret     = "JWT_SECRET"
	KeyJWTExpireTime = "JWT_EXPIRE_TIME" // Integer number of hours.
)

// UpdatePropertyRequest holds the body for the admin property update endpoint.
type UpdatePropertyRequest struct {
	Value string `json:"value" form:"value"`
}
