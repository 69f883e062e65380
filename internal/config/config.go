// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
//
// Only infrastructure settings live here (ports, connection strings, policy
// switches). The cryptographic material the auth core depends on
// (CRYPTO_SECRET, CRYPTO_SALT, JWT_SECRET, JWT_EXPIRE_TIME) is stored in the
// properties table and fetched per operation, so secrets can be rotated
// without a restart.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS and links.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication policy switches.
	Auth AuthConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "petfolio").
	User string

	// Password is the MariaDB password (default: "petfolio").
	Password string

	// Name is the database name (default: "petfolio").
	Name string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication policy switches. Existing deployments
// disagree on these behaviors, so the integrator picks one here instead of
// the code guessing.
type AuthConfig struct {
	// TokenHeader selects which header carries the session token:
	// "bearer" (Authorization: Bearer <token>), "api-token" (X-API-TOKEN),
	// or "any" to accept both.
	TokenHeader string

	// LoginFailureMode selects how a password mismatch surfaces from the
	// credential verifier: "boolean" (false result) or "error" (typed
	// invalid-credentials error).
	LoginFailureMode string

	// PropertyCacheTTL bounds how long configuration properties (including
	// the JWT signing secret) are cached in Redis. Keep this short so
	// secret rotation takes effect quickly.
	PropertyCacheTTL time.Duration

	// ContactAddress receives portfolio contact notifications.
	ContactAddress string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "petfolio"),
			Password:        getEnv("DB_PASSWORD", "petfolio"),
			Name:            getEnv("DB_NAME", "petfolio"),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			TokenHeader:      getEnv("AUTH_TOKEN_HEADER", "any"),
			LoginFailureMode: getEnv("AUTH_LOGIN_FAILURE_MODE", "error"),
			PropertyCacheTTL: getEnvDuration("PROPERTY_CACHE_TTL", 30*time.Second),
			ContactAddress:   getEnv("CONTACT_ADDRESS", ""),
		},
	}

	switch cfg.Auth.TokenHeader {
	case "bearer", "api-token", "any":
	default:
		return nil, fmt.Errorf("AUTH_TOKEN_HEADER must be one of bearer, api-token, any (got %q)", cfg.Auth.TokenHeader)
	}

	switch cfg.Auth.LoginFailureMode {
	case "boolean", "error":
	default:
		return nil, fmt.Errorf("AUTH_LOGIN_FAILURE_MODE must be boolean or error (got %q)", cfg.Auth.LoginFailureMode)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "30s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
