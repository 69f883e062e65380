package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/plugins/properties"
)

// TokenService mints and verifies session tokens. It holds no state beyond
// its property source: the signing secret and expiry window are fetched per
// operation, so rotating JWT_SECRET invalidates outstanding tokens without
// a restart.
type TokenService struct {
	props PropertySource
}

// NewTokenService creates a token service backed by the given property source.
func NewTokenService(props PropertySource) *TokenService {
	return &TokenService{props: props}
}

// Issue mints a signed session token for the given identity. The expiry is
// now + JWT_EXPIRE_TIME hours. Fails with ErrConfigMissing if the signing
// secret or expiry window is absent or unusable.
func (s *TokenService) Issue(ctx context.Context, email, profile string) (string, error) {
	secret, err := s.props.Value(ctx, properties.KeyJWTSecret)
	if err != nil {
		return "", configError(properties.KeyJWTSecret, err)
	}

	expireRaw, err := s.props.Value(ctx, properties.KeyJWTExpireTime)
	if err != nil {
		return "", configError(properties.KeyJWTExpireTime, err)
	}
	hours, err := strconv.Atoi(expireRaw)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not an integer: %v", ErrConfigMissing, properties.KeyJWTExpireTime, err)
	}

	now := time.Now()
	claims := Claims{
		Email:   email,
		Profile: profile,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(hours) * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	slog.Info("session token issued",
		slog.String("email", email),
		slog.String("profile", profile),
		slog.Int("expires_in_hours", hours),
	)

	return token, nil
}

// Verify is the strict verification variant: it returns the embedded claims
// on success, ErrTokenExpired past expiry, and ErrTokenInvalid for any other
// failure (bad signature, wrong algorithm, missing email claim). The two
// failure kinds stay separate so guards can log the specific reason.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	secret, err := s.props.Value(ctx, properties.KeyJWTSecret)
	if err != nil {
		return nil, configError(properties.KeyJWTSecret, err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: email claim missing", ErrTokenInvalid)
	}

	return claims, nil
}

// VerifyLenient is the boolean verification variant: true for a valid
// token, false otherwise, swallowing the specific reason. Callers that need
// the reason (guards) use Verify instead.
func (s *TokenService) VerifyLenient(ctx context.Context, tokenString string) bool {
	_, err := s.Verify(ctx, tokenString)
	if err != nil {
		slog.Debug("lenient token verification failed", slog.Any("error", err))
		return false
	}
	return true
}

// configError maps a property lookup failure to ErrConfigMissing when the
// key is absent, preserving the original cause otherwise.
func configError(key string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == 404 {
		return fmt.Errorf("%w: %s", ErrConfigMissing, key)
	}
	return fmt.Errorf("loading %s: %w", key, err)
}
