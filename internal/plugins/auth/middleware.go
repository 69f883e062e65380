package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
)

// HeaderScheme selects which request header carries the session token. Both
// conventions occur across deployed variants of the system, so the scheme
// is a configuration switch rather than a hardcoded choice.
type HeaderScheme string

const (
	// SchemeBearer reads "Authorization: Bearer <token>".
	SchemeBearer HeaderScheme = "bearer"

	// SchemeAPIToken reads the raw token from the X-API-TOKEN header.
	SchemeAPIToken HeaderScheme = "api-token"

	// SchemeAny accepts either header, preferring X-API-TOKEN.
	SchemeAny HeaderScheme = "any"
)

// HeaderAPIToken is the custom token header name.
const HeaderAPIToken = "X-API-TOKEN"

// Context keys for storing verified claims in the Echo context. Other
// plugins read them via the exported getters below.
const (
	contextKeyClaims = "auth_claims"
	contextKeyEmail  = "auth_email"
)

// RequireAuth returns middleware that extracts the session token per the
// configured header scheme, verifies it strictly, and injects the claims
// into the request context. A missing credential and a failed verification
// both deny with 401; the specific reason (missing, expired, invalid) is
// logged but never echoed to the client.
func RequireAuth(tokens *TokenService, scheme HeaderScheme) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := ExtractToken(c, scheme)
			if err != nil {
				slog.Warn("request rejected: missing credential",
					slog.String("path", c.Request().URL.Path),
				)
				return apperror.NewUnauthorized("must provide an authentication token")
			}

			claims, err := tokens.Verify(c.Request().Context(), token)
			if err != nil {
				// Expired and invalid stay distinguishable in the logs even
				// though the client sees the same 401 for both.
				switch {
				case errors.Is(err, ErrTokenExpired):
					slog.Warn("request rejected: token expired",
						slog.String("path", c.Request().URL.Path),
					)
				case errors.Is(err, ErrConfigMissing):
					slog.Error("token verification impossible", slog.Any("error", err))
					return apperror.NewConfigMissing(err)
				default:
					slog.Warn("request rejected: invalid token",
						slog.String("path", c.Request().URL.Path),
						slog.Any("error", err),
					)
				}
				return apperror.NewUnauthorized("invalid or expired token")
			}

			// Store claims in context for downstream handlers and guards.
			c.Set(contextKeyClaims, claims)
			c.Set(contextKeyEmail, claims.Email)

			return next(c)
		}
	}
}

// RequireRole returns middleware that denies with 403 unless the
// authenticated identity's role set contains the required role. It must run
// after RequireAuth -- absent claims deny with 401.
//
// The role set is the union of the token's profile claim and, when a
// RoleSource is provided, the identity's stored role list. This normalizes
// the two shapes the system historically used (a single role field on the
// token versus a role list on the user record) into one membership check.
// An empty role set is always a denial, never an implicit allow.
func RequireRole(role string, source RoleSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return apperror.NewUnauthorized("authentication required")
			}

			roleSet := make(map[string]bool)
			if claims.Profile != "" {
				roleSet[claims.Profile] = true
			}

			if source != nil {
				roles, err := source.RolesByEmail(c.Request().Context(), claims.Email)
				if err != nil {
					var appErr *apperror.AppError
					if errors.As(err, &appErr) && appErr.Code == 404 {
						// Identity vanished since the token was issued.
						slog.Warn("role check failed: user not found",
							slog.String("email", claims.Email),
						)
						return apperror.NewForbidden("no roles found for the user")
					}
					return apperror.NewInternal(err)
				}
				for _, r := range roles {
					roleSet[r] = true
				}
			}

			if len(roleSet) == 0 {
				slog.Warn("role check failed: empty role set",
					slog.String("email", claims.Email),
				)
				return apperror.NewForbidden("no roles found for the user")
			}

			if !roleSet[role] {
				slog.Warn("role check failed: required role absent",
					slog.String("email", claims.Email),
					slog.String("required", role),
				)
				return apperror.NewForbidden("insufficient permissions")
			}

			return next(c)
		}
	}
}

// ExtractToken pulls the session token from the request per the header
// scheme. Returns an error when no credential is present or the
// Authorization header is not in Bearer form.
func ExtractToken(c echo.Context, scheme HeaderScheme) (string, error) {
	switch scheme {
	case SchemeAPIToken:
		return fromAPITokenHeader(c)
	case SchemeBearer:
		return fromBearerHeader(c)
	default:
		if token, err := fromAPITokenHeader(c); err == nil {
			return token, nil
		}
		return fromBearerHeader(c)
	}
}

func fromAPITokenHeader(c echo.Context) (string, error) {
	token := c.Request().Header.Get(HeaderAPIToken)
	if token == "" {
		return "", errors.New("missing " + HeaderAPIToken + " header")
	}
	return token, nil
}

func fromBearerHeader(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", errors.New("Authorization header is not in Bearer form")
	}
	return token, nil
}

// --- Exported getters for other plugins ---

// GetClaims retrieves the verified session claims from the Echo context.
// Returns nil if the request did not pass through RequireAuth.
func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Get(contextKeyClaims).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetEmail retrieves the authenticated identity's email from the Echo
// context. Returns empty string if the request is not authenticated.
func GetEmail(c echo.Context) string {
	email, ok := c.Get(contextKeyEmail).(string)
	if !ok {
		return ""
	}
	return email
}
