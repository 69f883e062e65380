package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/cipher"
)

// Handler handles the HTTP endpoints for authentication. Handlers are thin:
// bind the request, call the service, return JSON.
type Handler struct {
	service *AuthService
	tokens  *TokenService
	users   UserSource
	scheme  HeaderScheme
}

// NewHandler creates a new auth handler.
func NewHandler(service *AuthService, tokens *TokenService, users UserSource, scheme HeaderScheme) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		users:   users,
		scheme:  scheme,
	}
}

// Login processes POST /auth/login: verify credentials, look up the user's
// profile, mint a session token.
//
// A lookup miss and a password mismatch both answer 401 with the same
// message so the endpoint cannot be used to enumerate registered emails;
// the distinct reason goes to the logs.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	ctx := c.Request().Context()

	ok, err := h.service.VerifyLogin(ctx, req.Email, req.Password)
	if err != nil {
		return loginError(err)
	}
	if !ok {
		// PolicyBoolean mismatch.
		return apperror.NewUnauthorized("invalid email or password")
	}

	profile, err := h.users.ProfileByEmail(ctx, req.Email)
	if err != nil {
		return apperror.NewInternal(err)
	}

	token, err := h.tokens.Issue(ctx, req.Email, profile)
	if err != nil {
		if errors.Is(err, ErrConfigMissing) {
			return apperror.NewConfigMissing(err)
		}
		return apperror.NewInternal(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{Status: true, Token: token})
}

// Verify processes POST /auth/verify: a lenient boolean token check. The
// response never explains why a token failed.
func (h *Handler) Verify(c echo.Context) error {
	token, err := ExtractToken(c, h.scheme)
	if err != nil {
		return apperror.NewBadRequest("must provide a token")
	}

	status := h.tokens.VerifyLenient(c.Request().Context(), token)
	return c.JSON(http.StatusOK, map[string]bool{"status": status})
}

// loginError maps credential verification failures to boundary responses.
// Cipher internals and lookup misses are never echoed to the client.
func loginError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		slog.Warn("login failed: invalid credentials")
		return apperror.NewUnauthorized("invalid email or password")
	case errors.Is(err, ErrConfigMissing):
		return apperror.NewConfigMissing(err)
	case errors.Is(err, cipher.ErrMalformedPayload),
		errors.Is(err, cipher.ErrAuthFailed),
		errors.Is(err, cipher.ErrDecryptFailed),
		errors.Is(err, cipher.ErrInvalidInput):
		// A stored password that cannot be decrypted is an operator
		// problem, but the client just sees a failed login.
		slog.Error("login failed: stored password unreadable", slog.Any("error", err))
		return apperror.NewUnauthorized("invalid email or password")
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
		slog.Warn("login failed: unknown email")
		return apperror.NewUnauthorized("invalid email or password")
	}

	return apperror.NewInternal(err)
}
