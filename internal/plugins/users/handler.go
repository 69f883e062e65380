package users

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/plugins/auth"
)

// Handler serves the user management endpoints.
type Handler struct {
	service UserService
}

// NewHandler creates a user handler.
func NewHandler(service UserService) *Handler {
	return &Handler{service: service}
}

// List returns all users. Admin only.
func (h *Handler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// canAccess reports whether the caller may operate on the given account:
// their own, or any account when the token carries the admin profile.
func canAccess(c echo.Context, email string) bool {
	if strings.EqualFold(auth.GetEmail(c), email) {
		return true
	}
	claims := auth.GetClaims(c)
	return claims != nil && claims.Profile == "admin"
}

// Get returns a single user by email. Self or admin.
func (h *Handler) Get(c echo.Context) error {
	if !canAccess(c, c.Param("email")) {
		return apperror.NewForbidden("you may only view your own account")
	}
	user, err := h.service.FindByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create registers a new user.
func (h *Handler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update modifies an existing user. Admin only: role and active changes are
// privilege escalation paths, so the whole route sits behind the admin guard.
func (h *Handler) Update(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Update(c.Request().Context(), c.Param("email"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// AssignRole grants an additional role to a user. Admin only.
func (h *Handler) AssignRole(c echo.Context) error {
	var req AssignRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.AssignRole(c.Request().Context(), c.Param("email"), req.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "role assigned"})
}

// RemoveRole revokes a role from a user. Admin only.
func (h *Handler) RemoveRole(c echo.Context) error {
	if err := h.service.RemoveRole(c.Request().Context(), c.Param("email"), c.Param("role")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "role removed"})
}
