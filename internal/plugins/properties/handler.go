package properties

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
)

// Handler handles the admin HTTP endpoints for configuration properties.
// Handlers are thin: bind the request, call the service, return JSON.
type Handler struct {
	service PropertyService
}

// NewHandler creates a new properties handler with the given service.
func NewHandler(service PropertyService) *Handler {
	return &Handler{service: service}
}

// List returns all properties (GET /admin/properties). Secret values are
// redacted -- admins can see that a key is set, never what it holds.
func (h *Handler) List(c echo.Context) error {
	props, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]Property, 0, len(props))
	for _, p := range props {
		if isSecretKey(p.Key) {
			p.Value = "<redacted>"
		}
		out = append(out, p)
	}

	return c.JSON(http.StatusOK, out)
}

// Update upserts a property value (PUT /admin/properties/:key).
func (h *Handler) Update(c echo.Context) error {
	key := c.Param("key")

	var req UpdatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Value == "" {
		return apperror.NewValidation("property value must not be empty")
	}

	if err := h.service.Set(c.Request().Context(), key, req.Value); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"key": key, "status": "updated"})
}

// isSecretKey reports whether a property key holds sensitive material.
func isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	return strings.Contains(upper, "SECRET") || strings.Contains(upper, "SALT")
}
