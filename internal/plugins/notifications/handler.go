package notifications

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
)

// Handler serves the contact form and SMTP settings endpoints.
type Handler struct {
	service NotificationService
}

// NewHandler creates a notifications handler.
func NewHandler(service NotificationService) *Handler {
	return &Handler{service: service}
}

// Contact relays a public contact form submission (POST /contact).
func (h *Handler) Contact(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.SendContact(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "message sent"})
}

// Settings returns the SMTP settings, password redacted (GET /admin/smtp).
func (h *Handler) Settings(c echo.Context) error {
	settings, err := h.service.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings saves SMTP settings (PUT /admin/smtp).
func (h *Handler) UpdateSettings(c echo.Context) error {
	var req UpdateSMTPRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.UpdateSettings(c.Request().Context(), req); err != nil {
		return err
	}

	settings, err := h.service.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// TestConnection tests SMTP connectivity (POST /admin/smtp/test).
func (h *Handler) TestConnection(c echo.Context) error {
	if err := h.service.TestConnection(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "connection successful"})
}
