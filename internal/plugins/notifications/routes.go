package notifications

import "github.com/labstack/echo/v4"

// RegisterRoutes attaches the notification endpoints. The contact form is
// public (rate-limited); settings management is admin-only.
func (h *Handler) RegisterRoutes(e *echo.Echo, contactRateLimit echo.MiddlewareFunc, admin *echo.Group) {
	e.POST("/api/v1/notifications/portfolio", h.Contact, contactRateLimit)

	smtp := admin.Group("/smtp")
	smtp.GET("", h.Settings)
	smtp.PUT("", h.UpdateSettings)
	smtp.POST("/test", h.TestConnection)
}
