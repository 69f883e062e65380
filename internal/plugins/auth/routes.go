package auth

import "github.com/labstack/echo/v4"

// RegisterRoutes registers the public auth endpoints. Login is wrapped in
// the provided rate limiter to slow down credential stuffing.
func (h *Handler) RegisterRoutes(e *echo.Echo, loginRateLimit echo.MiddlewareFunc) {
	e.POST("/auth/login", h.Login, loginRateLimit)
	e.POST("/auth/verify", h.Verify)
}
