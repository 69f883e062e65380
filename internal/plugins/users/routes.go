package users

import "github.com/labstack/echo/v4"

// RegisterRoutes attaches the user endpoints. authed must already require a
// valid token; adminGuard is applied on top for management routes.
func (h *Handler) RegisterRoutes(authed *echo.Group, adminGuard echo.MiddlewareFunc) {
	users := authed.Group("/users")

	users.GET("/:email", h.Get)
	users.PUT("/:email", h.Update, adminGuard)

	users.GET("", h.List, adminGuard)
	users.POST("", h.Create, adminGuard)
	users.POST("/:email/roles", h.AssignRole, adminGuard)
	users.DELETE("/:email/roles/:role", h.RemoveRole, adminGuard)
}
