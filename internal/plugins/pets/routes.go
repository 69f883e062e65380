package pets

import "github.com/labstack/echo/v4"

// RegisterRoutes attaches the pet endpoints. authed must already require a
// valid token; ownership is enforced in the service layer. Deletion is
// destructive and reserved for admins.
func (h *Handler) RegisterRoutes(authed *echo.Group, adminGuard echo.MiddlewareFunc) {
	pets := authed.Group("/pets")

	pets.GET("", h.List)
	pets.POST("", h.Create)
	pets.GET("/:id", h.Get)
	pets.PUT("/:id", h.Update)
	pets.DELETE("/:id", h.Delete, adminGuard)
	pets.POST("/:id/weights", h.AddWeight)
	pets.GET("/:id/weights", h.WeightHistory)
}
