package properties

import "github.com/labstack/echo/v4"

// RegisterRoutes registers the admin property endpoints on the given group.
// The group is expected to already carry the auth + admin-role guards.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/properties", h.List)
	g.PUT("/properties/:key", h.Update)
}
