package pets

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/plugins/auth"
)

// Handler serves the pet endpoints.
type Handler struct {
	service PetService
}

// NewHandler creates a pet handler.
func NewHandler(service PetService) *Handler {
	return &Handler{service: service}
}

// actorFrom builds the acting identity from the verified token claims.
func actorFrom(c echo.Context) Actor {
	actor := Actor{Email: auth.GetEmail(c)}
	if claims := auth.GetClaims(c); claims != nil && claims.Profile == "admin" {
		actor.Admin = true
	}
	return actor
}

// List returns the caller's pets, or every pet for admins.
func (h *Handler) List(c echo.Context) error {
	pets, err := h.service.List(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pets)
}

// Get returns one pet by id.
func (h *Handler) Get(c echo.Context) error {
	pet, err := h.service.FindByID(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// Create registers a new pet owned by the caller.
func (h *Handler) Create(c echo.Context) error {
	var req CreatePetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	pet, err := h.service.Create(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pet)
}

// Update modifies a pet.
func (h *Handler) Update(c echo.Context) error {
	var req UpdatePetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	pet, err := h.service.Update(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// Delete removes a pet record.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddWeight records a weight measurement for a pet.
func (h *Handler) AddWeight(c echo.Context) error {
	var req AddWeightRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	entry, err := h.service.AddWeight(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// WeightHistory returns the measurement history for a pet, newest first.
func (h *Handler) WeightHistory(c echo.Context) error {
	entries, err := h.service.WeightHistory(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
