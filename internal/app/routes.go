package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/middleware"
	"github.com/petfolio/petfolio/internal/plugins/auth"
	"github.com/petfolio/petfolio/internal/plugins/notifications"
	"github.com/petfolio/petfolio/internal/plugins/pets"
	"github.com/petfolio/petfolio/internal/plugins/properties"
	"github.com/petfolio/petfolio/internal/plugins/users"
)

// RegisterRoutes builds every plugin's service stack and attaches its routes.
// This is the single place where the dependency graph is assembled:
//
//	properties -> (cipher secrets, token config) -> auth, users, notifications
//	users      -> credential + role source       -> auth guards
//	notifications -> mailer                      -> users welcome mail
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config

	// New payloads are always written in GCM; decryption still accepts
	// legacy CBC payloads by their field count.
	cipherMode := cipher.ModeGCM

	// --- Services ---
	propRepo := properties.NewPropertyRepository(a.DB)
	propService := properties.NewPropertyService(propRepo, a.Redis, cfg.Auth.PropertyCacheTTL)

	notifRepo := notifications.NewSMTPRepository(a.DB)
	notifService := notifications.NewNotificationService(notifRepo, propService, cipherMode, cfg.Auth.ContactAddress)

	userRepo := users.NewMySQLUserRepository(a.DB)
	userService := users.NewUserService(userRepo, propService, notifService, cipherMode)

	tokenService := auth.NewTokenService(propService)
	authService := auth.NewAuthService(userService, propService,
		auth.FailurePolicy(cfg.Auth.LoginFailureMode))

	petRepo := pets.NewMySQLPetRepository(a.DB)
	petService := pets.NewPetService(petRepo)

	// --- Guards ---
	scheme := auth.HeaderScheme(cfg.Auth.TokenHeader)
	requireAuth := auth.RequireAuth(tokenService, scheme)
	requireAdmin := auth.RequireRole("admin", userService)

	// --- Public routes ---
	e.GET("/healthz", a.health)

	authHandler := auth.NewHandler(authService, tokenService, userService, scheme)
	authHandler.RegisterRoutes(e, middleware.RateLimit(10, time.Minute))

	notifHandler := notifications.NewHandler(notifService)

	// --- Authenticated API ---
	api := e.Group("/api/v1", requireAuth)

	petsHandler := pets.NewHandler(petService)
	petsHandler.RegisterRoutes(api, requireAdmin)

	usersHandler := users.NewHandler(userService)
	usersHandler.RegisterRoutes(api, requireAdmin)

	// --- Admin ---
	admin := api.Group("/admin", requireAdmin)

	propHandler := properties.NewHandler(propService)
	propHandler.RegisterRoutes(admin)

	notifHandler.RegisterRoutes(e, middleware.RateLimit(5, time.Minute), admin)
}

// health is a liveness probe for the reverse proxy and container runtime.
func (a *App) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
