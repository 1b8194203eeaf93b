package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pantry-service/internal/api/http/handlers"
	"github.com/spec-kit/pantry-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Teams          *handlers.TeamsHandler
	AuthMiddleware *auth.Middleware
	LoginLimit     fiber.Handler
	RegisterLimit  fiber.Handler
	ResetLimit     fiber.Handler
	ItemLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes. Admission control runs before credential
// checks; CSRF applies to every mutating authenticated route.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.RegisterLimit, cfg.Auth.Register)
	authGroup.Post("/login", cfg.LoginLimit, cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.ResetLimit, cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.ResetLimit, cfg.Auth.ConfirmPasswordReset)

	session := authGroup.Group("", cfg.AuthMiddleware.RequireSession)
	session.Get("/csrf", cfg.Auth.CSRFToken)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/logout", cfg.AuthMiddleware.RequireCSRF, cfg.Auth.Logout)
	session.Post("/password/change", cfg.AuthMiddleware.RequireCSRF, cfg.Auth.ChangePassword)

	teams := app.Group("/teams", cfg.AuthMiddleware.RequireSession)
	teams.Post("", cfg.AuthMiddleware.RequireCSRF, cfg.Teams.Create)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Post("/:id/members", cfg.AuthMiddleware.RequireCSRF, cfg.Teams.SetMemberRole)
	teams.Post("/:id/items", cfg.AuthMiddleware.RequireCSRF, cfg.ItemLimit, cfg.Teams.CreateItem)
	teams.Get("/:id/items/:itemID", cfg.Teams.GetItem)
}
