package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Users  *handlers.UsersHandler
	Admin  *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	user := app.Group("/user")

	user.Get("/all", cfg.Admin.ListUsers)
	user.Get("/role", cfg.Admin.GetUserRole)
	user.Put("/update/:id", cfg.Admin.UpdateUser)
	user.Delete("/delete/:id", cfg.Admin.DeleteUser)

	user.Post("/register", cfg.Users.Register)
	user.Post("/verify-otp", cfg.Users.VerifyOtp)
	user.Post("/resend-otp", cfg.Users.ResendOtp)
	user.Post("/login", cfg.Users.Login)
	user.Post("/logout", cfg.Users.Logout)
	user.Post("/changepwd", cfg.Users.ChangePassword)
	user.Post("/forgotpwd", cfg.Users.ForgotPassword)
	user.Post("/resetpwd", cfg.Users.ResetPassword)
	user.Get("/profile", cfg.Users.GetProfile)
	user.Put("/:email", cfg.Users.UpdateProfile)
}
