package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/handler"
	"github.com/melkan/community-platform/internal/middleware"
	"github.com/melkan/community-platform/internal/model"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the session-lifecycle endpoints. Register and
// login are public but rate limited; refresh and logout authenticate
// via the refresh cookie, so neither sits behind the bearer gate.
// GET /access-token is a legacy alias for /refresh kept for older
// clients.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.POST("/register", a.Register, limiter)
	e.POST("/login", a.Login, limiter)
	e.GET("/refresh", a.Refresh)
	e.GET("/access-token", a.Refresh)
	e.POST("/logout", a.Logout)
}

// RegisterAccount wires the self-service account endpoints behind the
// bearer gate. Every handler acts on the authenticated subject id the
// middleware stored in the context.
func RegisterAccount(e *echo.Echo, h *handler.AccountHandler, accessSecret string) {
	g := e.Group("", middleware.JWTAuth(accessSecret))
	g.PUT("/update-password", h.UpdatePassword)
	g.PUT("/update-username", h.UpdateUsername)
	g.PUT("/update-email", h.UpdateEmail)
	g.PUT("/update-info", h.UpdateInfo)
	g.DELETE("/delete", h.Delete)
}

// RegisterAdmin wires the user-management endpoints behind both the
// bearer gate and the admin role gate.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, accessSecret string) {
	g := e.Group("/users", middleware.JWTAuth(accessSecret), middleware.RequireRole(model.RoleAdmin))
	g.GET("", h.ListUsers)
	g.GET("/:id", h.GetUser)
	g.DELETE("/:id", h.DeleteUser)
}
