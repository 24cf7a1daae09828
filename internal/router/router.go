package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/mentorhive/mentor-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/mentorhive/mentor-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/mentorhive/mentor-booking/internal/model"      // role constants shared with the auth layer
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Group under /v1/auth for operations that do not require an existing
	// session (register, login, refresh, logout-by-refresh-token).
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token in the body; no JWT required on this
	// path.  Authenticated logout-everywhere lives on the protected group.
	g.POST("/logout", a.Logout)

	// Protected group: every handler registered here executes JWTAuth first.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleMentor, model.RoleMentee, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}
