// Package router wires every HTTP route to its handler and middleware
// chain.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/handler"
	"github.com/sporthub/venue-booking/internal/middleware"
	"github.com/sporthub/venue-booking/internal/model"
)

// Handlers groups everything RegisterRoutes needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Venues   *handler.VenueHandler
	Location *handler.LocationHandler
	Gate     *middleware.Auth
}

// RegisterRoutes attaches all endpoints to the Echo instance. Rate
// limiting applies to the whole API; the Redis response cache covers only
// the identity-independent location lookups.
func RegisterRoutes(e *echo.Echo, h Handlers, rdb *redis.Client) {
	e.Use(middleware.RequestLogger())

	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	v1 := e.Group("/v1", rl)

	// Session endpoints; no auth middleware, the handlers own the tokens.
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Public browse: identity is optional and only widens what is visible.
	v1.GET("/venues", h.Venues.ListVenues, h.Gate.Optional)
	v1.GET("/venues/:id", h.Venues.GetVenue, h.Gate.Optional)

	// Location lookups are the same for everyone and safe to cache.
	loc := v1.Group("/locations", cache)
	loc.GET("/provinces", h.Location.ListProvinces)
	loc.GET("/provinces/:id", h.Location.GetProvince)
	loc.GET("/provinces/:id/districts", h.Location.ListDistricts)
	loc.GET("/districts/:id", h.Location.GetDistrict)
	loc.GET("/districts/:id/wards", h.Location.ListWards)
	loc.GET("/wards/:id", h.Location.GetWard)

	// Current-user endpoints: any authenticated role.
	me := v1.Group("/users/me", h.Gate.Required)
	me.GET("", h.Users.Me)
	me.PUT("", h.Users.UpdateMe)
	me.PUT("/password", h.Users.ChangePassword)
	me.POST("/deactivate", h.Users.DeactivateMe)

	// Venue management for owners and admins.
	manage := v1.Group("/venues", h.Gate.Required, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
	manage.GET("/mine", h.Venues.MyVenues)
	manage.POST("", h.Venues.CreateVenue)
	manage.PUT("/:id", h.Venues.UpdateVenue)
	manage.DELETE("/:id", h.Venues.DeleteVenue)

	// Admin-only user management.
	admin := v1.Group("/admin", h.Gate.Required, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.Users.ListUsers)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.PUT("/users/:id/role", h.Users.UpdateUserRole)
	admin.PUT("/users/:id/status", h.Users.UpdateUserStatus)
	admin.DELETE("/users/:id", h.Users.DeleteUser)
}
