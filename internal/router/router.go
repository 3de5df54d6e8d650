package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/parking-management/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/parking-management/internal/middleware" // import middleware for JWT authentication and role enforcement
    "github.com/iliyamo/parking-management/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Operations that do not require an existing session (register, login,
    // refresh).  Each handler is responsible for generating or exchanging
    // tokens.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token and returns a new pair.
    g.POST("/refresh", a.Refresh)
    // Logout accepts either a bearer access token (revoke all sessions) or a
    // refresh_token body (revoke one session); no JWT middleware required.
    g.POST("/logout", a.Logout)

    // Routes that require a valid access token.  Both roles are accepted
    // here; finer-grained checks live in RegisterAdmin/RegisterClient.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleClient))
    auth.GET("/me", a.Me)
}

// RegisterAdmin registers the lot administration and entry lifecycle
// endpoints.  Every route requires a valid access token carrying the
// ADMIN role: lots are created and reconfigured by admins, and car
// entries are opened and closed at the gate by admin operators.
// Read-only endpoints accept the extra middleware (response cache,
// rate limiting); write endpoints never go through the cache.
func RegisterAdmin(e *echo.Echo, lots *handler.LotHandler, entries *handler.EntryHandler, vehicles *handler.VehicleHandler, jwtSecret string, readMW ...echo.MiddlewareFunc) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin))

    // Lot management.
    g.POST("/lots", lots.CreateLot)
    g.GET("/lots", lots.ListLots, readMW...)
    g.GET("/lots/:code", lots.GetLot, readMW...)
    g.PATCH("/lots/:code", lots.UpdateLot)

    // Entry lifecycle: open on arrival, complete on exit.
    g.POST("/entries", entries.OpenEntry)
    g.POST("/entries/:ticket/complete", entries.CloseEntry)

    // Reports.  Active listings change on every gate event so they are
    // served uncached; the date-range listing and charges report are
    // read-mostly and benefit from the response cache.
    g.GET("/entries/active", entries.ListActive)
    g.GET("/entries", entries.ListByRange, readMW...)
    g.GET("/reports/charges", entries.ChargesReport, readMW...)

    // Plate-to-owner lookup across the whole registry.  The static
    // "all" segment takes precedence over the client /vehicles/:id
    // route.
    g.GET("/vehicles/all", vehicles.ListAllVehicles)
}

// RegisterClient registers the endpoints available to authenticated
// clients: their vehicle registry and their own parking history.
func RegisterClient(e *echo.Echo, vehicles *handler.VehicleHandler, entries *handler.EntryHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleClient))

    g.POST("/vehicles", vehicles.RegisterVehicle)
    g.GET("/vehicles", vehicles.ListVehicles)
    g.GET("/vehicles/:id", vehicles.GetVehicle)
    g.PATCH("/vehicles/:id", vehicles.UpdateVehicle)
    g.DELETE("/vehicles/:id", vehicles.DeleteVehicle)

    g.GET("/entries/mine", entries.ListMine)
}
