package router // package router registers the HTTP routes of the API

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Cached read models.  Each write route purges them.
var cachedRoutes = []string{
	"/v1/reservations/dashboard",
	"/v1/reservations/timeline",
}

// PurgeCached drops the cached read models.  Writes that bypass the HTTP
// routes, like the no-show sweep, call it directly.
func PurgeCached(ctx context.Context, cache *middleware.ResponseCache) error {
	return cache.Purge(ctx, cachedRoutes...)
}

// Deps carries what the route groups need.
type Deps struct {
	JWTSecret string
	Limiter   echo.MiddlewareFunc
	Cache     *middleware.ResponseCache
	Health    echo.HandlerFunc
	Staff     *handler.StaffHandler
	Public    *handler.PublicHandler
	Customer  *handler.CustomerHandler
}

// Register wires every route group onto e.
func Register(e *echo.Echo, d Deps) {
	if d.Health != nil {
		e.GET("/healthz", d.Health)
	}
	RegisterPublic(e, d)
	RegisterStaff(e, d)
	RegisterCustomer(e, d)
}

// RegisterPublic exposes guest booking under /v1/public.  No token is
// needed, so every route goes through the rate limiter.
func RegisterPublic(e *echo.Echo, d Deps) {
	g := e.Group("/v1/public")
	if d.Limiter != nil {
		g.Use(d.Limiter)
	}
	purge := d.Cache.PurgeOnWrite(cachedRoutes...)
	p := d.Public
	g.POST("/reservations", p.Create, purge)
	g.GET("/reservations/:number", p.Get)
	g.POST("/reservations/:number/cancel", p.Cancel, purge)
	g.GET("/reservations/:number/qr", p.QRCode)
	g.GET("/suggestions", p.Suggestions)
}

// RegisterStaff exposes the front-of-house API.  ADMIN and STAFF tokens
// only; each route also checks the permission table.
func RegisterStaff(e *echo.Echo, d Deps) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(d.JWTSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))

	can := func(entity, action string) echo.MiddlewareFunc {
		return middleware.RequirePermission(entity, action)
	}
	purge := d.Cache.PurgeOnWrite(cachedRoutes...)
	cache := d.Cache.Middleware()
	s := d.Staff

	r := g.Group("/reservations")
	r.GET("", s.List, can(model.EntityReservation, model.ActionRead))
	r.POST("", s.Create, can(model.EntityReservation, model.ActionCreate), purge)
	r.GET("/suggestions", s.Suggestions, can(model.EntityTable, model.ActionRead))
	r.GET("/capacity", s.Capacity, can(model.EntityDashboard, model.ActionRead))
	r.GET("/dashboard", s.Dashboard, can(model.EntityDashboard, model.ActionRead), cache)
	r.GET("/timeline", s.Timeline, can(model.EntityDashboard, model.ActionRead), cache)
	r.GET("/number/:number", s.GetByNumber, can(model.EntityReservation, model.ActionRead))
	r.GET("/:id", s.Get, can(model.EntityReservation, model.ActionRead))
	r.POST("/:id/confirm", s.Confirm, can(model.EntityReservation, model.ActionConfirm), purge)
	r.POST("/:id/arrive", s.Arrive, can(model.EntityReservation, model.ActionArrive), purge)
	r.POST("/:id/cancel", s.Cancel, can(model.EntityReservation, model.ActionCancel), purge)

	g.GET("/customers/:phone/reservations", s.CustomerReservations, can(model.EntityReservation, model.ActionRead))
	g.GET("/tables", s.Tables, can(model.EntityTable, model.ActionRead))
}

// RegisterCustomer exposes a signed-in guest's own bookings.
func RegisterCustomer(e *echo.Echo, d Deps) {
	g := e.Group("/v1/my-reservations")
	g.Use(middleware.JWTAuth(d.JWTSecret))
	g.Use(middleware.RequireRole(model.RoleCustomer))
	purge := d.Cache.PurgeOnWrite(cachedRoutes...)
	g.GET("", d.Customer.Mine)
	g.POST("/:id/cancel", d.Customer.Cancel, purge)
}
