package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-space-booking/internal/handler"
	"github.com/iliyamo/coworking-space-booking/internal/middleware"
)

// RegisterAdmin registers admin-scoped endpoints under /v1/admin.  All
// routes require a valid JWT with the ADMIN role.  Admins manage the
// workspace catalog, run the front-desk check-in/check-out flow, and
// administer credits and eligibility on behalf of the billing and
// token verification collaborators.
func RegisterAdmin(e *echo.Echo, w *handler.AdminWorkspaceHandler, b *handler.AdminBookingHandler,
	cr *handler.AdminCreditHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Workspace catalog management.
	g.POST("/workspaces", w.Create)
	g.GET("/workspaces", w.List)
	g.PUT("/workspaces/:id", w.Update)
	g.DELETE("/workspaces/:id", w.Deactivate)

	// Front-desk operations.
	g.GET("/workspaces/:id/schedule", b.Schedule)
	g.POST("/bookings/:id/check-in", b.CheckIn)
	g.POST("/bookings/:id/check-out", b.CheckOut)

	// Credit administration.
	g.POST("/credits/allocate", cr.Allocate)
	g.POST("/credits/expire", cr.Expire)
	g.PUT("/users/:id/eligibility", cr.SetEligibility)
}
