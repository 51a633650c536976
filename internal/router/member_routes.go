package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-space-booking/internal/handler"
	"github.com/iliyamo/coworking-space-booking/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All
// routes require a valid JWT with the MEMBER or ADMIN role.  Members
// can quote and create bookings, confirm and cancel their own
// bookings, and inspect their credit balances and ledger history.
func RegisterMember(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MEMBER", "ADMIN"),
	)
	// Note: GET /v1/workspaces and GET /v1/workspaces/:id/availability
	// are registered on the public router so that guests can browse.
	// Member-specific endpoints begin here.
	g.POST("/bookings/quote", h.Quote)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.MyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.POST("/bookings/:id/cancel", h.Cancel)

	g.GET("/credits", h.MyCredits)
	g.GET("/credits/transactions", h.MyCreditTransactions)
}
