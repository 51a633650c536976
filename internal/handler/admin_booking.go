package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
)

// AdminBookingHandler serves the front-desk operations: the day
// schedule per workspace and the check-in/check-out flow that staff
// drive when members arrive and leave.
type AdminBookingHandler struct {
	Engine   *engine.Engine
	Bookings *repository.BookingRepo
}

func NewAdminBookingHandler(eng *engine.Engine, b *repository.BookingRepo) *AdminBookingHandler {
	return &AdminBookingHandler{Engine: eng, Bookings: b}
}

// Schedule returns every booking (any status) for a workspace and
// date, ordered by start time.
func (h *AdminBookingHandler) Schedule(c echo.Context) error {
	workspaceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter required"})
	}
	list, err := h.Bookings.ListByWorkspaceAndDate(c.Request().Context(), workspaceID, date)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"workspace_id": workspaceID,
		"date":         date,
		"bookings":     list,
	})
}

// CheckIn records a member's arrival against a confirmed booking.
func (h *AdminBookingHandler) CheckIn(c echo.Context) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.CheckIn(c.Request().Context(), bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          b.ID,
		"status":      b.Status,
		"check_in_at": b.CheckInAt,
	})
}

type checkOutReq struct {
	At string `json:"at"` // optional RFC3339; empty means now
}

// CheckOut records departure, reconciles actual usage against the
// booked window and reports the final charge.
func (h *AdminBookingHandler) CheckOut(c echo.Context) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req checkOutReq
	_ = c.Bind(&req) // body is optional
	at, ok := parseCheckOutAt(req.At)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid at timestamp"})
	}

	b, err := h.Engine.CheckOut(c.Request().Context(), bookingID, at)
	if err != nil {
		return bookingError(c, err)
	}
	resp := echo.Map{
		"id":           b.ID,
		"status":       b.Status,
		"check_out_at": b.CheckOutAt,
	}
	if b.ActualDurationHours != nil {
		resp["actual_duration_hours"] = b.ActualDurationHours.String()
	}
	if b.FinalCharge != nil {
		resp["final_charge"] = b.FinalCharge.StringFixed(2)
	}
	return c.JSON(http.StatusOK, resp)
}
