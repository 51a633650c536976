package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
	"github.com/iliyamo/coworking-space-booking/internal/schedule"
)

// BookingHandler serves the member-facing booking surface: workspace
// listings, availability, quotes, and the booking lifecycle endpoints
// a member may drive themselves (create, confirm, cancel).
type BookingHandler struct {
	Coordinator *engine.Coordinator
	Engine      *engine.Engine
	Workspaces  *repository.WorkspaceRepo
	Bookings    *repository.BookingRepo
	Credits     *repository.CreditRepo
}

func NewBookingHandler(coord *engine.Coordinator, eng *engine.Engine,
	w *repository.WorkspaceRepo, b *repository.BookingRepo, cr *repository.CreditRepo) *BookingHandler {
	return &BookingHandler{Coordinator: coord, Engine: eng, Workspaces: w, Bookings: b, Credits: cr}
}

// ----- DTOs -----

type quoteReq struct {
	WorkspaceID     uint64 `json:"workspace_id"`
	DurationMinutes int    `json:"duration_minutes"`
	UseCredits      bool   `json:"use_credits"`
}

type createBookingReq struct {
	WorkspaceID uint64 `json:"workspace_id"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM
	EndTime     string `json:"end_time"`   // HH:MM
	Attendees   int    `json:"attendees"`
	UseCredits  bool   `json:"use_credits"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

type slotPart struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type workspacePart struct {
	ID                 uint64 `json:"id"`
	Name               string `json:"name"`
	Category           string `json:"category"`
	HourlyRate         string `json:"hourly_rate"`
	MinDurationMinutes int    `json:"min_duration_minutes"`
	MaxDurationMinutes int    `json:"max_duration_minutes"`
	OpenTime           string `json:"open_time"`
	CloseTime          string `json:"close_time"`
	AcceptsCredits     bool   `json:"accepts_credits"`
}

// ListWorkspaces returns the active workspaces.  Public: browsing the
// catalog requires no account.
func (h *BookingHandler) ListWorkspaces(c echo.Context) error {
	list, err := h.Workspaces.ListActive(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]workspacePart, 0, len(list))
	for _, w := range list {
		out = append(out, workspacePart{
			ID:                 w.ID,
			Name:               w.Name,
			Category:           string(w.Category),
			HourlyRate:         w.HourlyRate.StringFixed(2),
			MinDurationMinutes: w.MinDurationMinutes,
			MaxDurationMinutes: w.MaxDurationMinutes,
			OpenTime:           schedule.FormatMinute(w.OpenMinute),
			CloseTime:          schedule.FormatMinute(w.CloseMinute),
			AcceptsCredits:     w.AcceptsCredits,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"workspaces": out})
}

// GetWorkspace returns one active workspace.  Public, like the list.
func (h *BookingHandler) GetWorkspace(c echo.Context) error {
	workspaceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	w, err := h.Workspaces.GetByID(c.Request().Context(), workspaceID)
	if err != nil {
		return bookingError(c, err)
	}
	if !w.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
	}
	return c.JSON(http.StatusOK, workspacePart{
		ID:                 w.ID,
		Name:               w.Name,
		Category:           string(w.Category),
		HourlyRate:         w.HourlyRate.StringFixed(2),
		MinDurationMinutes: w.MinDurationMinutes,
		MaxDurationMinutes: w.MaxDurationMinutes,
		OpenTime:           schedule.FormatMinute(w.OpenMinute),
		CloseTime:          schedule.FormatMinute(w.CloseMinute),
		AcceptsCredits:     w.AcceptsCredits,
	})
}

// Availability returns the free slots for a workspace on a date.
// Public: prospective members may browse before registering.
func (h *BookingHandler) Availability(c echo.Context) error {
	workspaceID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter required"})
	}

	slots, err := h.Engine.ComputeAvailability(c.Request().Context(), workspaceID, date)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]slotPart, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotPart{
			StartTime: schedule.FormatMinute(s.Start),
			EndTime:   schedule.FormatMinute(s.End),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"workspace_id": workspaceID,
		"date":         date,
		"slots":        out,
	})
}

// Quote prices a prospective booking without creating anything.  The
// eligibility flags come from the caller's access token.
func (h *BookingHandler) Quote(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req quoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.WorkspaceID == 0 || req.DurationMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "workspace_id and duration_minutes required"})
	}

	quote, err := h.Engine.QuotePrice(c.Request().Context(), req.WorkspaceID, userID,
		req.DurationMinutes, eligibilityFrom(c), req.UseCredits)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

// Create books a slot.  All validation, pricing and credit reservation
// happen inside the coordinator/engine; this handler only shapes the
// request and response.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.WorkspaceID == 0 || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "workspace_id, date, start_time and end_time required"})
	}
	start, err := schedule.ParseMinute(req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
	}
	end, err := schedule.ParseMinute(req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
	}
	if req.Attendees <= 0 {
		req.Attendees = 1
	}

	booking, err := h.Coordinator.AttemptBooking(c.Request().Context(), engine.CreateRequest{
		WorkspaceID: req.WorkspaceID,
		UserID:      userID,
		Date:        req.Date,
		StartMinute: start,
		EndMinute:   end,
		Attendees:   req.Attendees,
		Eligibility: eligibilityFrom(c),
		UseCredits:  req.UseCredits,
	})
	if err != nil {
		return bookingError(c, err)
	}

	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), booking.ID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// Confirm marks a pending booking as paid and confirmed.  Only the
// booking owner may confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	// Ownership check before touching the lifecycle.
	if _, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID); err != nil {
		return bookingError(c, err)
	}

	if _, err := h.Engine.Confirm(c.Request().Context(), bookingID); err != nil {
		return bookingError(c, err)
	}
	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel releases the slot and refunds reserved credits.  The response
// reports whether the card payment should be refunded; issuing the
// refund itself belongs to the external payment collaborator.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req cancelReq
	_ = c.Bind(&req) // reason is optional

	if _, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID); err != nil {
		return bookingError(c, err)
	}

	_, shouldRefund, err := h.Engine.Cancel(c.Request().Context(), bookingID, strings.TrimSpace(req.Reason))
	if err != nil {
		return bookingError(c, err)
	}
	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":       detail,
		"should_refund": shouldRefund,
	})
}

// MyBookings lists the caller's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// GetBooking returns one of the caller's bookings.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// MyCredits returns the caller's active credit balances.
func (h *BookingHandler) MyCredits(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	balances, err := h.Credits.ActiveBalances(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balances": balances})
}

// MyCreditTransactions returns the caller's ledger history.
func (h *BookingHandler) MyCreditTransactions(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	txns, err := h.Credits.ListTransactions(c.Request().Context(), userID, limit)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txns})
}

// parseCheckOutAt reads an optional RFC3339 "at" from the body; zero
// time means "now".
func parseCheckOutAt(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
