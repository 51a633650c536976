package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/model"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
	"github.com/iliyamo/coworking-space-booking/internal/schedule"
)

// AdminWorkspaceHandler serves the admin workspace management surface.
type AdminWorkspaceHandler struct {
	Workspaces *repository.WorkspaceRepo
}

func NewAdminWorkspaceHandler(w *repository.WorkspaceRepo) *AdminWorkspaceHandler {
	return &AdminWorkspaceHandler{Workspaces: w}
}

type workspaceReq struct {
	Name               string `json:"name"`
	Category           string `json:"category"` // desk | meeting-room
	HourlyRate         string `json:"hourly_rate"`
	MinDurationMinutes int    `json:"min_duration_minutes"`
	MaxDurationMinutes int    `json:"max_duration_minutes"`
	OpenTime           string `json:"open_time"`  // HH:MM
	CloseTime          string `json:"close_time"` // HH:MM
	AcceptsCredits     bool   `json:"accepts_credits"`
	IsActive           *bool  `json:"is_active"` // defaults to true on create
}

// toModel validates the request and shapes it into a workspace row.
func (req *workspaceReq) toModel() (*model.Workspace, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "name required"
	}
	category := model.WorkspaceCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	if category != model.CategoryDesk && category != model.CategoryMeetingRoom {
		return nil, "category must be desk or meeting-room"
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.HourlyRate))
	if err != nil || rate.IsNegative() {
		return nil, "hourly_rate must be a non-negative decimal"
	}
	if req.MinDurationMinutes <= 0 || req.MaxDurationMinutes < req.MinDurationMinutes {
		return nil, "min_duration_minutes must be positive and <= max_duration_minutes"
	}
	open, err := schedule.ParseMinute(req.OpenTime)
	if err != nil {
		return nil, "invalid open_time"
	}
	closeM, err := schedule.ParseMinute(req.CloseTime)
	if err != nil {
		return nil, "invalid close_time"
	}
	if _, err := schedule.NewInterval(open, closeM); err != nil {
		return nil, "close_time must be after open_time"
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &model.Workspace{
		Name:               req.Name,
		Category:           category,
		HourlyRate:         rate,
		MinDurationMinutes: req.MinDurationMinutes,
		MaxDurationMinutes: req.MaxDurationMinutes,
		OpenMinute:         open,
		CloseMinute:        closeM,
		AcceptsCredits:     req.AcceptsCredits,
		IsActive:           active,
	}, ""
}

// Create adds a workspace to the catalog.
func (h *AdminWorkspaceHandler) Create(c echo.Context) error {
	var req workspaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Workspaces.Create(c.Request().Context(), w); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": w.ID})
}

// List returns every workspace including inactive ones.
func (h *AdminWorkspaceHandler) List(c echo.Context) error {
	list, err := h.Workspaces.ListAll(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, w := range list {
		out = append(out, echo.Map{
			"id":                   w.ID,
			"name":                 w.Name,
			"category":             w.Category,
			"hourly_rate":          w.HourlyRate.StringFixed(2),
			"min_duration_minutes": w.MinDurationMinutes,
			"max_duration_minutes": w.MaxDurationMinutes,
			"open_time":            schedule.FormatMinute(w.OpenMinute),
			"close_time":           schedule.FormatMinute(w.CloseMinute),
			"accepts_credits":      w.AcceptsCredits,
			"is_active":            w.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"workspaces": out})
}

// Update rewrites a workspace's editable fields.
func (h *AdminWorkspaceHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	var req workspaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	w.ID = id
	if err := h.Workspaces.Update(c.Request().Context(), w); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Deactivate soft-deletes a workspace.  Refused while active bookings
// remain on current or future dates.
func (h *AdminWorkspaceHandler) Deactivate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace id"})
	}
	today := time.Now().UTC().Format("2006-01-02")
	if err := h.Workspaces.Deactivate(c.Request().Context(), id, today); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
