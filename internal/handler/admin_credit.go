package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/ledger"
	"github.com/iliyamo/coworking-space-booking/internal/model"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
)

// AdminCreditHandler serves credit administration: allocating cycle
// allowances on behalf of the billing collaborator, expiring cycles,
// and maintaining user eligibility flags.
type AdminCreditHandler struct {
	Store *repository.Store
	Users *repository.UserRepo
}

func NewAdminCreditHandler(s *repository.Store, u *repository.UserRepo) *AdminCreditHandler {
	return &AdminCreditHandler{Store: s, Users: u}
}

type allocateReq struct {
	UserID     uint64 `json:"user_id"`
	CreditType string `json:"credit_type"`
	Amount     string `json:"amount"`      // hours, decimal string
	CycleStart string `json:"cycle_start"` // YYYY-MM-DD
	CycleEnd   string `json:"cycle_end"`   // YYYY-MM-DD
}

func parseCreditType(s string) (model.CreditType, bool) {
	switch model.CreditType(strings.ToLower(strings.TrimSpace(s))) {
	case model.CreditMeetingRoom:
		return model.CreditMeetingRoom, true
	case model.CreditPrinting:
		return model.CreditPrinting, true
	case model.CreditGuestPass:
		return model.CreditGuestPass, true
	}
	return "", false
}

// Allocate opens a new credit cycle for a user.
func (h *AdminCreditHandler) Allocate(c echo.Context) error {
	var req allocateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	creditType, ok := parseCreditType(req.CreditType)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "credit_type must be meeting-room, printing or guest-pass"})
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a positive decimal"})
	}
	start, err := time.Parse("2006-01-02", req.CycleStart)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cycle_start"})
	}
	end, err := time.Parse("2006-01-02", req.CycleEnd)
	if err != nil || !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cycle_end must be after cycle_start"})
	}

	var bal *model.CreditBalance
	err = h.Store.WithinTx(c.Request().Context(), func(tx engine.TxStore) error {
		var err error
		bal, err = ledger.New(tx).Allocate(c.Request().Context(), req.UserID, creditType, amount, start, end)
		return err
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"balance_id":  bal.ID,
		"user_id":     bal.UserID,
		"credit_type": bal.CreditType,
		"allocated":   bal.Allocated.String(),
		"remaining":   bal.Remaining.String(),
		"cycle_start": bal.CycleStart.Format("2006-01-02"),
		"cycle_end":   bal.CycleEnd.Format("2006-01-02"),
	})
}

type expireReq struct {
	UserID     uint64 `json:"user_id"`
	CreditType string `json:"credit_type"`
}

// Expire closes the user's active cycle, forfeiting any remainder.
// Normally driven by the scheduled job at cycle end; exposed here for
// manual correction.
func (h *AdminCreditHandler) Expire(c echo.Context) error {
	var req expireReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	creditType, ok := parseCreditType(req.CreditType)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credit_type"})
	}

	err := h.Store.WithinTx(c.Request().Context(), func(tx engine.TxStore) error {
		l := ledger.New(tx)
		bal, err := tx.ActiveBalance(c.Request().Context(), req.UserID, creditType, time.Now().UTC())
		if err != nil {
			return err
		}
		if bal == nil {
			return ledger.ErrNoActiveCycle
		}
		return l.Expire(c.Request().Context(), bal)
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type eligibilityReq struct {
	IsMember    bool `json:"is_member"`
	IsNFTHolder bool `json:"is_nft_holder"`
}

// SetEligibility updates a user's membership and NFT-holder flags.
// The change reaches pricing on the user's next login or token
// refresh, since eligibility rides in the JWT.
func (h *AdminCreditHandler) SetEligibility(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req eligibilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Users.SetEligibility(c.Request().Context(), userID, req.IsMember, req.IsNFTHolder); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
