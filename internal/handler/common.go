package handler

// common.go holds the helpers shared across handlers: extracting the
// authenticated identity and eligibility from the context populated by
// the JWT middleware, and mapping engine errors onto HTTP responses.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/ledger"
	"github.com/iliyamo/coworking-space-booking/internal/pricing"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
	"github.com/iliyamo/coworking-space-booking/internal/schedule"
)

// getUserID extracts the authenticated user's ID from context.  The
// JWT middleware stores the numeric "sub" claim, which the jwt library
// decodes as float64; string form is accepted for robustness.
func getUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// eligibilityFrom reads the pricing eligibility flags the JWT
// middleware stored in context.  Missing or malformed claims simply
// mean no discount and no credits.
func eligibilityFrom(c echo.Context) pricing.Eligibility {
	var e pricing.Eligibility
	if v, ok := c.Get("is_member").(bool); ok {
		e.Member = v
	}
	if v, ok := c.Get("is_nft_holder").(bool); ok {
		e.NFTHolder = v
	}
	return e
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// bookingError translates engine, schedule, ledger and repository
// sentinel errors into JSON error responses.  Anything unrecognized is
// a 500 with a generic message; the underlying error is logged by the
// framework, never leaked to the client.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrWorkspaceNotFound),
		errors.Is(err, engine.ErrBookingNotFound),
		errors.Is(err, repository.ErrWorkspaceNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, schedule.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrDurationOutOfRange):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrSlotUnavailable),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrNoActiveCycle):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
