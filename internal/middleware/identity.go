package middleware

// identity.go defines helper functions shared across middleware files.
// It provides a user identifier extraction function for rate-limit key
// building.  JWTAuth stores the numeric "sub" claim under "user_id";
// jwt.MapClaims decodes numbers as float64, so both forms are handled.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the request context.
// It returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return "anon"
}
