package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// subject returns the authenticated user id as a string for use in keys,
// or "anon" before JWTAuth has run.
func subject(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return "anon"
}
