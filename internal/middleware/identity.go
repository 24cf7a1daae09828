package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a user id extraction function reading the value
// stored by JWTAuth. When no user is authenticated, "anon" is returned
// so rate limit keys still have a stable identity component.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the context as a string
// suitable for rate limit key construction. JWT numeric claims arrive as
// float64 after JSON decoding.
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
	}
	return "anon"
}
