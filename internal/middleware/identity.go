package middleware

// identity.go defines helper functions shared across middleware files.
// It provides a userID extraction function that reads the "user_id"
// value placed in the Echo context by JWTAuth. JWT numeric claims are
// decoded as float64, so both forms are handled. When no user is
// authenticated, "guest" is returned so anonymous traffic still gets
// a stable rate-limit key.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the context values set by
// JWTAuth. It returns "guest" when no user is authenticated.
func userID(c echo.Context) string {
    switch t := c.Get("user_id").(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return strconv.FormatUint(uint64(t), 10)
    case uint64:
        return strconv.FormatUint(t, 10)
    }
    return "guest"
}
