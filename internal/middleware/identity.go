package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated subject as a string for rate
// limit keys, or "anon".
func currentUserID(c echo.Context) string {
    switch v := c.Get(KeyUserID).(type) {
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
