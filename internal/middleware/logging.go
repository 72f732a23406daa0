package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/logger"
)

// RequestLogger writes one API line per request with its status and
// duration.  Handler errors are passed to echo's error handler first so
// the logged status is the one the client sees.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            path := c.Path()
            if path == "" {
                path = c.Request().URL.Path
            }
            log.LogAPI(c.Request().Method, path, c.Response().Status, time.Since(start))
            return nil
        }
    }
}
