package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    KeyToken      = "user"
    KeyUserID     = "user_id"
    KeyRole       = "role"
    KeyPhone      = "phone"
    KeyCustomerID = "customer_id"
)

// JWTAuth validates an HS256 Bearer token and copies its claims into the
// request context: sub as user_id, role, and for guests the phone and
// customer_id claims that tie them to their bookings.  Tokens are issued
// elsewhere; this service only verifies them.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // type assertions are left to the consumers, matching how the
            // claims arrive from JSON (numbers are float64)
            c.Set(KeyToken, tok)
            c.Set(KeyUserID, claims["sub"])
            c.Set(KeyRole, claims["role"])
            if v, ok := claims["phone"].(string); ok && v != "" {
                c.Set(KeyPhone, v)
            }
            if v, ok := claims["customer_id"]; ok {
                c.Set(KeyCustomerID, v)
            }
            return next(c)
        }
    }
}
