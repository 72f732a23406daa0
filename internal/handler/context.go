package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

var errNoUser = errors.New("invalid user_id in context")

// toUint64 accepts the shapes a numeric claim takes after JSON decoding.
func toUint64(v any) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, true
	case int:
		return uint64(t), t >= 0
	case int64:
		return uint64(t), t >= 0
	case float64:
		return uint64(t), t >= 0
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if n, ok := toUint64(c.Get(middleware.KeyUserID)); ok && n > 0 {
		return n, nil
	}
	return 0, errNoUser
}

// actorFrom builds the service actor from the JWT claims in context.
func actorFrom(c echo.Context) service.Actor {
	var a service.Actor
	if id, err := getUserID(c); err == nil {
		a.UserID = &id
	}
	a.Role, _ = c.Get(middleware.KeyRole).(string)
	a.Phone, _ = c.Get(middleware.KeyPhone).(string)
	if cid, ok := toUint64(c.Get(middleware.KeyCustomerID)); ok && cid > 0 {
		a.CustomerID = &cid
	}
	return a
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
