package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
)

// CustomerHandler serves signed-in guests.  Their token carries the phone
// they book with, which ties them to their reservations.
type CustomerHandler struct {
	base
}

func NewCustomerHandler(svc ReservationService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{base: newBase(svc, log)}
}

// Mine handles GET /v1/my-reservations.
func (h *CustomerHandler) Mine(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Phone == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "token has no phone claim"})
	}
	rs, err := h.svc.ListByPhone(c.Request().Context(), actor.Phone)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rs})
}

// Cancel handles POST /v1/my-reservations/:id/cancel.  Ownership and the
// cutoff are checked by the service.
func (h *CustomerHandler) Cancel(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var body cancelBody
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	r, err := h.svc.Cancel(c.Request().Context(), id, actorFrom(c), strings.TrimSpace(body.Reason))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
