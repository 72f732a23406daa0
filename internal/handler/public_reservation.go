package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// PublicHandler serves guests without an account.  The reservation number
// together with the phone used to book acts as the credential.
type PublicHandler struct {
	base
}

func NewPublicHandler(svc ReservationService, log *logger.Logger) *PublicHandler {
	return &PublicHandler{base: newBase(svc, log)}
}

// guestReservation is a reservation as shown to the guest.
type guestReservation struct {
	*model.Reservation
	CanCancel bool `json:"can_cancel"`
}

func (h *PublicHandler) present(c echo.Context, r *model.Reservation, phone string) guestReservation {
	ok, err := h.svc.CanCustomerCancel(c.Request().Context(), r.ID, phone)
	if err != nil {
		ok = false
	}
	return guestReservation{Reservation: r, CanCancel: ok}
}

// Create handles POST /v1/public/reservations.  Name and phone are
// required; table pinning is staff only.
func (h *PublicHandler) Create(c echo.Context) error {
	var body createReservationBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req, msg := body.toRequest()
	if msg != "" {
		return badRequest(c, msg)
	}
	if req.CustomerName == "" || model.NormalizePhone(req.CustomerPhone) == "" {
		return badRequest(c, "customer_name and customer_phone are required")
	}
	req.TableIDs = nil
	r, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Get handles GET /v1/public/reservations/:number?phone=.
func (h *PublicHandler) Get(c echo.Context) error {
	phone := c.QueryParam("phone")
	r, err := h.svc.GetForGuest(c.Request().Context(), c.Param("number"), phone)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.present(c, r, phone))
}

// Cancel handles POST /v1/public/reservations/:number/cancel with
// {"phone": "...", "reason": "..."}.  The guest cutoff applies.
func (h *PublicHandler) Cancel(c echo.Context) error {
	var body cancelBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx := c.Request().Context()
	r, err := h.svc.GetForGuest(ctx, c.Param("number"), body.Phone)
	if err != nil {
		return h.respondError(c, err)
	}
	actor := service.Actor{Role: model.RoleCustomer, Phone: body.Phone}
	r, err = h.svc.Cancel(ctx, r.ID, actor, strings.TrimSpace(body.Reason))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Suggestions handles GET /v1/public/suggestions?party_size=&time=&area=.
// Guests only see table shapes, not numbers or ids.
func (h *PublicHandler) Suggestions(c echo.Context) error {
	party, at, area, msg := suggestionQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	out, err := h.svc.Suggest(c.Request().Context(), party, at, area)
	if err != nil {
		return h.respondError(c, err)
	}
	type option struct {
		Area     string `json:"area"`
		Seats    int    `json:"seats"`
		Tables   int    `json:"tables"`
		Combined bool   `json:"combined"`
	}
	opts := make([]option, 0, len(out))
	for _, s := range out {
		opts = append(opts, option{Area: s.Area, Seats: s.TotalCapacity, Tables: len(s.Tables), Combined: s.Combined})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": len(opts) > 0, "options": opts})
}

// QRCode handles GET /v1/public/reservations/:number/qr?phone=&size= and
// returns the PNG guests show on arrival.
func (h *PublicHandler) QRCode(c echo.Context) error {
	r, err := h.svc.GetForGuest(c.Request().Context(), c.Param("number"), c.QueryParam("phone"))
	if err != nil {
		return h.respondError(c, err)
	}
	size, ok := queryInt(c, "size", 256)
	if !ok {
		return badRequest(c, "size must be a number")
	}
	png, err := h.svc.ReservationQRCode(r, size)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
