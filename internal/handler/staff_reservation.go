package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// StaffHandler serves the front-of-house endpoints under /v1.  JWT and role
// middleware run before every method, so the actor is always staff.
type StaffHandler struct {
	base
}

func NewStaffHandler(svc ReservationService, log *logger.Logger) *StaffHandler {
	return &StaffHandler{base: newBase(svc, log)}
}

// List handles GET /v1/reservations with optional status, from, to, phone,
// area, page and page_size filters.
func (h *StaffHandler) List(c echo.Context) error {
	f, msg := listFilter(c, h.svc.Policy().Location)
	if msg != "" {
		return badRequest(c, msg)
	}
	page, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Create handles POST /v1/reservations.  Staff may book walk-ins without
// customer details and may pin specific tables.
func (h *StaffHandler) Create(c echo.Context) error {
	var body createReservationBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req, msg := body.toRequest()
	if msg != "" {
		return badRequest(c, msg)
	}
	if id, err := getUserID(c); err == nil {
		req.CreatedBy = &id
	}
	r, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Get handles GET /v1/reservations/:id.
func (h *StaffHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// GetByNumber handles GET /v1/reservations/number/:number, used when a
// guest reads their code out at the door.
func (h *StaffHandler) GetByNumber(c echo.Context) error {
	r, err := h.svc.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Confirm handles POST /v1/reservations/:id/confirm.
func (h *StaffHandler) Confirm(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Arrive handles POST /v1/reservations/:id/arrive.  It seats the party,
// opens the order and returns the updated reservation with its order_id.
func (h *StaffHandler) Arrive(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.svc.Arrive(c.Request().Context(), id, actorFrom(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel handles POST /v1/reservations/:id/cancel with an optional
// {"reason": "..."} body.  Staff are not bound by the guest cutoff.
func (h *StaffHandler) Cancel(c echo.Context) error {
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

// Suggestions handles GET /v1/reservations/suggestions?party_size=&time=&area=.
func (h *StaffHandler) Suggestions(c echo.Context) error {
	party, at, area, msg := suggestionQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	out, err := h.svc.Suggest(c.Request().Context(), party, at, area)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suggestions": out})
}

// Capacity handles GET /v1/reservations/capacity: seats occupied right now
// as a percentage of all active seats.
func (h *StaffHandler) Capacity(c echo.Context) error {
	pct, err := h.svc.CurrentCapacityPercent(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"capacity_percent": pct,
		"limit_percent":    h.svc.Policy().MaxOccupancyPercent,
	})
}

// Dashboard handles GET /v1/reservations/dashboard?date=YYYY-MM-DD.
func (h *StaffHandler) Dashboard(c echo.Context) error {
	day, ok := queryDay(c, h.svc.Policy().Location, h.svc.Now())
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	stats, err := h.svc.DashboardStats(c.Request().Context(), day)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Timeline handles GET /v1/reservations/timeline?date=YYYY-MM-DD.
func (h *StaffHandler) Timeline(c echo.Context) error {
	day, ok := queryDay(c, h.svc.Policy().Location, h.svc.Now())
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	lanes, err := h.svc.Timeline(c.Request().Context(), day)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": day.Format("2006-01-02"), "tables": lanes})
}

// CustomerReservations handles GET /v1/customers/:phone/reservations.
func (h *StaffHandler) CustomerReservations(c echo.Context) error {
	rs, err := h.svc.ListByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rs})
}

// Tables handles GET /v1/tables.
func (h *StaffHandler) Tables(c echo.Context) error {
	tables, err := h.svc.Tables(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	if tables == nil {
		tables = []model.Table{}
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}
