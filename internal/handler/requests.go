package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// createReservationBody is the JSON accepted by both booking endpoints.
// Staff may pin table_ids; the public endpoint ignores them.
type createReservationBody struct {
	PartySize       int      `json:"party_size"`
	ReservationTime string   `json:"reservation_time"` // RFC 3339
	CustomerName    string   `json:"customer_name"`
	CustomerPhone   string   `json:"customer_phone"`
	CustomerEmail   *string  `json:"customer_email"`
	Notes           *string  `json:"notes"`
	PreferredArea   *string  `json:"preferred_area"`
	TableIDs        []uint64 `json:"table_ids"`
}

func (b createReservationBody) toRequest() (service.CreateRequest, string) {
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(b.ReservationTime))
	if err != nil {
		return service.CreateRequest{}, "reservation_time must be RFC 3339"
	}
	return service.CreateRequest{
		PartySize:       b.PartySize,
		ReservationTime: at,
		CustomerName:    strings.TrimSpace(b.CustomerName),
		CustomerPhone:   strings.TrimSpace(b.CustomerPhone),
		CustomerEmail:   trimmed(b.CustomerEmail),
		Notes:           trimmed(b.Notes),
		PreferredArea:   trimmed(b.PreferredArea),
		TableIDs:        b.TableIDs,
	}, ""
}

type cancelBody struct {
	Reason string `json:"reason"`
	Phone  string `json:"phone"`
}

// trimmed drops blank optional strings.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// queryTime accepts RFC 3339 or a bare date in the restaurant zone.
func queryTime(c echo.Context, name string, loc *time.Location) (*time.Time, bool) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", v, loc); err == nil {
		return &t, true
	}
	return nil, false
}

// queryDay reads ?date=YYYY-MM-DD, defaulting to the day containing now.
func queryDay(c echo.Context, loc *time.Location, now time.Time) (time.Time, bool) {
	v := strings.TrimSpace(c.QueryParam("date"))
	if v == "" {
		return now.In(loc), true
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	return t, err == nil
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// suggestionQuery parses ?party_size=&time=&area= shared by staff and
// public suggestion endpoints.
func suggestionQuery(c echo.Context) (party int, at time.Time, area string, msg string) {
	party, ok := queryInt(c, "party_size", 0)
	if !ok {
		return 0, time.Time{}, "", "party_size must be a number"
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(c.QueryParam("time")))
	if err != nil {
		return 0, time.Time{}, "", "time must be RFC 3339"
	}
	return party, at, strings.TrimSpace(c.QueryParam("area")), ""
}

func listFilter(c echo.Context, loc *time.Location) (model.ReservationFilter, string) {
	f := model.ReservationFilter{
		Status: model.ReservationStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))),
		Phone:  c.QueryParam("phone"),
		Area:   strings.TrimSpace(c.QueryParam("area")),
	}
	var ok bool
	if f.From, ok = queryTime(c, "from", loc); !ok {
		return f, "from must be a date or RFC 3339"
	}
	if f.To, ok = queryTime(c, "to", loc); !ok {
		return f, "to must be a date or RFC 3339"
	}
	if f.Page, ok = queryInt(c, "page", 1); !ok {
		return f, "page must be a number"
	}
	if f.PageSize, ok = queryInt(c, "page_size", 20); !ok {
		return f, "page_size must be a number"
	}
	return f, ""
}
