package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// fakeService implements the handful of methods each test needs.  Anything
// else panics through the nil embedded interface.
type fakeService struct {
	ReservationService

	reservation *model.Reservation
	err         error

	gotCreate service.CreateRequest
	gotActor  service.Actor
	gotReason string
	gotFilter model.ReservationFilter
	gotPhone  string
	gotDay    time.Time
	canCancel bool
	now       time.Time
}

func (f *fakeService) Policy() service.Policy { return service.DefaultPolicy() }
func (f *fakeService) Now() time.Time         { return f.now }

func (f *fakeService) Create(ctx context.Context, req service.CreateRequest) (*model.Reservation, error) {
	f.gotCreate = req
	return f.reservation, f.err
}

func (f *fakeService) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
	return f.reservation, f.err
}

func (f *fakeService) Arrive(ctx context.Context, id uint64, actor service.Actor) (*model.Reservation, error) {
	f.gotActor = actor
	return f.reservation, f.err
}

func (f *fakeService) Cancel(ctx context.Context, id uint64, actor service.Actor, reason string) (*model.Reservation, error) {
	f.gotActor, f.gotReason = actor, reason
	return f.reservation, f.err
}

func (f *fakeService) CanCustomerCancel(ctx context.Context, id uint64, phone string) (bool, error) {
	return f.canCancel, nil
}

func (f *fakeService) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return f.reservation, f.err
}

func (f *fakeService) GetForGuest(ctx context.Context, number, phone string) (*model.Reservation, error) {
	f.gotPhone = phone
	if f.err != nil {
		return nil, f.err
	}
	return f.reservation, nil
}

func (f *fakeService) List(ctx context.Context, filter model.ReservationFilter) (model.ReservationPage, error) {
	f.gotFilter = filter
	return model.ReservationPage{Items: []model.Reservation{}, Page: 1, PageSize: 20}, f.err
}

func (f *fakeService) ListByPhone(ctx context.Context, phone string) ([]model.Reservation, error) {
	f.gotPhone = phone
	return []model.Reservation{}, f.err
}

func (f *fakeService) Suggest(ctx context.Context, party int, t time.Time, area string) ([]service.Suggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []service.Suggestion{{
		Tables:        []model.Table{{ID: 3, Number: 3, Capacity: 4, Area: "patio"}},
		TotalCapacity: 4, Area: "patio",
	}}, nil
}

func (f *fakeService) DashboardStats(ctx context.Context, day time.Time) (service.DashboardStats, error) {
	f.gotDay = day
	return service.DashboardStats{Date: day.Format("2006-01-02")}, f.err
}

func (f *fakeService) ReservationQRCode(r *model.Reservation, size int) ([]byte, error) {
	return []byte("PNG:" + r.Number), nil
}

func sample() *model.Reservation {
	return &model.Reservation{ID: 7, Number: "RSV-261014-ABC123", PartySize: 2, Status: model.StatusPending, TableIDs: []uint64{3}}
}

func call(h echo.HandlerFunc, method, target, route, body string, params map[string]string, set map[string]any) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(route)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	for k, v := range set {
		c.Set(k, v)
	}
	_ = h(c)
	return rec
}

func TestErrorMapper(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("at 03:00: %w", service.ErrInvalidTime), http.StatusBadRequest},
		{service.ErrInvalidPartySize, http.StatusBadRequest},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("reservation 9: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrInvalidState, http.StatusConflict},
		{service.ErrConcurrentUpdate, http.StatusConflict},
		{service.ErrCapacityExceeded, http.StatusUnprocessableEntity},
		{service.ErrNoTableAvailable, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, reservationErrors.Map(tc.err).Status, tc.err.Error())
	}
	info := reservationErrors.Map(fmt.Errorf("at 03:00: %w", service.ErrInvalidTime))
	assert.Contains(t, info.Message, "03:00")
	assert.Equal(t, "internal server error", reservationErrors.Map(fmt.Errorf("dsn leaked")).Message)
}

func TestStaffCreate(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewStaffHandler(svc, nil)
	body := `{"party_size":4,"reservation_time":"2026-10-15T19:00:00Z","customer_name":" Ada ","customer_phone":"555-0100","notes":"  ","table_ids":[3,4]}`
	rec := call(h.Create, http.MethodPost, "/v1/reservations", "/v1/reservations", body, nil,
		map[string]any{middleware.KeyUserID: float64(12), middleware.KeyRole: model.RoleStaff})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4, svc.gotCreate.PartySize)
	assert.Equal(t, "Ada", svc.gotCreate.CustomerName)
	assert.Nil(t, svc.gotCreate.Notes)
	assert.Equal(t, []uint64{3, 4}, svc.gotCreate.TableIDs)
	require.NotNil(t, svc.gotCreate.CreatedBy)
	assert.Equal(t, uint64(12), *svc.gotCreate.CreatedBy)
	assert.Contains(t, rec.Body.String(), "RSV-261014-ABC123")
}

func TestStaffCreateErrors(t *testing.T) {
	h := NewStaffHandler(&fakeService{}, nil)
	rec := call(h.Create, http.MethodPost, "/v1/reservations", "/v1/reservations",
		`{"party_size":2,"reservation_time":"tomorrow"}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewStaffHandler(&fakeService{err: fmt.Errorf("19:00: %w", service.ErrCapacityExceeded)}, nil)
	rec = call(h.Create, http.MethodPost, "/v1/reservations", "/v1/reservations",
		`{"party_size":2,"reservation_time":"2026-10-15T19:00:00Z"}`, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity")
}

func TestStaffArriveUsesActor(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewStaffHandler(svc, nil)
	rec := call(h.Arrive, http.MethodPost, "/v1/reservations/7/arrive", "/v1/reservations/:id/arrive", "",
		map[string]string{"id": "7"}, map[string]any{middleware.KeyUserID: float64(5), middleware.KeyRole: model.RoleStaff})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleStaff, svc.gotActor.Role)
	require.NotNil(t, svc.gotActor.UserID)
	assert.Equal(t, uint64(5), *svc.gotActor.UserID)

	rec = call(h.Arrive, http.MethodPost, "/v1/reservations/x/arrive", "/v1/reservations/:id/arrive", "",
		map[string]string{"id": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffConfirmConflict(t *testing.T) {
	h := NewStaffHandler(&fakeService{err: fmt.Errorf("%w: CANCELLED", service.ErrInvalidState)}, nil)
	rec := call(h.Confirm, http.MethodPost, "/v1/reservations/7/confirm", "/v1/reservations/:id/confirm", "",
		map[string]string{"id": "7"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStaffCancelWithReason(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewStaffHandler(svc, nil)
	rec := call(h.Cancel, http.MethodPost, "/v1/reservations/7/cancel", "/v1/reservations/:id/cancel",
		`{"reason":" kitchen closed "}`, map[string]string{"id": "7"}, map[string]any{middleware.KeyRole: model.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kitchen closed", svc.gotReason)
	assert.Equal(t, model.RoleAdmin, svc.gotActor.Role)
}

func TestStaffListFilter(t *testing.T) {
	svc := &fakeService{}
	h := NewStaffHandler(svc, nil)
	rec := call(h.List, http.MethodGet, "/v1/reservations?status=confirmed&from=2026-10-14&page=2&page_size=5", "/v1/reservations", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusConfirmed, svc.gotFilter.Status)
	require.NotNil(t, svc.gotFilter.From)
	assert.Equal(t, "2026-10-14", svc.gotFilter.From.Format("2006-01-02"))
	assert.Nil(t, svc.gotFilter.To)
	assert.Equal(t, 2, svc.gotFilter.Page)
	assert.Equal(t, 5, svc.gotFilter.PageSize)

	rec = call(h.List, http.MethodGet, "/v1/reservations?page=two", "/v1/reservations", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffDashboardDate(t *testing.T) {
	svc := &fakeService{}
	h := NewStaffHandler(svc, nil)
	rec := call(h.Dashboard, http.MethodGet, "/v1/reservations/dashboard?date=2026-10-14", "/v1/reservations/dashboard", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-14", svc.gotDay.Format("2006-01-02"))

	rec = call(h.Dashboard, http.MethodGet, "/v1/reservations/dashboard?date=14.10.2026", "/v1/reservations/dashboard", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffDashboardDefaultsToServiceClock(t *testing.T) {
	svc := &fakeService{now: time.Date(2031, 3, 9, 21, 30, 0, 0, time.UTC)}
	h := NewStaffHandler(svc, nil)
	rec := call(h.Dashboard, http.MethodGet, "/v1/reservations/dashboard", "/v1/reservations/dashboard", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2031-03-09", svc.gotDay.Format("2006-01-02"))
}

func TestPublicCreateRequiresContact(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewPublicHandler(svc, nil)
	rec := call(h.Create, http.MethodPost, "/v1/public/reservations", "/v1/public/reservations",
		`{"party_size":2,"reservation_time":"2026-10-15T19:00:00Z","customer_name":"Ada"}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.Create, http.MethodPost, "/v1/public/reservations", "/v1/public/reservations",
		`{"party_size":2,"reservation_time":"2026-10-15T19:00:00Z","customer_name":"Ada","customer_phone":"555-0100","table_ids":[1]}`, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.gotCreate.TableIDs)
}

func TestPublicGetShowsCancellable(t *testing.T) {
	svc := &fakeService{reservation: sample(), canCancel: true}
	h := NewPublicHandler(svc, nil)
	rec := call(h.Get, http.MethodGet, "/v1/public/reservations/RSV-261014-ABC123?phone=555-0100",
		"/v1/public/reservations/:number", "", map[string]string{"number": "RSV-261014-ABC123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_cancel":true`)
	assert.Contains(t, rec.Body.String(), `"reservation_number":"RSV-261014-ABC123"`)
	assert.Equal(t, "555-0100", svc.gotPhone)

	h = NewPublicHandler(&fakeService{err: service.ErrNotFound}, nil)
	rec = call(h.Get, http.MethodGet, "/v1/public/reservations/X?phone=1", "/v1/public/reservations/:number", "",
		map[string]string{"number": "X"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicCancelActsAsCustomer(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewPublicHandler(svc, nil)
	rec := call(h.Cancel, http.MethodPost, "/v1/public/reservations/RSV-261014-ABC123/cancel",
		"/v1/public/reservations/:number/cancel", `{"phone":"555-0100","reason":"ill"}`,
		map[string]string{"number": "RSV-261014-ABC123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleCustomer, svc.gotActor.Role)
	assert.Equal(t, "555-0100", svc.gotActor.Phone)
	assert.Equal(t, "ill", svc.gotReason)
}

func TestPublicSuggestionsHideTables(t *testing.T) {
	h := NewPublicHandler(&fakeService{}, nil)
	rec := call(h.Suggestions, http.MethodGet, "/v1/public/suggestions?party_size=4&time=2026-10-15T19:00:00Z",
		"/v1/public/suggestions", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true,"options":[{"area":"patio","seats":4,"tables":1,"combined":false}]}`, rec.Body.String())

	rec = call(h.Suggestions, http.MethodGet, "/v1/public/suggestions?party_size=4", "/v1/public/suggestions", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicQRCode(t *testing.T) {
	h := NewPublicHandler(&fakeService{reservation: sample()}, nil)
	rec := call(h.QRCode, http.MethodGet, "/v1/public/reservations/RSV-261014-ABC123/qr?phone=1",
		"/v1/public/reservations/:number/qr", "", map[string]string{"number": "RSV-261014-ABC123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "PNG:RSV-261014-ABC123", rec.Body.String())
}

func TestCustomerHandler(t *testing.T) {
	svc := &fakeService{reservation: sample()}
	h := NewCustomerHandler(svc, nil)

	rec := call(h.Mine, http.MethodGet, "/v1/my-reservations", "/v1/my-reservations", "", nil,
		map[string]any{middleware.KeyRole: model.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h.Mine, http.MethodGet, "/v1/my-reservations", "/v1/my-reservations", "", nil,
		map[string]any{middleware.KeyRole: model.RoleCustomer, middleware.KeyPhone: "+4917000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+4917000", svc.gotPhone)

	svc.err = fmt.Errorf("%w: too close to the booking", service.ErrForbidden)
	rec = call(h.Cancel, http.MethodPost, "/v1/my-reservations/7/cancel", "/v1/my-reservations/:id/cancel", "",
		map[string]string{"id": "7"}, map[string]any{
			middleware.KeyRole: model.RoleCustomer, middleware.KeyPhone: "+4917000", middleware.KeyCustomerID: float64(3),
		})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, svc.gotActor.CustomerID)
	assert.Equal(t, uint64(3), *svc.gotActor.CustomerID)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := call(Health(pinger{}), http.MethodGet, "/healthz", "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(Health(pinger{err: fmt.Errorf("down")}), http.MethodGet, "/healthz", "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = call(Health(nil), http.MethodGet, "/healthz", "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
