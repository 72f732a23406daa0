package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// HTTPErrorInfo contains the HTTP status code and message for an error.
type HTTPErrorInfo struct {
	Status  int
	Message string
}

// ErrorMapping maps one sentinel to a status.  An empty Message means the
// error text itself is returned, since service errors carry the detail.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// ErrorMapper maps domain errors to HTTP status codes and messages.
type ErrorMapper struct {
	mappings       []ErrorMapping
	defaultStatus  int
	defaultMessage string
}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{
		defaultStatus:  http.StatusInternalServerError,
		defaultMessage: "internal server error",
	}
}

// WithMapping adds an error mapping to the mapper.
func (m *ErrorMapper) WithMapping(err error, status int, message string) *ErrorMapper {
	m.mappings = append(m.mappings, ErrorMapping{Error: err, Status: status, Message: message})
	return m
}

// Map converts an error to HTTP status and message.  The first matching
// mapping wins.
func (m *ErrorMapper) Map(err error) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return HTTPErrorInfo{Status: http.StatusGatewayTimeout, Message: "request timeout"}
	}
	if errors.Is(err, context.Canceled) {
		return HTTPErrorInfo{Status: http.StatusServiceUnavailable, Message: "request cancelled"}
	}
	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			msg := mapping.Message
			if msg == "" {
				msg = err.Error()
			}
			return HTTPErrorInfo{Status: mapping.Status, Message: msg}
		}
	}
	return HTTPErrorInfo{Status: m.defaultStatus, Message: m.defaultMessage}
}

var reservationErrors = NewErrorMapper().
	WithMapping(service.ErrInvalidTime, http.StatusBadRequest, "").
	WithMapping(service.ErrInvalidPartySize, http.StatusBadRequest, "").
	WithMapping(service.ErrInvalidInput, http.StatusBadRequest, "").
	WithMapping(service.ErrForbidden, http.StatusForbidden, "").
	WithMapping(service.ErrNotFound, http.StatusNotFound, "reservation not found").
	WithMapping(service.ErrInvalidState, http.StatusConflict, "").
	WithMapping(service.ErrConcurrentUpdate, http.StatusConflict, "reservation was modified, retry").
	WithMapping(service.ErrCapacityExceeded, http.StatusUnprocessableEntity, "").
	WithMapping(service.ErrNoTableAvailable, http.StatusUnprocessableEntity, "")

// respondError writes err as {"error": msg}.  Unmapped errors are logged
// and hidden behind a generic 500.
func (b base) respondError(c echo.Context, err error) error {
	info := reservationErrors.Map(err)
	if info.Status >= http.StatusInternalServerError && b.log != nil {
		b.log.Error("API", c.Request().Method+" "+c.Path()+": "+err.Error())
	}
	return c.JSON(info.Status, echo.Map{"error": info.Message})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
