package handler

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// ReservationService is what the handlers need from *service.Service.
type ReservationService interface {
	Policy() service.Policy
	Now() time.Time

	Create(ctx context.Context, req service.CreateRequest) (*model.Reservation, error)
	Confirm(ctx context.Context, id uint64) (*model.Reservation, error)
	Arrive(ctx context.Context, id uint64, actor service.Actor) (*model.Reservation, error)
	Cancel(ctx context.Context, id uint64, actor service.Actor, reason string) (*model.Reservation, error)
	CanCustomerCancel(ctx context.Context, id uint64, phone string) (bool, error)

	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByNumber(ctx context.Context, number string) (*model.Reservation, error)
	GetForGuest(ctx context.Context, number, phone string) (*model.Reservation, error)
	List(ctx context.Context, f model.ReservationFilter) (model.ReservationPage, error)
	ListByPhone(ctx context.Context, phone string) ([]model.Reservation, error)
	Tables(ctx context.Context) ([]model.Table, error)

	Suggest(ctx context.Context, partySize int, t time.Time, preferredArea string) ([]service.Suggestion, error)
	CurrentCapacityPercent(ctx context.Context) (float64, error)
	DashboardStats(ctx context.Context, day time.Time) (service.DashboardStats, error)
	Timeline(ctx context.Context, day time.Time) ([]service.TimelineLane, error)
	ReservationQRCode(r *model.Reservation, size int) ([]byte, error)
}

var _ ReservationService = (*service.Service)(nil)

// base is shared by the handler groups.
type base struct {
	svc ReservationService
	log *logger.Logger
}

func newBase(svc ReservationService, log *logger.Logger) base {
	if svc == nil {
		panic("nil service passed to handler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return base{svc: svc, log: log}
}
