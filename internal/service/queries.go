package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

func (s *Service) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.store.ReservationByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	return s.store.ReservationByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

// GetForGuest returns the reservation with number when phone matches its
// customer.  A mismatch looks exactly like a missing reservation.
func (s *Service) GetForGuest(ctx context.Context, number, phone string) (*model.Reservation, error) {
	r, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if r.Customer == nil || !model.SamePhone(phone, r.Customer.Phone) {
		return nil, fmt.Errorf("reservation %s: %w", number, ErrNotFound)
	}
	return r, nil
}

// List returns one page of reservations.
func (s *Service) List(ctx context.Context, f model.ReservationFilter) (model.ReservationPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return model.ReservationPage{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	f.Phone = model.NormalizePhone(f.Phone)
	return s.store.ListReservations(ctx, f)
}

// Tables lists the active floor plan.
func (s *Service) Tables(ctx context.Context) ([]model.Table, error) {
	return s.store.ActiveTables(ctx)
}

func (s *Service) ListByPhone(ctx context.Context, phone string) ([]model.Reservation, error) {
	p := model.NormalizePhone(phone)
	if p == "" {
		return []model.Reservation{}, nil
	}
	return s.store.ReservationsByPhone(ctx, p)
}

// DayBounds returns [start, end) of the restaurant calendar day containing t.
func (s *Service) DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(s.policy.Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.policy.Location)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// DashboardStats summarizes one calendar day.
type DashboardStats struct {
	Date            string                          `json:"date"`
	Total           int                             `json:"total"`
	ByStatus        map[model.ReservationStatus]int `json:"by_status"`
	ExpectedGuests  int                             `json:"expected_guests"`
	Upcoming        int                             `json:"upcoming"`
	ActiveTables    int                             `json:"active_tables"`
	TotalSeats      int                             `json:"total_seats"`
	CapacityPercent float64                         `json:"capacity_percent"`
}

func (s *Service) DashboardStats(ctx context.Context, day time.Time) (DashboardStats, error) {
	from, to := s.DayBounds(day)
	rs, err := s.store.ReservationsBetween(ctx, from, to)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load reservations: %w", err)
	}
	tables, err := s.store.ActiveTables(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load tables: %w", err)
	}
	pct, err := s.CurrentCapacityPercent(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.clock.Now()
	st := DashboardStats{
		Date: from.In(s.policy.Location).Format("2006-01-02"),
		ByStatus: map[model.ReservationStatus]int{
			model.StatusPending: 0, model.StatusConfirmed: 0, model.StatusArrived: 0, model.StatusCancelled: 0,
		},
		ActiveTables:    len(tables),
		TotalSeats:      totalCapacity(tables),
		CapacityPercent: pct,
	}
	for _, r := range rs {
		st.Total++
		st.ByStatus[r.Status]++
		if r.Status.Blocking() {
			st.ExpectedGuests += r.PartySize
		}
		if r.Cancellable() && r.ReservationTime.After(now) {
			st.Upcoming++
		}
	}
	return st, nil
}

// TimelineSlot is one booking drawn on a table's lane.
type TimelineSlot struct {
	ReservationID uint64                  `json:"reservation_id"`
	Number        string                  `json:"reservation_number"`
	Start         time.Time               `json:"start"`
	End           time.Time               `json:"end"`
	PartySize     int                     `json:"party_size"`
	Status        model.ReservationStatus `json:"status"`
	CustomerName  string                  `json:"customer_name,omitempty"`
}

// TimelineLane is one table and its bookings for the day.
type TimelineLane struct {
	Table model.Table    `json:"table"`
	Slots []TimelineSlot `json:"slots"`
}

// Timeline lays out the day's blocking bookings per active table.
func (s *Service) Timeline(ctx context.Context, day time.Time) ([]TimelineLane, error) {
	from, to := s.DayBounds(day)
	tables, err := s.store.ActiveTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	rs, err := s.store.ReservationsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	lanes := make([]TimelineLane, len(tables))
	index := make(map[uint64]int, len(tables))
	for i, t := range tables {
		lanes[i] = TimelineLane{Table: t, Slots: []TimelineSlot{}}
		index[t.ID] = i
	}
	for _, r := range rs {
		if !r.Status.Blocking() {
			continue
		}
		slot := TimelineSlot{
			ReservationID: r.ID,
			Number:        r.Number,
			Start:         r.ReservationTime,
			End:           r.ReservationTime.Add(s.policy.TurnoverBuffer),
			PartySize:     r.PartySize,
			Status:        r.Status,
		}
		if r.Customer != nil {
			slot.CustomerName = r.Customer.Name
		}
		for _, id := range r.TableIDs {
			if i, ok := index[id]; ok {
				lanes[i].Slots = append(lanes[i].Slots, slot)
			}
		}
	}
	for i := range lanes {
		sort.Slice(lanes[i].Slots, func(a, b int) bool { return lanes[i].Slots[a].Start.Before(lanes[i].Slots[b].Start) })
	}
	return lanes, nil
}
