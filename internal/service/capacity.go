package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// CurrentCapacityPercent returns the share of active seating taken by
// blocking bookings overlapping now, in [0, 100].  It is 0 when the
// restaurant has no active tables.
func (s *Service) CurrentCapacityPercent(ctx context.Context) (float64, error) {
	tables, err := s.store.ActiveTables(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tables: %w", err)
	}
	now := s.clock.Now()
	slots, err := s.slotsAround(ctx, s.store, now)
	if err != nil {
		return 0, err
	}
	return occupancyPercent(totalCapacity(tables), guestsAt(slots, now, s.policy.TurnoverBuffer), 0), nil
}

func totalCapacity(tables []model.Table) int {
	total := 0
	for _, t := range tables {
		if t.IsActive {
			total += t.Capacity
		}
	}
	return total
}

// guestsAt sums party sizes of blocking bookings overlapping t.
func guestsAt(slots []model.BookedSlot, t time.Time, buffer time.Duration) int {
	guests := 0
	for _, slot := range slots {
		if slot.Overlaps(t, buffer) {
			guests += slot.PartySize
		}
	}
	return guests
}

// occupancyPercent is (booked+extra)/total as a percentage clamped to
// [0, 100].
func occupancyPercent(total, booked, extra int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(booked+extra) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
