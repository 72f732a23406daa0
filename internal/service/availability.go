package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// IsAvailable reports whether tableID has no blocking reservation within
// the turnover buffer of t.  A booking occupies [start, start+buffer), so
// a table that passes this check for t never ends up double booked.
func (s *Service) IsAvailable(ctx context.Context, tableID uint64, t time.Time) (bool, error) {
	slots, err := s.slotsAround(ctx, s.store, t)
	if err != nil {
		return false, err
	}
	return !blockedTables(slots, t, s.policy.TurnoverBuffer)[tableID], nil
}

func (s *Service) slotsAround(ctx context.Context, r SlotReader, t time.Time) ([]model.BookedSlot, error) {
	buf := s.policy.TurnoverBuffer
	at := t.UTC()
	slots, err := r.BookedSlots(ctx, at.Add(-buf), at.Add(buf))
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}
	return slots, nil
}

// blockedTables returns the set of tables held by a blocking booking that
// overlaps t.
func blockedTables(slots []model.BookedSlot, t time.Time, buffer time.Duration) map[uint64]bool {
	blocked := make(map[uint64]bool)
	for _, slot := range slots {
		if !slot.Overlaps(t, buffer) {
			continue
		}
		for _, id := range slot.TableIDs {
			blocked[id] = true
		}
	}
	return blocked
}
