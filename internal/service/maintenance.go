package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

var errSkip = errors.New("skip")

// CancelOverdueReservations cancels every PENDING or CONFIRMED reservation
// that started more than the no-show grace ago.  Each reservation is
// re-checked under its own row lock, so running the sweep twice, or next
// to a staff action, never double-cancels.  Per-item failures are logged
// and the sweep moves on.
func (s *Service) CancelOverdueReservations(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.policy.NoShowGrace)
	ids, err := s.store.OverdueReservationIDs(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list overdue reservations: %w", err)
	}

	cancelled := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}
		var r *model.Reservation
		err := s.store.InTx(ctx, func(tx Tx) error {
			cur, err := tx.LockReservation(ctx, id)
			if err != nil {
				return err
			}
			if !cur.Cancellable() || !cur.ReservationTime.Before(cutoff) {
				return errSkip
			}
			if err := cur.Cancel(NoShowReason, now); err != nil {
				return errSkip
			}
			if err := tx.UpdateReservation(ctx, cur); err != nil {
				return err
			}
			r = cur
			return nil
		})
		switch {
		case errors.Is(err, errSkip), errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			s.log.Error("SWEEPER", fmt.Sprintf("cancel overdue reservation %d: %v", id, err))
			continue
		}
		cancelled++
		s.log.LogReservation("NO-SHOW", r.Number, "auto-cancelled")
		s.publish(ctx, queue.EventReservationCancelled, r)
	}
	return cancelled, nil
}

// SendReminderEmails emails every CONFIRMED guest whose booking starts
// within the reminder lead and has no reminder yet.  A booking stays a
// candidate until it starts, so a send that fails is retried on the next
// sweep.  Each candidate is re-read before sending, which skips bookings
// cancelled or reminded since the listing.
func (s *Service) SendReminderEmails(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.store.ReminderCandidates(ctx, now, now.Add(s.policy.ReminderLead))
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	sent := 0
	for i := range candidates {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if _, ok := recipient(&candidates[i]); !ok {
			continue
		}
		r, err := s.store.ReservationByID(ctx, candidates[i].ID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.log.Error("SWEEPER", fmt.Sprintf("reload %s: %v", candidates[i].Number, err))
			}
			continue
		}
		if r.Status != model.StatusConfirmed || r.ReminderSentAt != nil {
			continue
		}
		if err := s.sendReminder(ctx, r); err != nil {
			s.log.Error("EMAIL", fmt.Sprintf("reminder for %s failed: %v", r.Number, err))
			continue
		}
		marked, err := s.store.MarkReminderSent(ctx, r.ID, now)
		if err != nil {
			s.log.Error("SWEEPER", fmt.Sprintf("mark reminder for %s: %v", r.Number, err))
			continue
		}
		if marked {
			sent++
			s.log.LogReservation("REMIND", r.Number, fmt.Sprintf("reminder sent for %s", r.ReservationTime.Format(time.RFC3339)))
		}
	}
	return sent, nil
}
