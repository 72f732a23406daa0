// Package service implements the reservation lifecycle: table allocation,
// conflict detection, role-gated transitions and the background sweeps.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

// NoShowReason is recorded on reservations cancelled by the overdue sweep.
const NoShowReason = "no-show"

const maxNumberAttempts = 3

// Service is the reservation lifecycle manager.  It is the only writer of
// reservation and table status.
type Service struct {
	store     Store
	clock     Clock
	policy    Policy
	mailer    Mailer
	codes     CodeRenderer
	events    EventPublisher
	log       *logger.Logger
	newNumber func(time.Time) string
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }
func WithMailer(m Mailer) Option { return func(s *Service) { s.mailer = m } }
func WithCodeRenderer(r CodeRenderer) Option { return func(s *Service) { s.codes = r } }
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithNumberGenerator replaces the reservation number generator.
func WithNumberGenerator(fn func(time.Time) string) Option {
	return func(s *Service) { s.newNumber = fn }
}

func New(store Store, policy Policy, opts ...Option) *Service {
	if store == nil {
		panic("nil store passed to service.New")
	}
	s := &Service{
		store:     store,
		clock:     SystemClock{},
		policy:    policy.withDefaults(),
		log:       logger.Discard(),
		newNumber: NewReservationNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the effective house rules.
func (s *Service) Policy() Policy { return s.policy }

// Now reads the service clock.
func (s *Service) Now() time.Time { return s.clock.Now() }

// NewReservationNumber returns a code like RSV-261014-4F9A1C.
func NewReservationNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "RSV-" + now.UTC().Format("060102") + "-" + suffix
}

// Actor is the caller of a role-gated operation.
type Actor struct {
	UserID     *uint64
	Role       string
	Phone      string
	CustomerID *uint64
}

func (a Actor) owns(r *model.Reservation) bool {
	if a.CustomerID != nil && r.CustomerID != nil && *a.CustomerID == *r.CustomerID {
		return true
	}
	return r.Customer != nil && model.SamePhone(a.Phone, r.Customer.Phone)
}

// CreateRequest describes a new booking.
type CreateRequest struct {
	PartySize       int
	ReservationTime time.Time
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	Notes           *string
	PreferredArea   *string
	// TableIDs pins the booking to specific tables instead of taking the
	// best suggestion.
	TableIDs  []uint64
	CreatedBy *uint64
}

// ValidateReservationTime accepts t when it is at least the minimum lead
// time ahead and its time of day falls within opening hours.
func (s *Service) ValidateReservationTime(t time.Time) error {
	now := s.clock.Now()
	if t.Before(now.Add(s.policy.MinLeadTime)) {
		return fmt.Errorf("%w: must be at least %s ahead", ErrInvalidTime, s.policy.MinLeadTime)
	}
	local := t.In(s.policy.Location)
	tod := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	if tod < s.policy.OpenAt || tod >= s.policy.CloseAt {
		return fmt.Errorf("%w: outside opening hours %s-%s", ErrInvalidTime, clockString(s.policy.OpenAt), clockString(s.policy.CloseAt))
	}
	return nil
}

func clockString(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func (s *Service) validatePartySize(n int) error {
	if n < s.policy.MinPartySize || n > s.policy.MaxPartySize {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidPartySize, s.policy.MinPartySize, s.policy.MaxPartySize)
	}
	return nil
}

// Create books tables for a party.  The whole check-then-insert runs under a
// lock on all active tables, so two overlapping creates cannot both take
// the same table.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := s.validatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	if err := s.ValidateReservationTime(req.ReservationTime); err != nil {
		return nil, err
	}
	at := req.ReservationTime.UTC()
	area := ""
	if req.PreferredArea != nil {
		area = *req.PreferredArea
	}

	var created *model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		tables, err := tx.LockActiveTables(ctx)
		if err != nil {
			return fmt.Errorf("lock tables: %w", err)
		}
		slots, err := s.slotsAround(ctx, tx, at)
		if err != nil {
			return err
		}

		var tableIDs []uint64
		if len(req.TableIDs) > 0 {
			if tableIDs, err = s.checkRequestedTables(tables, slots, req.TableIDs, req.PartySize, at); err != nil {
				return err
			}
		} else {
			suggestions, err := s.rank(tables, slots, req.PartySize, at, area)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				return fmt.Errorf("%w for %d guests at %s", ErrNoTableAvailable, req.PartySize, at.Format(time.RFC3339))
			}
			tableIDs = suggestions[0].TableIDs()
		}

		now := s.clock.Now()
		r := model.NewReservation(s.newNumber(now), req.PartySize, at, tableIDs, req.CreatedBy, now)
		r.Notes = req.Notes
		r.PreferredArea = req.PreferredArea

		if phone := model.NormalizePhone(req.CustomerPhone); phone != "" {
			c := &model.Customer{Name: strings.TrimSpace(req.CustomerName), Phone: phone, Email: req.CustomerEmail}
			if err := tx.UpsertCustomer(ctx, c); err != nil {
				return fmt.Errorf("upsert customer: %w", err)
			}
			r.CustomerID = &c.ID
			r.Customer = c
		}

		for attempt := 1; ; attempt++ {
			err = tx.InsertReservation(ctx, r)
			if errors.Is(err, ErrDuplicateNumber) && attempt < maxNumberAttempts {
				r.Number = s.newNumber(now)
				continue
			}
			break
		}
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogReservation("CREATE", created.Number, fmt.Sprintf("party of %d at %s on tables %v", created.PartySize, created.ReservationTime.Format(time.RFC3339), created.TableIDs))
	s.publish(ctx, queue.EventReservationCreated, created)
	return created, nil
}

// checkRequestedTables validates a staff-pinned allocation against the same
// rules the suggestion engine applies.
func (s *Service) checkRequestedTables(tables []model.Table, slots []model.BookedSlot, ids []uint64, partySize int, at time.Time) ([]uint64, error) {
	buf := s.policy.TurnoverBuffer
	if occupancyPercent(totalCapacity(tables), guestsAt(slots, at, buf), partySize) > s.policy.MaxOccupancyPercent {
		return nil, fmt.Errorf("%w: booking would exceed %.0f%% occupancy", ErrCapacityExceeded, s.policy.MaxOccupancyPercent)
	}
	byID := make(map[uint64]model.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}
	blocked := blockedTables(slots, at, buf)
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	seats := 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, ok := byID[id]
		if !ok || !t.IsActive {
			return nil, fmt.Errorf("%w: table %d is not active", ErrNoTableAvailable, id)
		}
		if blocked[id] {
			return nil, fmt.Errorf("%w: table %d is already booked", ErrNoTableAvailable, t.Number)
		}
		seats += t.Capacity
		out = append(out, id)
	}
	if seats < partySize {
		return nil, fmt.Errorf("%w: requested tables seat %d, party is %d", ErrNoTableAvailable, seats, partySize)
	}
	return out, nil
}

// Confirm moves a PENDING reservation to CONFIRMED and emails the guest.
// Email failures are logged, never returned.
func (s *Service) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.transition(ctx, id, func(tx Tx, r *model.Reservation, now time.Time) error {
		if err := r.Confirm(now); err != nil {
			return invalidState(r, "confirm")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.LogReservation("CONFIRM", r.Number, "confirmed")
	if err := s.sendConfirmation(ctx, r); err != nil {
		s.log.Warn("EMAIL", fmt.Sprintf("confirmation for %s not sent: %v", r.Number, err))
	}
	s.publish(ctx, queue.EventReservationConfirmed, r)
	return r, nil
}

// Arrive seats a party: it opens an order on the reservation's tables and
// marks them occupied.  Only staff may do this.
func (s *Service) Arrive(ctx context.Context, id uint64, actor Actor) (*model.Reservation, error) {
	if !model.IsStaff(actor.Role) {
		return nil, fmt.Errorf("%w: only staff can check in a party", ErrForbidden)
	}
	allowPending := s.policy.AllowArriveFromPending
	r, err := s.transition(ctx, id, func(tx Tx, r *model.Reservation, now time.Time) error {
		if !r.CanArrive(allowPending) {
			return invalidState(r, "arrive")
		}
		orderID, err := tx.CreateOrder(ctx, r, actor.UserID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.Arrive(orderID, now, allowPending); err != nil {
			return invalidState(r, "arrive")
		}
		if err := tx.SetTableStatus(ctx, r.TableIDs, model.TableOccupied); err != nil {
			return fmt.Errorf("occupy tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.LogReservation("ARRIVE", r.Number, fmt.Sprintf("seated, order %d", *r.OrderID))
	s.publish(ctx, queue.EventReservationArrived, r)
	return r, nil
}

// Cancel cancels a PENDING or CONFIRMED reservation.  Staff may cancel at
// any time; a customer only their own booking and only up to the cancel
// cutoff before it starts.
func (s *Service) Cancel(ctx context.Context, id uint64, actor Actor, reason string) (*model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	r, err := s.transition(ctx, id, func(tx Tx, r *model.Reservation, now time.Time) error {
		switch {
		case model.IsStaff(actor.Role):
			if reason == "" {
				reason = "cancelled by staff"
			}
		case actor.Role == model.RoleCustomer:
			if !actor.owns(r) {
				return fmt.Errorf("%w: reservation belongs to another guest", ErrForbidden)
			}
			if !r.Cancellable() {
				return invalidState(r, "cancel")
			}
			if r.ReservationTime.Sub(now) < s.policy.CustomerCancelCutoff {
				return fmt.Errorf("%w: cancellations close %s before the booking", ErrForbidden, s.policy.CustomerCancelCutoff)
			}
			if reason == "" {
				reason = "cancelled by customer"
			}
		default:
			return fmt.Errorf("%w: role %q cannot cancel", ErrForbidden, actor.Role)
		}
		if err := r.Cancel(reason, now); err != nil {
			return invalidState(r, "cancel")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.LogReservation("CANCEL", r.Number, reason)
	s.publish(ctx, queue.EventReservationCancelled, r)
	return r, nil
}

// CanCustomerCancel reports whether the guest with phone may still cancel
// reservation id.
func (s *Service) CanCustomerCancel(ctx context.Context, id uint64, phone string) (bool, error) {
	r, err := s.store.ReservationByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.customerMayCancel(r, phone), nil
}

func (s *Service) customerMayCancel(r *model.Reservation, phone string) bool {
	if r.Customer == nil || !model.SamePhone(phone, r.Customer.Phone) {
		return false
	}
	if r.ReservationTime.Sub(s.clock.Now()) < s.policy.CustomerCancelCutoff {
		return false
	}
	return r.Cancellable()
}

// transition locks the reservation, applies mutate and writes it back in
// one transaction.
func (s *Service) transition(ctx context.Context, id uint64, mutate func(tx Tx, r *model.Reservation, now time.Time) error) (*model.Reservation, error) {
	var out *model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(tx, r, s.clock.Now()); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func invalidState(r *model.Reservation, action string) error {
	return fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidState, action, strings.ToLower(string(r.Status)))
}

func (s *Service) publish(ctx context.Context, eventType string, r *model.Reservation) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationEvent{
		ID:              uuid.NewString(),
		Type:            eventType,
		ReservationID:   r.ID,
		Number:          r.Number,
		Status:          string(r.Status),
		PartySize:       r.PartySize,
		ReservationTime: r.ReservationTime,
		TableIDs:        r.TableIDs,
		CustomerID:      r.CustomerID,
		OrderID:         r.OrderID,
		OccurredAt:      s.clock.Now(),
	}
	if r.CancelReason != nil {
		ev.Reason = *r.CancelReason
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn("EVENTS", fmt.Sprintf("publish %s for %s failed: %v", eventType, r.Number, err))
		return
	}
	s.log.LogEvent("PUBLISH", eventType, r.Number)
}
