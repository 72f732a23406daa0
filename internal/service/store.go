package service

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

// SlotReader is the read side the availability and occupancy maths need.
type SlotReader interface {
	// ActiveTables returns every active table ordered by number.
	ActiveTables(ctx context.Context) ([]model.Table, error)
	// BookedSlots returns blocking reservations whose time lies strictly
	// between from and to.
	BookedSlots(ctx context.Context, from, to time.Time) ([]model.BookedSlot, error)
}

// Tx is the unit of work a write operation runs in.  Everything done
// through one Tx commits or rolls back together.
type Tx interface {
	SlotReader

	// LockActiveTables row-locks every active table until the transaction
	// ends.  Creates take it first so overlapping creates serialize.
	LockActiveTables(ctx context.Context) ([]model.Table, error)
	// LockReservation loads a reservation with its tables and customer and
	// row-locks it.  Returns ErrNotFound when missing.
	LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// InsertReservation stores r and its table links, setting r.ID.
	// Returns ErrDuplicateNumber when r.Number is taken.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// UpdateReservation writes the mutable columns when r.Version still
	// matches, then bumps r.Version.  Returns ErrConcurrentUpdate otherwise.
	UpdateReservation(ctx context.Context, r *model.Reservation) error
	// UpsertCustomer finds the customer by phone or creates it, setting c.ID.
	UpsertCustomer(ctx context.Context, c *model.Customer) error
	// CreateOrder opens an order with one order_tables row per table of r.
	CreateOrder(ctx context.Context, r *model.Reservation, createdBy *uint64) (uint64, error)
	// SetTableStatus updates the floor status of the given tables.
	SetTableStatus(ctx context.Context, tableIDs []uint64, status model.TableStatus) error
}

// Store is the persistence collaborator of the reservation service.
type Store interface {
	SlotReader

	// InTx runs fn in a transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ReservationByNumber(ctx context.Context, number string) (*model.Reservation, error)
	ListReservations(ctx context.Context, f model.ReservationFilter) (model.ReservationPage, error)
	ReservationsByPhone(ctx context.Context, phone string) ([]model.Reservation, error)
	// ReservationsBetween returns reservations of any status with
	// from <= time < to, ordered by time.
	ReservationsBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error)

	// OverdueReservationIDs lists PENDING or CONFIRMED reservations whose
	// time is before cutoff.
	OverdueReservationIDs(ctx context.Context, cutoff time.Time) ([]uint64, error)
	// ReminderCandidates lists CONFIRMED reservations without a reminder
	// whose time lies in (from, to].
	ReminderCandidates(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	// MarkReminderSent stamps the reminder when the reservation is still
	// CONFIRMED and unsent; it reports whether a row changed.
	MarkReminderSent(ctx context.Context, id uint64, at time.Time) (bool, error)
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// CodeRenderer renders content as a PNG QR code.
type CodeRenderer interface {
	PNG(content string, size int) ([]byte, error)
}

// EventPublisher delivers lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
