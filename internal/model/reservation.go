package model

import (
    "errors"
    "time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
    StatusPending   ReservationStatus = "PENDING"
    StatusConfirmed ReservationStatus = "CONFIRMED"
    StatusArrived   ReservationStatus = "ARRIVED"
    StatusCancelled ReservationStatus = "CANCELLED"
)

// ErrInvalidTransition is returned by the transition methods when the
// reservation is not in a state that permits the requested move.
var ErrInvalidTransition = errors.New("invalid reservation status transition")

// Blocking reports whether a reservation in this state holds its tables.
// Cancelled reservations never block availability or count toward occupancy.
func (s ReservationStatus) Blocking() bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusArrived:
        return true
    }
    return false
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
    return s.Blocking() || s == StatusCancelled
}

// Reservation is a booking of one or more tables for a party at a point in
// time.  Times are stored in UTC.
//
// Fields:
//  ID              – primary key identifier.
//  Number          – unique human readable code shown to guests.
//  CustomerID      – customer that owns the booking (nullable).
//  PartySize       – number of guests, 1..20.
//  ReservationTime – start of the booking; it occupies its tables for the
//                    turnover buffer that follows.
//  Status          – PENDING, CONFIRMED, ARRIVED or CANCELLED.
//  OrderID         – order opened on arrival; set only when ARRIVED.
//  CancelReason    – free text; set only when CANCELLED.
//  ReminderSentAt  – when the reminder email went out.
//  Version         – optimistic concurrency token bumped on every update.
//  TableIDs        – allocated tables in reservation_tables.sort_order.
//  Customer        – read projection of the customer row; not persisted
//                    through the reservation.
type Reservation struct {
    ID              uint64            `json:"id"`                         // reservations.id
    Number          string            `json:"reservation_number"`         // reservations.reservation_number
    CustomerID      *uint64           `json:"customer_id,omitempty"`      // reservations.customer_id
    PartySize       int               `json:"party_size"`                 // reservations.party_size
    ReservationTime time.Time         `json:"reservation_time"`           // reservations.reservation_time
    Status          ReservationStatus `json:"status"`                     // reservations.status
    Notes           *string           `json:"notes,omitempty"`            // reservations.notes
    PreferredArea   *string           `json:"preferred_area,omitempty"`   // reservations.preferred_area
    CancelReason    *string           `json:"cancel_reason,omitempty"`    // reservations.cancel_reason
    CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`     // reservations.cancelled_at
    ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`     // reservations.confirmed_at
    ArrivedAt       *time.Time        `json:"arrived_at,omitempty"`       // reservations.arrived_at
    ReminderSentAt  *time.Time        `json:"reminder_sent_at,omitempty"` // reservations.reminder_sent_at
    OrderID         *uint64           `json:"order_id,omitempty"`         // reservations.order_id
    CreatedBy       *uint64           `json:"created_by,omitempty"`       // reservations.created_by
    CreatedAt       time.Time         `json:"created_at"`                 // reservations.created_at
    UpdatedAt       time.Time         `json:"updated_at"`                 // reservations.updated_at
    Version         uint32            `json:"-"`                          // reservations.version
    TableIDs        []uint64          `json:"table_ids"`
    Customer        *Customer         `json:"customer,omitempty"`
}

// NewReservation builds a PENDING reservation.  Identity, number and
// timestamps are all explicit so nothing depends on zero-value defaults.
func NewReservation(number string, partySize int, at time.Time, tableIDs []uint64, createdBy *uint64, now time.Time) *Reservation {
    ids := make([]uint64, len(tableIDs))
    copy(ids, tableIDs)
    return &Reservation{
        Number:          number,
        PartySize:       partySize,
        ReservationTime: at.UTC(),
        Status:          StatusPending,
        CreatedBy:       createdBy,
        CreatedAt:       now.UTC(),
        UpdatedAt:       now.UTC(),
        TableIDs:        ids,
    }
}

// Confirm moves a PENDING reservation to CONFIRMED.
func (r *Reservation) Confirm(now time.Time) error {
    if r.Status != StatusPending {
        return ErrInvalidTransition
    }
    t := now.UTC()
    r.Status = StatusConfirmed
    r.ConfirmedAt = &t
    r.UpdatedAt = t
    return nil
}

// Arrive seats the party and links the order opened for it.  Arrival is
// normally from CONFIRMED; allowFromPending lets walk-up check-ins skip
// confirmation.
func (r *Reservation) Arrive(orderID uint64, now time.Time, allowFromPending bool) error {
    switch r.Status {
    case StatusConfirmed:
    case StatusPending:
        if !allowFromPending {
            return ErrInvalidTransition
        }
    default:
        return ErrInvalidTransition
    }
    t := now.UTC()
    r.Status = StatusArrived
    r.OrderID = &orderID
    r.ArrivedAt = &t
    r.UpdatedAt = t
    return nil
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED.
func (r *Reservation) Cancel(reason string, now time.Time) error {
    if !r.Cancellable() {
        return ErrInvalidTransition
    }
    t := now.UTC()
    r.Status = StatusCancelled
    r.CancelReason = &reason
    r.CancelledAt = &t
    r.UpdatedAt = t
    return nil
}

// Cancellable reports whether Cancel would succeed on the current state.
func (r *Reservation) Cancellable() bool {
    return r.Status == StatusPending || r.Status == StatusConfirmed
}

// Overlaps reports whether the reservation, when blocking, occupies the
// instant window around t given the turnover buffer.  Two bookings conflict
// when their start times are strictly less than buffer apart.
func (r *Reservation) Overlaps(t time.Time, buffer time.Duration) bool {
    if !r.Status.Blocking() {
        return false
    }
    return within(r.ReservationTime, t, buffer)
}

// HasTable reports whether tableID is allocated to the reservation.
func (r *Reservation) HasTable(tableID uint64) bool {
    for _, id := range r.TableIDs {
        if id == tableID {
            return true
        }
    }
    return false
}

// ReservationTable links a reservation to one of its tables.
//
// Fields:
//  ReservationID – reference to the reservation.
//  TableID       – allocated table.
//  SortOrder     – position of the table in the allocation, starting at 0.
type ReservationTable struct {
    ReservationID uint64 // reservation_tables.reservation_id
    TableID       uint64 // reservation_tables.table_id
    SortOrder     int    // reservation_tables.sort_order
}

// BookedSlot is the narrow projection of a blocking reservation used by the
// availability and occupancy maths.
type BookedSlot struct {
    ReservationID   uint64
    ReservationTime time.Time
    PartySize       int
    Status          ReservationStatus
    TableIDs        []uint64
}

// Overlaps mirrors Reservation.Overlaps for the projection.
func (s BookedSlot) Overlaps(t time.Time, buffer time.Duration) bool {
    return s.Status.Blocking() && within(s.ReservationTime, t, buffer)
}

func within(a, b time.Time, d time.Duration) bool {
    delta := a.Sub(b)
    if delta < 0 {
        delta = -delta
    }
    return delta < d
}

// ReservationFilter narrows a paged reservation listing.  Zero values mean
// "no filter" except Page and PageSize which are normalized by the store.
type ReservationFilter struct {
    Status   ReservationStatus
    From     *time.Time
    To       *time.Time
    Phone    string
    Area     string
    Page     int
    PageSize int
}

// ReservationPage is one page of a listing.
type ReservationPage struct {
    Items    []Reservation `json:"items"`
    Total    int           `json:"total"`
    Page     int           `json:"page"`
    PageSize int           `json:"page_size"`
}

// CanArrive reports whether Arrive would succeed on the current state.
func (r *Reservation) CanArrive(allowFromPending bool) bool {
    return r.Status == StatusConfirmed || (allowFromPending && r.Status == StatusPending)
}
