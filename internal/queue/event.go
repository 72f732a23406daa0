// Package queue defines reservation event payloads and the broker clients
// that carry them.
package queue

import "time"

// Event types, also used as RabbitMQ routing keys and Kafka message keys
// prefixes.
const (
    EventReservationCreated   = "reservation.created"
    EventReservationConfirmed = "reservation.confirmed"
    EventReservationArrived   = "reservation.arrived"
    EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after every committed lifecycle transition.
// It carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type ReservationEvent struct {
    ID              string    `json:"id"`
    Type            string    `json:"type"`
    ReservationID   uint64    `json:"reservation_id"`
    Number          string    `json:"reservation_number"`
    Status          string    `json:"status"`
    PartySize       int       `json:"party_size"`
    ReservationTime time.Time `json:"reservation_time"`
    TableIDs        []uint64  `json:"table_ids"`
    CustomerID      *uint64   `json:"customer_id,omitempty"`
    OrderID         *uint64   `json:"order_id,omitempty"`
    Reason          string    `json:"reason,omitempty"`
    OccurredAt      time.Time `json:"occurred_at"`
}
