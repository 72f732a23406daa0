package model

import "time"

// OrderOpen is the status of an order created when a party is seated.
const OrderOpen = "OPEN"

// Order is the point-of-sale ticket opened for a seated reservation.
type Order struct {
    ID            uint64    `json:"id"`                       // orders.id
    ReservationID *uint64   `json:"reservation_id,omitempty"` // orders.reservation_id
    Status        string    `json:"status"`                   // orders.status
    CreatedBy     *uint64   `json:"created_by,omitempty"`     // orders.created_by
    CreatedAt     time.Time `json:"created_at"`               // orders.created_at
}

// OrderTable links an order to the tables it is served at.
type OrderTable struct {
    OrderID uint64 // order_tables.order_id
    TableID uint64 // order_tables.table_id
}
