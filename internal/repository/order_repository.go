package repository

import (
    "context"
    "fmt"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// CreateOrder opens a POS order for a seated reservation, served at every
// table the reservation holds.
func (t *Tx) CreateOrder(ctx context.Context, r *model.Reservation, createdBy *uint64) (uint64, error) {
    res, err := t.tx.ExecContext(ctx,
        `INSERT INTO orders (reservation_id, status, created_by, created_at) VALUES (?, ?, ?, UTC_TIMESTAMP())`,
        r.ID, model.OrderOpen, nullU64(createdBy))
    if err != nil {
        return 0, fmt.Errorf("insert order: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    orderID := uint64(id)
    if len(r.TableIDs) == 0 {
        return orderID, nil
    }
    query := `INSERT INTO order_tables (order_id, table_id) VALUES `
    args := make([]any, 0, len(r.TableIDs)*2)
    for i, tid := range r.TableIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, orderID, tid)
    }
    if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
        return 0, fmt.Errorf("insert order tables: %w", err)
    }
    return orderID, nil
}
