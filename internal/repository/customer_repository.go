package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// UpsertCustomer inserts the guest or, when the phone is already known,
// refreshes a non-empty name and email.  LAST_INSERT_ID(id) makes the
// existing id come back through LastInsertId.
func (t *Tx) UpsertCustomer(ctx context.Context, c *model.Customer) error {
    if c.CreatedAt.IsZero() {
        c.CreatedAt = time.Now().UTC()
    }
    const q = `INSERT INTO customers (name, phone, email, created_at) VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            id = LAST_INSERT_ID(id),
            name = IF(VALUES(name) <> '', VALUES(name), name),
            email = COALESCE(VALUES(email), email)`
    res, err := t.tx.ExecContext(ctx, q, c.Name, c.Phone, nullStr(c.Email), c.CreatedAt.UTC())
    if err != nil {
        return fmt.Errorf("upsert customer: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    const sel = `SELECT id, name, phone, email, created_at FROM customers WHERE id = ?`
    var email sql.NullString
    if err := t.tx.QueryRowContext(ctx, sel, id).Scan(&c.ID, &c.Name, &c.Phone, &email, &c.CreatedAt); err != nil {
        return notFound(err, "customer")
    }
    c.Email = strPtr(email)
    return nil
}
