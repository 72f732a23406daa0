package repository

import (
    "context"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

const tableColumns = `id, number, capacity, area, is_active, status`

func (s *Store) ActiveTables(ctx context.Context) ([]model.Table, error) {
    return activeTables(ctx, s.db, false)
}

func (t *Tx) ActiveTables(ctx context.Context) ([]model.Table, error) {
    return activeTables(ctx, t.tx, false)
}

// LockActiveTables reads the active tables FOR UPDATE.  The lock is held
// until the transaction ends.
func (t *Tx) LockActiveTables(ctx context.Context) ([]model.Table, error) {
    return activeTables(ctx, t.tx, true)
}

func activeTables(ctx context.Context, q queryer, lock bool) ([]model.Table, error) {
    query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE is_active = 1 ORDER BY number`
    if lock {
        query += ` FOR UPDATE`
    }
    rows, err := q.QueryContext(ctx, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Table{}
    for rows.Next() {
        var tb model.Table
        var status string
        if err := rows.Scan(&tb.ID, &tb.Number, &tb.Capacity, &tb.Area, &tb.IsActive, &status); err != nil {
            return nil, err
        }
        tb.Status = model.TableStatus(status)
        out = append(out, tb)
    }
    return out, rows.Err()
}

// SetTableStatus updates the floor status of the given tables in one
// statement.  An empty slice has no effect.
func (t *Tx) SetTableStatus(ctx context.Context, tableIDs []uint64, status model.TableStatus) error {
    if len(tableIDs) == 0 {
        return nil
    }
    args := make([]any, 0, len(tableIDs)+1)
    args = append(args, string(status))
    for _, id := range tableIDs {
        args = append(args, id)
    }
    _, err := t.tx.ExecContext(ctx,
        `UPDATE restaurant_tables SET status = ? WHERE id IN (`+placeholders(len(tableIDs))+`)`, args...)
    return err
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
