package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// queryer is the part of *sql.DB and *sql.Tx the queries need, so every
// read works both inside and outside a transaction.
type queryer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements service.Store on a MySQL connection pool.
type Store struct {
    db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn at READ COMMITTED: the table locks taken by creates serialize
// writers, so stronger isolation only adds gap-lock deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
    sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = sqlTx.Rollback()
        }
    }()
    if err := fn(&Tx{tx: sqlTx}); err != nil {
        return err
    }
    if err := sqlTx.Commit(); err != nil {
        return fmt.Errorf("commit tx: %w", err)
    }
    committed = true
    return nil
}

// Tx implements service.Tx on one *sql.Tx.
type Tx struct {
    tx *sql.Tx
}

var (
    _ service.Store = (*Store)(nil)
    _ service.Tx    = (*Tx)(nil)
)
