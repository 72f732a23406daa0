// Package repository implements the reservation store on MySQL.  Driver
// errors are translated into the service sentinels so callers match them
// with errors.Is.
package repository

import (
    "database/sql"
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// MySQL server error numbers we react to.
const (
    errDupEntry = 1062
)

func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == errDupEntry
}

// notFound wraps sql.ErrNoRows as service.ErrNotFound.
func notFound(err error, what string) error {
    if errors.Is(err, sql.ErrNoRows) {
        return fmt.Errorf("%s: %w", what, service.ErrNotFound)
    }
    return err
}
