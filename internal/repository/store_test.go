package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewStore(db), mock
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var (
    lunch  = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
    supper = time.Date(2026, 10, 14, 19, 0, 0, 0, time.UTC)
)

func TestInTxCommits(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectCommit()

    err := store.InTx(context.Background(), func(tx service.Tx) error { return nil })
    require.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackWhenFnFails(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectRollback()

    boom := errors.New("boom")
    err := store.InTx(context.Background(), func(tx service.Tx) error { return boom })
    assert.ErrorIs(t, err, boom)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxReportsCommitFailure(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

    err := store.InTx(context.Background(), func(tx service.Tx) error { return nil })
    require.Error(t, err)
    assert.Contains(t, err.Error(), "commit tx")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxBeginFailure(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

    called := false
    err := store.InTx(context.Background(), func(tx service.Tx) error { called = true; return nil })
    require.Error(t, err)
    assert.False(t, called)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationVersionMismatch(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec(`(?s)UPDATE reservations SET\s.*WHERE id = \? AND version = \?`).
        WithArgs("CANCELLED", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
            sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7), int64(3)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    r := &model.Reservation{ID: 7, Status: model.StatusCancelled, Version: 3, UpdatedAt: lunch}
    err := store.InTx(context.Background(), func(tx service.Tx) error {
        return tx.UpdateReservation(context.Background(), r)
    })
    assert.ErrorIs(t, err, service.ErrConcurrentUpdate)
    assert.Equal(t, uint32(3), r.Version)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationBumpsVersion(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec(`(?s)UPDATE reservations SET\s.*version = version \+ 1`).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    r := &model.Reservation{ID: 7, Status: model.StatusConfirmed, Version: 3, UpdatedAt: lunch}
    err := store.InTx(context.Background(), func(tx service.Tx) error {
        return tx.UpdateReservation(context.Background(), r)
    })
    require.NoError(t, err)
    assert.Equal(t, uint32(4), r.Version)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReservationDuplicateNumber(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec(`INSERT INTO reservations`).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'RSV-1' for key 'reservation_number'"})
    mock.ExpectRollback()

    r := model.NewReservation("RSV-1", 2, supper, []uint64{1}, nil, lunch)
    err := store.InTx(context.Background(), func(tx service.Tx) error {
        return tx.InsertReservation(context.Background(), r)
    })
    assert.ErrorIs(t, err, service.ErrDuplicateNumber)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCustomerReturnsExistingID(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec(`(?s)INSERT INTO customers .*ON DUPLICATE KEY UPDATE\s+id = LAST_INSERT_ID\(id\)`).
        WithArgs("Ada", "+4917000", nil, sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(7, 2))
    mock.ExpectQuery(`SELECT id, name, phone, email, created_at FROM customers WHERE id = \?`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "email", "created_at"}).
            AddRow(7, "Ada", "+4917000", nil, lunch))
    mock.ExpectCommit()

    c := &model.Customer{Name: "Ada", Phone: "+4917000"}
    err := store.InTx(context.Background(), func(tx service.Tx) error {
        return tx.UpsertCustomer(context.Background(), c)
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(7), c.ID)
    assert.Nil(t, c.Email)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSentRequiresConfirmed(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectExec(`(?s)UPDATE reservations SET reminder_sent_at = \?\s+WHERE id = \? AND status = 'CONFIRMED' AND reminder_sent_at IS NULL`).
        WithArgs(sqlmock.AnyArg(), int64(9)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    marked, err := store.MarkReminderSent(context.Background(), 9, lunch)
    require.NoError(t, err)
    assert.False(t, marked)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Create must lock the floor plan before it reads conflicts or inserts,
// and do all of it in one transaction.
func TestCreateLocksTablesBeforeInsert(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, number, capacity, area, is_active, status FROM restaurant_tables WHERE is_active = 1 ORDER BY number FOR UPDATE`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "number", "capacity", "area", "is_active", "status"}).
            AddRow(1, 1, 4, "main", true, "AVAILABLE"))
    mock.ExpectQuery(`FROM reservations r\s+LEFT JOIN reservation_tables rt`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_time", "party_size", "status", "table_id"}))
    mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec(`INSERT INTO reservation_tables`).
        WithArgs(int64(42), int64(1), int64(0)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    p := service.DefaultPolicy()
    p.MaxOccupancyPercent = 100
    svc := service.New(store, p,
        service.WithClock(fixedClock(lunch)),
        service.WithNumberGenerator(func(time.Time) string { return "RSV-261014-TEST01" }))

    r, err := svc.Create(context.Background(), service.CreateRequest{PartySize: 2, ReservationTime: supper})
    require.NoError(t, err)
    assert.Equal(t, uint64(42), r.ID)
    assert.Equal(t, []uint64{1}, r.TableIDs)
    assert.Equal(t, model.StatusPending, r.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackOnConflict(t *testing.T) {
    store, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectQuery(`FROM restaurant_tables WHERE is_active = 1 ORDER BY number FOR UPDATE`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "number", "capacity", "area", "is_active", "status"}).
            AddRow(1, 1, 4, "main", true, "AVAILABLE"))
    mock.ExpectQuery(`FROM reservations r\s+LEFT JOIN reservation_tables rt`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_time", "party_size", "status", "table_id"}).
            AddRow(5, supper.Add(30*time.Minute), 2, "CONFIRMED", 1))
    mock.ExpectRollback()

    p := service.DefaultPolicy()
    p.MaxOccupancyPercent = 100
    svc := service.New(store, p, service.WithClock(fixedClock(lunch)))

    _, err := svc.Create(context.Background(), service.CreateRequest{PartySize: 2, ReservationTime: supper})
    assert.ErrorIs(t, err, service.ErrNoTableAvailable)
    assert.NoError(t, mock.ExpectationsWereMet())
}
