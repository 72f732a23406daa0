package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// reservationSelect joins the guest so a single row carries everything but
// the table links, which loadTableIDs fills in afterwards.
const reservationSelect = `SELECT r.id, r.reservation_number, r.customer_id, r.party_size, r.reservation_time,
    r.status, r.notes, r.preferred_area, r.cancel_reason, r.cancelled_at, r.confirmed_at, r.arrived_at,
    r.reminder_sent_at, r.order_id, r.created_by, r.created_at, r.updated_at, r.version,
    c.id, c.name, c.phone, c.email, c.created_at
FROM reservations r
LEFT JOIN customers c ON c.id = r.customer_id`

const blockingStatuses = `('PENDING','CONFIRMED','ARRIVED')`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReservation(sc rowScanner) (*model.Reservation, error) {
    var (
        r                                        model.Reservation
        status                                   string
        customerID, orderID, createdBy           sql.NullInt64
        notes, area, reason                      sql.NullString
        cancelledAt, confirmedAt, arrivedAt, rem sql.NullTime
        cID                                      sql.NullInt64
        cName, cPhone, cEmail                    sql.NullString
        cCreated                                 sql.NullTime
    )
    err := sc.Scan(&r.ID, &r.Number, &customerID, &r.PartySize, &r.ReservationTime,
        &status, &notes, &area, &reason, &cancelledAt, &confirmedAt, &arrivedAt,
        &rem, &orderID, &createdBy, &r.CreatedAt, &r.UpdatedAt, &r.Version,
        &cID, &cName, &cPhone, &cEmail, &cCreated)
    if err != nil {
        return nil, err
    }
    r.Status = model.ReservationStatus(status)
    r.ReservationTime = r.ReservationTime.UTC()
    r.CustomerID = u64Ptr(customerID)
    r.OrderID = u64Ptr(orderID)
    r.CreatedBy = u64Ptr(createdBy)
    r.Notes = strPtr(notes)
    r.PreferredArea = strPtr(area)
    r.CancelReason = strPtr(reason)
    r.CancelledAt = timePtr(cancelledAt)
    r.ConfirmedAt = timePtr(confirmedAt)
    r.ArrivedAt = timePtr(arrivedAt)
    r.ReminderSentAt = timePtr(rem)
    r.TableIDs = []uint64{}
    if cID.Valid {
        r.Customer = &model.Customer{
            ID:    uint64(cID.Int64),
            Name:  cName.String,
            Phone: cPhone.String,
            Email: strPtr(cEmail),
        }
        if cCreated.Valid {
            r.Customer.CreatedAt = cCreated.Time.UTC()
        }
    }
    return &r, nil
}

// queryReservations runs a reservationSelect query and attaches table ids.
func queryReservations(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    out := []model.Reservation{}
    for rows.Next() {
        r, err := scanReservation(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        out = append(out, *r)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if err := attachTables(ctx, q, out); err != nil {
        return nil, err
    }
    return out, nil
}

func queryReservation(ctx context.Context, q queryer, query string, args ...any) (*model.Reservation, error) {
    r, err := scanReservation(q.QueryRowContext(ctx, query, args...))
    if err != nil {
        return nil, notFound(err, "reservation")
    }
    one := []model.Reservation{*r}
    if err := attachTables(ctx, q, one); err != nil {
        return nil, err
    }
    return &one[0], nil
}

func attachTables(ctx context.Context, q queryer, rs []model.Reservation) error {
    if len(rs) == 0 {
        return nil
    }
    ids := make([]uint64, len(rs))
    for i := range rs {
        ids[i] = rs[i].ID
    }
    byRes, err := loadTableIDs(ctx, q, ids)
    if err != nil {
        return err
    }
    for i := range rs {
        if t, ok := byRes[rs[i].ID]; ok {
            rs[i].TableIDs = t
        }
    }
    return nil
}

// loadTableIDs returns the table ids of each reservation in sort order.
func loadTableIDs(ctx context.Context, q queryer, reservationIDs []uint64) (map[uint64][]uint64, error) {
    args := make([]any, len(reservationIDs))
    for i, id := range reservationIDs {
        args[i] = id
    }
    rows, err := q.QueryContext(ctx,
        `SELECT reservation_id, table_id FROM reservation_tables
         WHERE reservation_id IN (`+placeholders(len(args))+`)
         ORDER BY reservation_id, sort_order, table_id`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64][]uint64, len(reservationIDs))
    for rows.Next() {
        var rid, tid uint64
        if err := rows.Scan(&rid, &tid); err != nil {
            return nil, err
        }
        out[rid] = append(out[rid], tid)
    }
    return out, rows.Err()
}

func (s *Store) BookedSlots(ctx context.Context, from, to time.Time) ([]model.BookedSlot, error) {
    return bookedSlots(ctx, s.db, from, to)
}

func (t *Tx) BookedSlots(ctx context.Context, from, to time.Time) ([]model.BookedSlot, error) {
    return bookedSlots(ctx, t.tx, from, to)
}

type slotRow struct {
    id        uint64
    at        time.Time
    partySize int
    status    string
    tableID   sql.NullInt64
}

func bookedSlots(ctx context.Context, q queryer, from, to time.Time) ([]model.BookedSlot, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT r.id, r.reservation_time, r.party_size, r.status, rt.table_id
         FROM reservations r
         LEFT JOIN reservation_tables rt ON rt.reservation_id = r.id
         WHERE r.status IN `+blockingStatuses+`
           AND r.reservation_time > ? AND r.reservation_time < ?
         ORDER BY r.reservation_time, r.id, rt.sort_order`, from.UTC(), to.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var raw []slotRow
    for rows.Next() {
        var sr slotRow
        if err := rows.Scan(&sr.id, &sr.at, &sr.partySize, &sr.status, &sr.tableID); err != nil {
            return nil, err
        }
        raw = append(raw, sr)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return groupSlots(raw), nil
}

// groupSlots folds the one-row-per-table join back into one slot per
// reservation.  Rows arrive ordered by reservation.
func groupSlots(raw []slotRow) []model.BookedSlot {
    out := []model.BookedSlot{}
    for _, sr := range raw {
        if n := len(out); n == 0 || out[n-1].ReservationID != sr.id {
            out = append(out, model.BookedSlot{
                ReservationID:   sr.id,
                ReservationTime: sr.at.UTC(),
                PartySize:       sr.partySize,
                Status:          model.ReservationStatus(sr.status),
                TableIDs:        []uint64{},
            })
        }
        if sr.tableID.Valid {
            last := &out[len(out)-1]
            last.TableIDs = append(last.TableIDs, uint64(sr.tableID.Int64))
        }
    }
    return out
}

// LockReservation loads the reservation FOR UPDATE.
func (t *Tx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    return queryReservation(ctx, t.tx, reservationSelect+` WHERE r.id = ? FOR UPDATE`, id)
}

// InsertReservation stores the reservation and its table links.
func (t *Tx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    const q = `INSERT INTO reservations
        (reservation_number, customer_id, party_size, reservation_time, status, notes, preferred_area,
         created_by, created_at, updated_at, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := t.tx.ExecContext(ctx, q,
        r.Number, nullU64(r.CustomerID), r.PartySize, r.ReservationTime.UTC(), string(r.Status),
        nullStr(r.Notes), nullStr(r.PreferredArea), nullU64(r.CreatedBy),
        r.CreatedAt.UTC(), r.UpdatedAt.UTC(), r.Version)
    if err != nil {
        if isDuplicateKey(err) {
            return fmt.Errorf("reservation %s: %w", r.Number, service.ErrDuplicateNumber)
        }
        return fmt.Errorf("insert reservation: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    r.ID = uint64(id)
    if len(r.TableIDs) == 0 {
        return nil
    }
    query := `INSERT INTO reservation_tables (reservation_id, table_id, sort_order) VALUES `
    args := make([]any, 0, len(r.TableIDs)*3)
    for i, tid := range r.TableIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, r.ID, tid, i)
    }
    if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
        return fmt.Errorf("insert reservation tables: %w", err)
    }
    return nil
}

// UpdateReservation writes the lifecycle columns guarded by the version.
func (t *Tx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    const q = `UPDATE reservations SET
            status = ?, notes = ?, cancel_reason = ?, cancelled_at = ?, confirmed_at = ?, arrived_at = ?,
            reminder_sent_at = ?, order_id = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`
    res, err := t.tx.ExecContext(ctx, q,
        string(r.Status), nullStr(r.Notes), nullStr(r.CancelReason), nullTime(r.CancelledAt),
        nullTime(r.ConfirmedAt), nullTime(r.ArrivedAt), nullTime(r.ReminderSentAt), nullU64(r.OrderID),
        r.UpdatedAt.UTC(), r.ID, r.Version)
    if err != nil {
        return fmt.Errorf("update reservation: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("reservation %d: %w", r.ID, service.ErrConcurrentUpdate)
    }
    r.Version++
    return nil
}

func (s *Store) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    return queryReservation(ctx, s.db, reservationSelect+` WHERE r.id = ?`, id)
}

func (s *Store) ReservationByNumber(ctx context.Context, number string) (*model.Reservation, error) {
    return queryReservation(ctx, s.db, reservationSelect+` WHERE r.reservation_number = ?`, number)
}

// filterClause turns a listing filter into a WHERE clause and its args.
func filterClause(f model.ReservationFilter) (string, []any) {
    var conds []string
    var args []any
    if f.Status != "" {
        conds = append(conds, "r.status = ?")
        args = append(args, string(f.Status))
    }
    if f.From != nil {
        conds = append(conds, "r.reservation_time >= ?")
        args = append(args, f.From.UTC())
    }
    if f.To != nil {
        conds = append(conds, "r.reservation_time < ?")
        args = append(args, f.To.UTC())
    }
    if f.Phone != "" {
        conds = append(conds, "c.phone = ?")
        args = append(args, f.Phone)
    }
    if f.Area != "" {
        conds = append(conds, "r.preferred_area = ?")
        args = append(args, f.Area)
    }
    if len(conds) == 0 {
        return "", nil
    }
    return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListReservations(ctx context.Context, f model.ReservationFilter) (model.ReservationPage, error) {
    where, args := filterClause(f)
    page := model.ReservationPage{Items: []model.Reservation{}, Page: f.Page, PageSize: f.PageSize}
    err := s.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM reservations r LEFT JOIN customers c ON c.id = r.customer_id`+where, args...).
        Scan(&page.Total)
    if err != nil {
        return page, fmt.Errorf("count reservations: %w", err)
    }
    if page.Total == 0 {
        return page, nil
    }
    offset := (f.Page - 1) * f.PageSize
    if offset < 0 {
        offset = 0
    }
    items, err := queryReservations(ctx, s.db,
        reservationSelect+where+` ORDER BY r.reservation_time, r.id LIMIT ? OFFSET ?`,
        append(args, f.PageSize, offset)...)
    if err != nil {
        return page, fmt.Errorf("list reservations: %w", err)
    }
    page.Items = items
    return page, nil
}

func (s *Store) ReservationsByPhone(ctx context.Context, phone string) ([]model.Reservation, error) {
    return queryReservations(ctx, s.db,
        reservationSelect+` WHERE c.phone = ? ORDER BY r.reservation_time, r.id`, phone)
}

func (s *Store) ReservationsBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
    return queryReservations(ctx, s.db,
        reservationSelect+` WHERE r.reservation_time >= ? AND r.reservation_time < ? ORDER BY r.reservation_time, r.id`,
        from.UTC(), to.UTC())
}

func (s *Store) OverdueReservationIDs(ctx context.Context, cutoff time.Time) ([]uint64, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT id FROM reservations
         WHERE status IN ('PENDING','CONFIRMED') AND reservation_time < ?
         ORDER BY reservation_time, id`, cutoff.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    ids := []uint64{}
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

func (s *Store) ReminderCandidates(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
    return queryReservations(ctx, s.db,
        reservationSelect+` WHERE r.status = 'CONFIRMED' AND r.reminder_sent_at IS NULL
           AND r.reservation_time > ? AND r.reservation_time <= ?
         ORDER BY r.reservation_time, r.id`, from.UTC(), to.UTC())
}

// MarkReminderSent stamps the reminder once, and only while the booking is
// still CONFIRMED; otherwise it changes nothing.
func (s *Store) MarkReminderSent(ctx context.Context, id uint64, at time.Time) (bool, error) {
    res, err := s.db.ExecContext(ctx,
        `UPDATE reservations SET reminder_sent_at = ?
         WHERE id = ? AND status = 'CONFIRMED' AND reminder_sent_at IS NULL`, at.UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
