package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
)

// memState is the whole database of the in-memory store.
type memState struct {
	tables       map[uint64]model.Table
	customers    map[uint64]model.Customer
	reservations map[uint64]model.Reservation
	orders       map[uint64]model.Order
	orderTables  []model.OrderTable
	nextID       uint64
}

func newMemState() *memState {
	return &memState{
		tables:       map[uint64]model.Table{},
		customers:    map[uint64]model.Customer{},
		reservations: map[uint64]model.Reservation{},
		orders:       map[uint64]model.Order{},
		nextID:       1000,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.reservations {
		v.TableIDs = append([]uint64(nil), v.TableIDs...)
		c.reservations[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.orderTables = append([]model.OrderTable(nil), s.orderTables...)
	c.nextID = s.nextID
	return c
}

func (s *memState) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memState) view(r model.Reservation) model.Reservation {
	r.TableIDs = append([]uint64(nil), r.TableIDs...)
	r.Customer = nil
	if r.CustomerID != nil {
		if c, ok := s.customers[*r.CustomerID]; ok {
			r.Customer = &c
		}
	}
	return r
}

func (s *memState) activeTables() []model.Table {
	out := []model.Table{}
	for _, t := range s.tables {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *memState) bookedSlots(from, to time.Time) []model.BookedSlot {
	out := []model.BookedSlot{}
	for _, r := range s.sorted() {
		if r.Status.Blocking() && r.ReservationTime.After(from) && r.ReservationTime.Before(to) {
			out = append(out, model.BookedSlot{
				ReservationID:   r.ID,
				ReservationTime: r.ReservationTime,
				PartySize:       r.PartySize,
				Status:          r.Status,
				TableIDs:        append([]uint64(nil), r.TableIDs...),
			})
		}
	}
	return out
}

func (s *memState) sorted() []model.Reservation {
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, s.view(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservationTime.Equal(out[j].ReservationTime) {
			return out[i].ReservationTime.Before(out[j].ReservationTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memState) reservation(id uint64) (*model.Reservation, error) {
	r, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	v := s.view(r)
	return &v, nil
}

// memStore is an in-memory Store.  InTx holds one global lock for the
// whole unit of work and commits a private copy on success, which gives
// serializable transactions.
type memStore struct {
	mu sync.Mutex
	st *memState

	failInsert error
	failUpdate error
	failList   error

	// afterReminderList runs right after ReminderCandidates has taken its
	// snapshot, to stage a concurrent change.
	afterReminderList func(st *memState)
	markCalls  int
}

func newMemStore() *memStore { return &memStore{st: newMemState()} }

func (m *memStore) addTable(number, capacity int, area string) model.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := model.Table{ID: uint64(number), Number: number, Capacity: capacity, Area: area, IsActive: true, Status: model.TableAvailable}
	m.st.tables[t.ID] = t
	return t
}

func (m *memStore) addCustomer(name, phone string, email *string) model.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Customer{ID: m.st.id(), Name: name, Phone: model.NormalizePhone(phone), Email: email}
	m.st.customers[c.ID] = c
	return c
}

// seed stores r as-is, bypassing the service rules.
func (m *memStore) seed(r model.Reservation) model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = m.st.id()
	}
	if r.Number == "" {
		r.Number = fmt.Sprintf("SEED-%d", r.ID)
	}
	m.st.reservations[r.ID] = r
	return r
}

func (m *memStore) get(id uint64) model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.view(m.st.reservations[id])
}

func (m *memStore) table(id uint64) model.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.tables[id]
}

func (m *memStore) all() []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.sorted()
}

func (m *memStore) ordersFor(reservationID uint64) ([]model.Order, []model.OrderTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	var links []model.OrderTable
	for _, o := range m.st.orders {
		if o.ReservationID != nil && *o.ReservationID == reservationID {
			orders = append(orders, o)
			for _, ot := range m.st.orderTables {
				if ot.OrderID == o.ID {
					links = append(links, ot)
				}
			}
		}
	}
	return orders, links
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(&memTx{st: work, store: m}); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *memStore) ActiveTables(ctx context.Context) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.activeTables(), nil
}

func (m *memStore) BookedSlots(ctx context.Context, from, to time.Time) ([]model.BookedSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.bookedSlots(from, to), nil
}

func (m *memStore) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.reservation(id)
}

func (m *memStore) ReservationByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.st.reservations {
		if r.Number == number {
			v := m.st.view(r)
			return &v, nil
		}
	}
	return nil, fmt.Errorf("reservation %s: %w", number, ErrNotFound)
}

func (m *memStore) ListReservations(ctx context.Context, f model.ReservationFilter) (model.ReservationPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return model.ReservationPage{}, m.failList
	}
	var match []model.Reservation
	for _, r := range m.st.sorted() {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.From != nil && r.ReservationTime.Before(*f.From) {
			continue
		}
		if f.To != nil && !r.ReservationTime.Before(*f.To) {
			continue
		}
		if f.Phone != "" && (r.Customer == nil || r.Customer.Phone != f.Phone) {
			continue
		}
		if f.Area != "" && (r.PreferredArea == nil || *r.PreferredArea != f.Area) {
			continue
		}
		match = append(match, r)
	}
	page := model.ReservationPage{Items: []model.Reservation{}, Total: len(match), Page: f.Page, PageSize: f.PageSize}
	start := (f.Page - 1) * f.PageSize
	if start < len(match) {
		end := start + f.PageSize
		if end > len(match) {
			end = len(match)
		}
		page.Items = match[start:end]
	}
	return page, nil
}

func (m *memStore) ReservationsByPhone(ctx context.Context, phone string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.st.sorted() {
		if r.Customer != nil && r.Customer.Phone == phone {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ReservationsBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.st.sorted() {
		if !r.ReservationTime.Before(from) && r.ReservationTime.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) OverdueReservationIDs(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var ids []uint64
	for _, r := range m.st.sorted() {
		if r.Cancellable() && r.ReservationTime.Before(cutoff) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *memStore) ReminderCandidates(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.st.sorted() {
		if r.Status == model.StatusConfirmed && r.ReminderSentAt == nil &&
			r.ReservationTime.After(from) && !r.ReservationTime.After(to) {
			out = append(out, r)
		}
	}
	if m.afterReminderList != nil {
		m.afterReminderList(m.st)
	}
	return out, nil
}

func (m *memStore) MarkReminderSent(ctx context.Context, id uint64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	r, ok := m.st.reservations[id]
	if !ok || r.ReminderSentAt != nil || r.Status != model.StatusConfirmed {
		return false, nil
	}
	r.ReminderSentAt = &at
	m.st.reservations[id] = r
	return true, nil
}

type memTx struct {
	st    *memState
	store *memStore
}

func (t *memTx) ActiveTables(ctx context.Context) ([]model.Table, error) {
	return t.st.activeTables(), nil
}

func (t *memTx) BookedSlots(ctx context.Context, from, to time.Time) ([]model.BookedSlot, error) {
	return t.st.bookedSlots(from, to), nil
}

func (t *memTx) LockActiveTables(ctx context.Context) ([]model.Table, error) {
	return t.st.activeTables(), nil
}

func (t *memTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.st.reservation(id)
}

func (t *memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	if t.store.failInsert != nil {
		err := t.store.failInsert
		t.store.failInsert = nil
		return err
	}
	for _, existing := range t.st.reservations {
		if existing.Number == r.Number {
			return ErrDuplicateNumber
		}
	}
	r.ID = t.st.id()
	stored := *r
	stored.Customer = nil
	stored.TableIDs = append([]uint64(nil), r.TableIDs...)
	t.st.reservations[r.ID] = stored
	return nil
}

func (t *memTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
	if t.store.failUpdate != nil {
		return t.store.failUpdate
	}
	cur, ok := t.st.reservations[r.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != r.Version {
		return ErrConcurrentUpdate
	}
	r.Version++
	stored := *r
	stored.Customer = nil
	t.st.reservations[r.ID] = stored
	return nil
}

func (t *memTx) UpsertCustomer(ctx context.Context, c *model.Customer) error {
	for _, existing := range t.st.customers {
		if existing.Phone == c.Phone {
			if c.Name != "" {
				existing.Name = c.Name
			}
			if c.Email != nil {
				existing.Email = c.Email
			}
			t.st.customers[existing.ID] = existing
			*c = existing
			return nil
		}
	}
	c.ID = t.st.id()
	t.st.customers[c.ID] = *c
	return nil
}

func (t *memTx) CreateOrder(ctx context.Context, r *model.Reservation, createdBy *uint64) (uint64, error) {
	rid := r.ID
	o := model.Order{ID: t.st.id(), ReservationID: &rid, Status: model.OrderOpen, CreatedBy: createdBy}
	t.st.orders[o.ID] = o
	for _, tid := range r.TableIDs {
		t.st.orderTables = append(t.st.orderTables, model.OrderTable{OrderID: o.ID, TableID: tid})
	}
	return o.ID, nil
}

func (t *memTx) SetTableStatus(ctx context.Context, ids []uint64, status model.TableStatus) error {
	for _, id := range ids {
		tb, ok := t.st.tables[id]
		if !ok {
			return fmt.Errorf("table %d: %w", id, ErrNotFound)
		}
		tb.Status = status
		t.st.tables[id] = tb
	}
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *fakeEvents) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakeEvents) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fakeCodes struct{}

func (fakeCodes) PNG(content string, size int) ([]byte, error) {
	return []byte("PNG:" + content), nil
}

func strPtr(s string) *string { return &s }
