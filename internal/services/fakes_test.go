package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/shopspring/decimal"
)

// memDB backs the in-memory repositories used by the service tests.
type memDB struct {
	mu        sync.Mutex
	nextID    uint
	orders    map[uint]*models.Order
	payments  []models.Payment
	expenses  []models.Expense
	customers map[uint]*models.Customer
	calls     map[string]int
	createErr []error
}

func newMemDB() *memDB {
	return &memDB{
		orders:    map[uint]*models.Order{},
		customers: map[uint]*models.Customer{},
		calls:     map[string]int{},
	}
}

func (db *memDB) id() uint {
	db.nextID++
	return db.nextID
}

func (db *memDB) recompute(userID uint, customerID *uint) {
	if customerID == nil {
		return
	}
	c, ok := db.customers[*customerID]
	if !ok || c.UserID != userID {
		return
	}
	c.TotalOrders = 0
	c.TotalSpent = decimal.Zero
	c.FirstOrderDate, c.LastOrderDate = nil, nil
	for _, o := range db.orders {
		if o.CustomerID == nil || *o.CustomerID != *customerID || o.Status == models.StatusCancelled {
			continue
		}
		c.TotalOrders++
		c.TotalSpent = c.TotalSpent.Add(o.Total)
		d := o.OrderDate
		if c.FirstOrderDate == nil || d.Before(*c.FirstOrderDate) {
			c.FirstOrderDate = &d
		}
		if c.LastOrderDate == nil || d.After(*c.LastOrderDate) {
			c.LastOrderDate = &d
		}
	}
}

func (db *memDB) paymentsOf(orderID uint) []models.Payment {
	var out []models.Payment
	for _, p := range db.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.Payments = append([]models.Payment(nil), o.Payments...)
	return &c
}

type fakeOrderRepo struct{ db *memDB }

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

func (r *fakeOrderRepo) CreateWithItems(ctx context.Context, order *models.Order, initial *models.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.calls["create"]++
	if len(r.db.createErr) > 0 {
		err := r.db.createErr[0]
		r.db.createErr = r.db.createErr[1:]
		return err
	}
	order.ID = r.db.id()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = r.db.id()
		order.Items[i].OrderID = order.ID
	}
	if initial != nil {
		initial.ID = r.db.id()
		initial.OrderID = order.ID
		r.db.payments = append(r.db.payments, *initial)
	}
	stored := cloneOrder(order)
	stored.Payments = nil
	r.db.orders[order.ID] = stored
	r.db.recompute(order.UserID, order.CustomerID)
	return nil
}

func (r *fakeOrderRepo) UpdateWithItems(ctx context.Context, order *models.Order, check repository.PaymentCheck) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, ok := r.db.orders[order.ID]
	if !ok || prev.UserID != order.UserID {
		return repository.ErrNotFound
	}
	if check != nil {
		paid := decimal.Zero
		for _, x := range r.db.paymentsOf(order.ID) {
			if x.Amount.IsPositive() {
				paid = paid.Add(x.Amount)
			}
		}
		if err := check(cloneOrder(order), paid); err != nil {
			return err
		}
	}
	prevCustomer := prev.CustomerID
	stored := cloneOrder(order)
	stored.CreatedAt = prev.CreatedAt
	stored.Payments = nil
	r.db.orders[order.ID] = stored
	r.db.recompute(order.UserID, order.CustomerID)
	r.db.recompute(order.UserID, prevCustomer)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, userID, id uint) (*models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok || o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := cloneOrder(o)
	c.Payments = r.db.paymentsOf(id)
	return c, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, userID uint, f models.OrderFilter) ([]models.Order, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.calls["list"]++
	var out []models.Order
	for _, o := range r.db.orders {
		if o.UserID != userID || (f.Status != "" && o.Status != f.Status) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(o.CustomerName+o.OrderNumber), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := f.Page * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, userID, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok || o.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.db.orders, id)
	kept := r.db.payments[:0]
	for _, p := range r.db.payments {
		if p.OrderID != id {
			kept = append(kept, p)
		}
	}
	r.db.payments = kept
	r.db.recompute(userID, o.CustomerID)
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, userID, id uint, status models.OrderStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok || o.UserID != userID {
		return repository.ErrNotFound
	}
	o.Status = status
	r.db.recompute(userID, o.CustomerID)
	return nil
}

func (r *fakeOrderRepo) UpdateDeliveryDate(ctx context.Context, userID, id uint, date time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok || o.UserID != userID {
		return repository.ErrNotFound
	}
	o.DeliveryDate = &date
	return nil
}

func (r *fakeOrderRepo) GetByDeliveryRange(ctx context.Context, userID uint, start, end time.Time, statuses []models.OrderStatus) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Order
	for _, o := range r.db.orders {
		if o.UserID != userID || o.DeliveryDate == nil {
			continue
		}
		if o.DeliveryDate.Before(start) || o.DeliveryDate.After(end) {
			continue
		}
		match := len(statuses) == 0
		for _, s := range statuses {
			match = match || s == o.Status
		}
		if match {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) GetByCreatedRange(ctx context.Context, userID uint, start, end time.Time, withItems bool) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Order
	for _, o := range r.db.orders {
		if o.UserID == userID && !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			c := cloneOrder(o)
			if !withItems {
				c.Items = nil
			}
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetByCustomer(ctx context.Context, userID, customerID uint, limit int) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Order
	for _, o := range r.db.orders {
		if o.UserID == userID && o.CustomerID != nil && *o.CustomerID == customerID {
			c := cloneOrder(o)
			c.Payments = r.db.paymentsOf(o.ID)
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeFinancialRepo struct{ db *memDB }

var _ repository.FinancialRepository = (*fakeFinancialRepo)(nil)

func (r *fakeFinancialRepo) CreatePayment(ctx context.Context, p *models.Payment, check repository.PaymentCheck) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[p.OrderID]
	if !ok || o.UserID != p.UserID {
		return repository.ErrNotFound
	}
	paid := decimal.Zero
	for _, x := range r.db.paymentsOf(o.ID) {
		if x.Amount.IsPositive() {
			paid = paid.Add(x.Amount)
		}
	}
	if check != nil {
		if err := check(cloneOrder(o), paid); err != nil {
			return err
		}
	}
	p.ID = r.db.id()
	p.CreatedAt = time.Now()
	r.db.payments = append(r.db.payments, *p)
	return nil
}

func (r *fakeFinancialRepo) ListPaymentsByOrder(ctx context.Context, userID, orderID uint) ([]models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.paymentsOf(orderID), nil
}

func (r *fakeFinancialRepo) ListPayments(ctx context.Context, userID uint, start, end *time.Time) ([]models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Payment
	for _, p := range r.db.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeFinancialRepo) DeletePayment(ctx context.Context, userID, id uint) (*models.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, p := range r.db.payments {
		if p.ID == id && p.UserID == userID {
			r.db.payments = append(r.db.payments[:i], r.db.payments[i+1:]...)
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeFinancialRepo) CreateExpense(ctx context.Context, e *models.Expense) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if e.OrderID != nil {
		if o, ok := r.db.orders[*e.OrderID]; !ok || o.UserID != e.UserID {
			return repository.ErrNotFound
		}
	}
	e.ID = r.db.id()
	e.CreatedAt = time.Now()
	r.db.expenses = append(r.db.expenses, *e)
	return nil
}

func (r *fakeFinancialRepo) ListExpenses(ctx context.Context, userID uint, start, end *time.Time) ([]models.Expense, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Expense
	for _, e := range r.db.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeFinancialRepo) DeleteExpense(ctx context.Context, userID, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, e := range r.db.expenses {
		if e.ID == id && e.UserID == userID {
			r.db.expenses = append(r.db.expenses[:i], r.db.expenses[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeCustomerRepo struct{ db *memDB }

var _ repository.CustomerRepository = (*fakeCustomerRepo)(nil)

func (r *fakeCustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	c.CreatedAt = time.Now()
	cp := *c
	r.db.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, c *models.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, ok := r.db.customers[c.ID]
	if !ok || prev.UserID != c.UserID {
		return repository.ErrNotFound
	}
	cp := *c
	cp.TotalOrders, cp.TotalSpent = prev.TotalOrders, prev.TotalSpent
	cp.FirstOrderDate, cp.LastOrderDate = prev.FirstOrderDate, prev.LastOrderDate
	r.db.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, userID, id uint) (*models.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) List(ctx context.Context, userID uint, activeOnly bool) ([]models.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Customer
	for _, c := range r.db.customers {
		if c.UserID == userID && (!activeOnly || c.IsActive) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memCache is an in-memory Cache recording invalidated tags.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	tags        map[string][]string
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, tags: map[string][]string{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	for _, t := range tags {
		c.tags[t] = append(c.tags[t], key)
	}
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tags {
		for _, k := range c.tags[t] {
			delete(c.entries, k)
		}
		delete(c.tags, t)
		c.invalidated = append(c.invalidated, t)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) PublishChange(ctx context.Context, ev models.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) entities() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Entity+":"+string(ev.Op))
	}
	return out
}

type memDrafts struct {
	drafts map[uint]*models.OrderDraft
}

func newMemDrafts() *memDrafts { return &memDrafts{drafts: map[uint]*models.OrderDraft{}} }

func (m *memDrafts) SetDraft(ctx context.Context, userID uint, d *models.OrderDraft, ttl time.Duration) error {
	cp := *d
	m.drafts[userID] = &cp
	return nil
}

func (m *memDrafts) GetDraft(ctx context.Context, userID uint) (*models.OrderDraft, error) {
	return m.drafts[userID], nil
}

func (m *memDrafts) DeleteDraft(ctx context.Context, userID uint) error {
	delete(m.drafts, userID)
	return nil
}

type memNotes struct {
	notes map[uint][]models.Note
}

func (m *memNotes) PushNote(ctx context.Context, userID uint, n models.Note) error {
	if m.notes == nil {
		m.notes = map[uint][]models.Note{}
	}
	m.notes[userID] = append([]models.Note{n}, m.notes[userID]...)
	return nil
}

func (m *memNotes) ListNotes(ctx context.Context, userID uint) ([]models.Note, error) {
	return m.notes[userID], nil
}

func (m *memNotes) RemoveNote(ctx context.Context, userID uint, id string) (bool, error) {
	for i, n := range m.notes[userID] {
		if n.ID == id {
			m.notes[userID] = append(m.notes[userID][:i], m.notes[userID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memTokens struct {
	revoked map[string]time.Duration
}

func (m *memTokens) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Duration{}
	}
	m.revoked[id] = ttl
	return nil
}

func (m *memTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

type sentMessage struct {
	phone, text string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendTextMessage(ctx context.Context, phone, text string) error {
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	return f.err
}
