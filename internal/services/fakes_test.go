package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/gateway"
	"medspa/internal/realtime"

	"github.com/shopspring/decimal"
)

type memPayments struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]models.Payment
	writes   int
	creates  int
	failNext error
}

func newMemPayments() *memPayments {
	return &memPayments{nextID: 1, rows: map[int64]models.Payment{}}
}

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, r := range m.rows {
		if r.TransactionID == p.TransactionID || (p.IdempotencyKey != "" && r.IdempotencyKey == p.IdempotencyKey) {
			return domain.ConflictError{Resource: "payment", Msg: "duplicate"}
		}
	}
	p.ID = m.nextID
	m.nextID++
	for i := range p.Items {
		p.Items[i].ID = int64(i + 1)
		p.Items[i].PaymentID = p.ID
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	cp.Items = append([]models.PaymentItem(nil), p.Items...)
	m.rows[p.ID] = cp
	m.writes++
	m.creates++
	return nil
}

func (m *memPayments) get(pred func(models.Payment) bool, withItems bool) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if pred(r) {
			if !withItems {
				r.Items = nil
			}
			return r, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (m *memPayments) GetByID(_ context.Context, id int64) (models.Payment, error) {
	return m.get(func(p models.Payment) bool { return p.ID == id }, false)
}

func (m *memPayments) GetWithItems(_ context.Context, id int64) (models.Payment, error) {
	return m.get(func(p models.Payment) bool { return p.ID == id }, true)
}

func (m *memPayments) GetByIdempotencyKey(_ context.Context, key string) (models.Payment, error) {
	return m.get(func(p models.Payment) bool { return key != "" && p.IdempotencyKey == key }, false)
}

func (m *memPayments) GetByTransactionID(_ context.Context, txn string) (models.Payment, error) {
	return m.get(func(p models.Payment) bool { return p.TransactionID == txn }, false)
}

func (m *memPayments) GetByIntentID(_ context.Context, id string) (models.Payment, error) {
	return m.get(func(p models.Payment) bool { return id != "" && p.StripePaymentIntentID == id }, false)
}

func (m *memPayments) List(_ context.Context, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, r := range m.rows {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.PaymentMethod != "" && r.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.ClientID > 0 && r.ClientID != f.ClientID {
			continue
		}
		r.Items = nil
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.PageSize
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *memPayments) UpdateStatus(_ context.Context, id int64, from, to models.PaymentStatus, lastError string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.LastError = lastError
	m.rows[id] = r
	m.writes++
	return true, nil
}

func (m *memPayments) SetIntent(_ context.Context, id int64, intentID, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return domain.NotFoundError{Resource: "payment"}
	}
	if intentID != "" {
		r.StripePaymentIntentID = intentID
	}
	r.LastError = lastError
	m.rows[id] = r
	m.writes++
	return nil
}

func (m *memPayments) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.NotFoundError{Resource: "payment"}
	}
	delete(m.rows, id)
	m.writes++
	return nil
}

// force sets a row's status directly, bypassing the conditional update.
func (m *memPayments) force(id int64, status models.PaymentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	r.Status = status
	m.rows[id] = r
}

type memCatalog struct {
	clients map[int64]models.Client
	items   map[string]models.CatalogItem
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		clients: map[int64]models.Client{3: {ID: 3, FirstName: "Jane", LastName: "Doe"}},
		items: map[string]models.CatalogItem{
			"service:1": {Type: models.ItemService, ID: 1, Name: "Facial", Price: decimal.NewFromInt(150)},
			"service:2": {Type: models.ItemService, ID: 2, Name: "Botox", Price: decimal.NewFromInt(300)},
			"product:9": {Type: models.ItemProduct, ID: 9, Name: "Serum", Price: decimal.RequireFromString("45.50")},
		},
	}
}

func (c *memCatalog) GetClient(_ context.Context, id int64) (models.Client, error) {
	if cl, ok := c.clients[id]; ok {
		return cl, nil
	}
	return models.Client{}, domain.NotFoundError{Resource: "client"}
}

func (c *memCatalog) GetItem(_ context.Context, t models.ItemType, id int64) (models.CatalogItem, error) {
	if it, ok := c.items[fmt.Sprintf("%s:%d", t, id)]; ok {
		return it, nil
	}
	return models.CatalogItem{}, domain.NotFoundError{Resource: string(t)}
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *memAudit) Insert(_ context.Context, l models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, l)
	return nil
}

func (a *memAudit) List(_ context.Context, _ models.AuditFilter, page domain.Pagination) ([]models.AuditLog, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditLog(nil), a.entries...), len(a.entries), nil
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []string{}
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeGateway struct {
	mu         sync.Mutex
	intents    map[string]gateway.Intent
	byKey      map[string]string
	createErr  error
	refundErr  error
	creates    int
	refunds    []gateway.RefundRequest
	lastCreate gateway.IntentRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]gateway.Intent{}, byKey: map[string]string{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req gateway.IntentRequest) (gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCreate = req
	if g.createErr != nil {
		return gateway.Intent{}, g.createErr
	}
	if id, ok := g.byKey[req.IdempotencyKey]; ok {
		return g.intents[id], nil
	}
	g.creates++
	id := fmt.Sprintf("pi_%d", g.creates)
	in := gateway.Intent{
		ID:           id,
		ClientSecret: id + "_secret_x",
		Status:       gateway.IntentRequiresPaymentMethod,
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Metadata:     req.Metadata,
	}
	g.intents[id] = in
	g.byKey[req.IdempotencyKey] = id
	return in, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return gateway.Intent{}, &gateway.Error{Code: "resource_missing", Msg: "No such payment_intent: " + id}
	}
	return in, nil
}

func (g *fakeGateway) Refund(_ context.Context, req gateway.RefundRequest) (gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return gateway.Refund{}, g.refundErr
	}
	g.refunds = append(g.refunds, req)
	return gateway.Refund{ID: "re_1", Status: "succeeded"}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, _ string) (gateway.Event, error) {
	return gateway.Event{Kind: gateway.EventIgnored}, nil
}

func (g *fakeGateway) setStatus(id string, st gateway.IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in := g.intents[id]
	in.Status = st
	g.intents[id] = in
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingPublisher) Publish(e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
