package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/integrations"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/shops"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/tokens"
)

var errBoom = errors.New("boom")

// ---- shops ----

type memShops struct {
	shops    map[string]shops.Shop
	banks    map[string]shops.BankAccount
	emails   map[string]shops.EmailConfig
	payments map[string][]shops.PaymentMethod
	err      error
}

func newMemShops() *memShops {
	return &memShops{
		shops:    map[string]shops.Shop{},
		banks:    map[string]shops.BankAccount{},
		emails:   map[string]shops.EmailConfig{},
		payments: map[string][]shops.PaymentMethod{},
	}
}

func (m *memShops) GetShop(_ context.Context, id string) (*shops.Shop, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.shops[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memShops) GetBankAccount(_ context.Context, id string) (*shops.BankAccount, error) {
	b, ok := m.banks[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memShops) GetEmailConfig(_ context.Context, id string) (*shops.EmailConfig, error) {
	c, ok := m.emails[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memShops) ListActivePaymentMethods(_ context.Context, shopID string) ([]shops.PaymentMethod, error) {
	return m.payments[shopID], nil
}

// ---- tokens ----

type memTokens struct {
	items   map[string]tokens.Token
	creates int
}

func newMemTokens() *memTokens { return &memTokens{items: map[string]tokens.Token{}} }

func (m *memTokens) Create(_ context.Context, t tokens.Token) error {
	m.creates++
	if _, ok := m.items[t.Token]; ok {
		return tokens.ErrTokenExists
	}
	m.items[t.Token] = t
	return nil
}

func (m *memTokens) Get(_ context.Context, token string) (*tokens.Token, error) {
	t, ok := m.items[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ---- idempotency ----

type memIdempotency struct {
	records map[string]idempotency.Record
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: map[string]idempotency.Record{}}
}

func (m *memIdempotency) Get(_ context.Context, scope, key string) (*idempotency.Record, error) {
	r, ok := m.records[idempotency.Key(scope, key)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memIdempotency) NewDoneRecord(scope, key, orderID, body string, status int) idempotency.Record {
	return idempotency.Record{
		IdempotencyKey: idempotency.Key(scope, key),
		Scope:          scope,
		Status:         idempotency.StatusDone,
		OrderID:        orderID,
		ResponseBody:   body,
		ResponseStatus: status,
	}
}

// ---- orders ----

// memOrders mirrors the conditional writes of orders.Store.
type memOrders struct {
	mu         sync.Mutex
	items      map[string]orders.Order
	numbers    map[string]string
	idem       *memIdempotency
	createErr  error
	updateErr  error
	manualErr  error
	released   int
	completed  int
	manualSets int
}

func newMemOrders(idem *memIdempotency) *memOrders {
	return &memOrders{items: map[string]orders.Order{}, numbers: map[string]string{}, idem: idem}
}

func (m *memOrders) Create(_ context.Context, o orders.Order, item any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	var rec *idempotency.Record
	if item != nil {
		r := item.(idempotency.Record)
		if _, ok := m.idem.records[r.IdempotencyKey]; ok {
			return orders.ErrDuplicateRequest
		}
		rec = &r
	}
	if _, ok := m.numbers[o.OrderNumber]; ok {
		return orders.ErrOrderNumberTaken
	}
	if rec != nil {
		m.idem.records[rec.IdempotencyKey] = *rec
	}
	m.numbers[o.OrderNumber] = o.OrderID
	o.UpdatedAt = o.CreatedAt
	m.items[o.OrderID] = o
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memOrders) SetManualDetails(_ context.Context, id string, tmp, bank *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manualSets++
	if m.manualErr != nil {
		return m.manualErr
	}
	o, ok := m.items[id]
	if !ok {
		return orders.ErrNotFound
	}
	if tmp != nil {
		o.TempOrderNumber = *tmp
	}
	if bank != nil {
		o.SelectedBankAccountID = *bank
	}
	m.items[id] = o
	return nil
}

func (m *memOrders) Claim(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.ProcessingClaim != "" || o.Status == orders.StatusInvoiceSent {
		return orders.ErrAlreadyClaimed
	}
	o.ProcessingClaim = owner
	m.items[id] = o
	return nil
}

func (m *memOrders) ReleaseClaim(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.ProcessingClaim != owner {
		return orders.ErrClaimNotHeld
	}
	o.ProcessingClaim = ""
	m.items[id] = o
	m.released++
	return nil
}

func (m *memOrders) CompleteInvoice(_ context.Context, id, expected string, inv orders.InvoiceDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.items[id]
	if !ok || o.Status != expected {
		return orders.ErrStatusMismatch
	}
	o.Status = orders.StatusInvoiceSent
	o.InvoiceSent = true
	o.InvoicePDFGenerated = true
	o.InvoiceNumber = inv.Number
	o.InvoicePDFURL = inv.PDFURL
	m.items[id] = o
	m.completed++
	return nil
}

// ---- collaborators ----

type mockInvoices struct{ mock.Mock }

func (m *mockInvoices) GenerateInvoice(ctx context.Context, orderID string) (orders.InvoiceDetails, error) {
	args := m.Called(ctx, orderID)
	inv, _ := args.Get(0).(orders.InvoiceDetails)
	return inv, args.Error(1)
}

type mockEmails struct{ mock.Mock }

func (m *mockEmails) SendOrderConfirmation(ctx context.Context, mail integrations.ConfirmationEmail) error {
	args := m.Called(ctx, mail)
	return args.Error(0)
}

type recordingPublisher struct {
	events []orders.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, payload any, _ map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, payload.(orders.Event))
	return nil
}

type recordingMetrics struct {
	steps []string
}

func (m *recordingMetrics) Count(_ context.Context, _ string, dims map[string]string) error {
	m.steps = append(m.steps, dims["Step"])
	return nil
}

// ---- harness ----

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc      *Service
	shops    *memShops
	tokens   *memTokens
	orders   *memOrders
	idem     *memIdempotency
	invoices *mockInvoices
	emails   *mockEmails
	events   *recordingPublisher
	metrics  *recordingMetrics
	now      time.Time
}

func newHarness() *harness {
	h := &harness{
		shops:    newMemShops(),
		tokens:   newMemTokens(),
		idem:     newMemIdempotency(),
		invoices: &mockInvoices{},
		emails:   &mockEmails{},
		events:   &recordingPublisher{},
		metrics:  &recordingMetrics{},
		now:      fixedNow,
	}
	h.orders = newMemOrders(h.idem)
	h.svc = New(Deps{
		Shops:       h.shops,
		Tokens:      h.tokens,
		Orders:      h.orders,
		Idempotency: h.idem,
		Invoices:    h.invoices,
		Emails:      h.emails,
		Events:      h.events,
		Metrics:     h.metrics,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Options{})
	h.svc.nowFunc = func() time.Time { return h.now }
	return h
}

// addShop registers an active shop with the given checkout mode and VAT rate.
func (h *harness) addShop(id, mode string, vat float64) shops.Shop {
	s := shops.Shop{
		ShopID:       id,
		Name:         "Shop " + id,
		Street:       "Hafenweg 3",
		PostalCode:   "20457",
		City:         "Hamburg",
		IsActive:     true,
		CheckoutMode: mode,
		VATRate:      vat,
	}
	h.shops.shops[id] = s
	return s
}

// withEmail gives the shop an active, usable e-mail configuration.
func (h *harness) withEmail(shopID string) {
	s := h.shops.shops[shopID]
	s.EmailConfigID = "mail-" + shopID
	h.shops.shops[shopID] = s
	h.shops.emails[s.EmailConfigID] = shops.EmailConfig{
		EmailConfigID: s.EmailConfigID,
		ShopID:        shopID,
		APIKey:        "re_test",
		FromEmail:     "orders@example.com",
		IsActive:      true,
	}
}
