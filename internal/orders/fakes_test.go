package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go-storefront/internal/analytics"
	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/pricing"

	"gorm.io/gorm"
)

type memStore struct {
	mu      sync.Mutex
	orders  map[string]*models.Order
	failGet error
}

func newMemStore(orders ...*models.Order) *memStore {
	m := &memStore{orders: map[string]*models.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memStore) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) MaxOrderNumber(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := ""
	for _, o := range m.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) && o.OrderNumber > best {
			best = o.OrderNumber
		}
	}
	return best, nil
}

func (m *memStore) apply(id string, p database.PaymentFields, status string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if p.PaymentID != "" {
		o.PaymentID = p.PaymentID
	}
	if p.PaymentStatus != "" {
		o.PaymentStatus = p.PaymentStatus
	}
	if p.TransactionStatus != "" {
		o.TransactionStatus = p.TransactionStatus
	}
	if status != "" {
		o.Status = status
	}
	return o, nil
}

func (m *memStore) MarkPaid(_ context.Context, id string, p database.PaymentFields, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, database.ErrNotFound
	}
	transitioned := o.Status != models.OrderPaid
	if transitioned {
		o.PaidAt = &paidAt
	}
	_, err := m.apply(id, p, models.OrderPaid)
	return transitioned, err
}

func (m *memStore) MarkCanceled(_ context.Context, id string, p database.PaymentFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.apply(id, p, models.OrderCanceled)
	return err
}

func (m *memStore) RecordPaymentStatus(_ context.Context, id string, p database.PaymentFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.apply(id, p, "")
	return err
}

func (m *memStore) ClaimStockReduction(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.StockReduced || (o.Status != "" && o.Status != models.OrderPaid) {
		return false, nil
	}
	o.StockReduced = true
	return true, nil
}

func (m *memStore) order(id string) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

type memStock struct {
	mu     sync.Mutex
	levels map[string]int
	fail   map[string]bool
	calls  int
}

func (m *memStock) DecrementStock(_ context.Context, slug string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail[slug] {
		return 0, errors.New("stock lookup failed")
	}
	cur, ok := m.levels[slug]
	if !ok {
		return 0, database.ErrNotFound
	}
	m.levels[slug] = max(0, cur-qty)
	return m.levels[slug], nil
}

func (m *memStock) level(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[slug]
}

type recordingTracker struct {
	mu        sync.Mutex
	purchases []analytics.Purchase
	err       error
}

func (r *recordingTracker) Purchase(_ context.Context, p analytics.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases = append(r.purchases, p)
	return r.err
}

type staticPricer map[string]catalog.Item

func (s staticPricer) Lookup(_ context.Context, slugs []string) (map[string]catalog.Item, error) {
	out := map[string]catalog.Item{}
	for _, slug := range slugs {
		if it, ok := s[slug]; ok {
			out[slug] = it
		}
	}
	return out, nil
}

func priced(slug, name string, base, final int64) catalog.Item {
	return catalog.Item{Slug: slug, Name: name, BasePriceHuf: base, Resolved: pricing.Resolved{FinalPriceHuf: final}}
}
