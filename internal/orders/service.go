// Package orders creates orders at checkout and moves them along as payment
// notifications arrive.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-storefront/internal/analytics"
	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks checkout input the caller has to fix.
	ErrValidation    = errors.New("invalid order")
	ErrOrderNotFound = errors.New("order not found")
)

// Store is the order persistence the service needs.
type Store interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	MaxOrderNumber(ctx context.Context, prefix string) (string, error)
	MarkPaid(ctx context.Context, id string, p database.PaymentFields, paidAt time.Time) (bool, error)
	MarkCanceled(ctx context.Context, id string, p database.PaymentFields) error
	RecordPaymentStatus(ctx context.Context, id string, p database.PaymentFields) error
	ClaimStockReduction(ctx context.Context, id string) (bool, error)
}

// StockStore lowers product stock by slug.
type StockStore interface {
	DecrementStock(ctx context.Context, slug string, qty int) (int, error)
}

// Pricer resolves current prices for cart slugs.
type Pricer interface {
	Lookup(ctx context.Context, slugs []string) (map[string]catalog.Item, error)
}

// ConversionTracker reports paid orders to the ads platform.
type ConversionTracker interface {
	Purchase(ctx context.Context, p analytics.Purchase) error
}

// Shipping is the flat fee and the subtotal from which shipping is free.
type Shipping struct {
	FeeHuf       int64
	FreeAboveHuf int64
}

type Service struct {
	store    Store
	stock    StockStore
	pricer   Pricer
	tracker  ConversionTracker
	shipping Shipping

	now   func() time.Time
	newID func() string
	// stockWorkers bounds concurrent per-slug stock writes
	stockWorkers int
}

func NewService(store Store, stock StockStore, pricer Pricer, tracker ConversionTracker, shipping Shipping) *Service {
	return &Service{
		store:        store,
		stock:        stock,
		pricer:       pricer,
		tracker:      tracker,
		shipping:     shipping,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
		stockWorkers: 4,
	}
}

// CartItem is one line as the checkout UI sends it. Price is the client's
// view and is only compared against the server price.
type CartItem struct {
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Price    int64            `json:"price"`
	Quantity int              `json:"quantity"`
	Upgrades []models.Upgrade `json:"upgrades,omitempty"`
}

// CheckoutRequest is the order form.
type CheckoutRequest struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	PostalCode  string     `json:"postal_code"`
	City        string     `json:"city"`
	AddressLine string     `json:"address_line"`
	Note        string     `json:"note,omitempty"`
	Items       []CartItem `json:"items"`
	TotalHuf    int64      `json:"total_huf"`
}

func (r CheckoutRequest) validate() error {
	required := []struct{ field, value string }{
		{"name", r.Name},
		{"email", r.Email},
		{"phone", r.Phone},
		{"postal_code", r.PostalCode},
		{"city", r.City},
		{"address_line", r.AddressLine},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: email is not valid", ErrValidation)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.Slug) == "" || it.Quantity < 1 {
			return fmt.Errorf("%w: item %d needs a slug and a quantity of at least 1", ErrValidation, i+1)
		}
		for _, u := range it.Upgrades {
			if u.PriceDeltaHuf < 0 {
				return fmt.Errorf("%w: upgrade %q has a negative price", ErrValidation, u.Name)
			}
		}
	}
	return nil
}

// CreateOrder prices the cart on the server and stores a submitted order
// with the next order number of the current year.
func (s *Service) CreateOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		slugs = append(slugs, it.Slug)
	}
	prices, err := s.pricer.Lookup(ctx, slugs)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName: strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		City:         strings.TrimSpace(req.City),
		AddressLine:  strings.TrimSpace(req.AddressLine),
		Note:         strings.TrimSpace(req.Note),
		Status:       models.OrderSubmitted,
	}
	for _, it := range req.Items {
		item, ok := prices[it.Slug]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %q", ErrValidation, it.Slug)
		}
		unit := item.FinalPriceHuf
		for _, u := range it.Upgrades {
			unit += u.PriceDeltaHuf
		}
		if it.Price != 0 && it.Price != unit {
			zap.L().Info("cart price differs from server price",
				zap.String("slug", it.Slug), zap.Int64("client", it.Price), zap.Int64("server", unit))
		}
		order.Items = append(order.Items, models.OrderItem{
			Slug:         it.Slug,
			Name:         item.Name,
			UnitPriceHuf: unit,
			Quantity:     it.Quantity,
			Upgrades:     it.Upgrades,
		})
		order.SubtotalHuf += unit * int64(it.Quantity)
	}
	order.ShippingHuf = s.shippingFee(order.SubtotalHuf)
	order.TotalHuf = order.SubtotalHuf + order.ShippingHuf

	// A number taken by a concurrent checkout fails the unique index; retry.
	for attempt := 0; attempt < 3; attempt++ {
		number, err := s.NextOrderNumber(ctx, s.now().Year())
		if err != nil {
			return nil, err
		}
		order.ID = s.newID()
		order.OrderNumber = number
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = ""
		}

		err = s.store.Create(ctx, order)
		if err == nil {
			zap.L().Info("order created",
				zap.String("order_id", order.ID), zap.String("order_number", number), zap.Int64("total_huf", order.TotalHuf))
			return order, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create order: %w", err)
		}
	}
	return nil, errors.New("create order: could not allocate an order number")
}

func (s *Service) shippingFee(subtotal int64) int64 {
	if s.shipping.FreeAboveHuf > 0 && subtotal >= s.shipping.FreeAboveHuf {
		return 0
	}
	return s.shipping.FeeHuf
}

// NextOrderNumber is YYYY followed by a five digit sequence that continues
// from the highest number issued in that year.
func (s *Service) NextOrderNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("%04d", year)
	highest, err := s.store.MaxOrderNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("highest order number: %w", err)
	}
	if highest == "" {
		return prefix + "00001", nil
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(highest, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed order number %q: %w", highest, err)
	}
	return fmt.Sprintf("%s%05d", prefix, seq+1), nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}
