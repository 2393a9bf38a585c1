package handlers

import (
	"context"
	"time"

	"go-storefront/internal/auth"
	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/orders"
	"go-storefront/internal/payment"
	"go-storefront/internal/queue"
)

// Catalog is the priced read side of the shop.
type Catalog interface {
	List(ctx context.Context, q catalog.ListQuery) ([]catalog.Item, error)
	Search(ctx context.Context, term string, maxPriceHuf int64) ([]catalog.Item, error)
	Get(ctx context.Context, slug string) (*catalog.Detail, error)
	Invalidate(ctx context.Context)
}

// Orders creates and reads orders.
type Orders interface {
	CreateOrder(ctx context.Context, req orders.CheckoutRequest) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
}

// PaymentStarter opens a payment at the provider.
type PaymentStarter interface {
	Start(ctx context.Context, r payment.StartRequest) (*payment.Started, error)
}

// ProductAdmin is the write side of products and discounts.
type ProductAdmin interface {
	ListProducts(ctx context.Context, f database.ProductFilter, now time.Time) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uint, updates map[string]interface{}) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	CreateDiscount(ctx context.Context, d *models.Discount, slugs []string) error
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	DeleteDiscount(ctx context.Context, id uint) error
}

type Users interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

type Reports interface {
	TotalSales(ctx context.Context) (*database.SalesReportResult, error)
	TopSelling(ctx context.Context, limit int) ([]database.TopSeller, error)
}

type RecentOrders interface {
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}

// Assistant answers free-form admin questions.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Pinger is anything the status endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the HTTP layer talks to. Payments, Lookup and
// Assistant may be nil when the matching integration is not configured.
type Deps struct {
	Catalog   Catalog
	Orders    Orders
	Payments  PaymentStarter
	Lookup    payment.StateLookup
	Events    queue.Publisher
	Products  ProductAdmin
	Users     Users
	Reports   Reports
	Recent    RecentOrders
	Tokens    *auth.Signer
	Assistant Assistant
	Database  Pinger

	// RedirectURL and CallbackURL are handed to the provider on payment start
	RedirectURL string
	CallbackURL string
	// QueueMode and CacheMode are reported by the status endpoint
	QueueMode string
	CacheMode string
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Handler {
	return &Handler{Deps: d, now: time.Now}
}
