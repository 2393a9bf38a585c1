package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-storefront/internal/auth"
	"go-storefront/internal/cache"
	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/database/dbtest"
	"go-storefront/internal/handlers"
	"go-storefront/internal/models"
	"go-storefront/internal/orders"
	"go-storefront/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type publisher struct {
	mu   sync.Mutex
	sent []payment.Notification
	err  error
}

func (p *publisher) Publish(_ context.Context, n payment.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *publisher) all() []payment.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payment.Notification(nil), p.sent...)
}

type stubLookup struct {
	state payment.Notification
	err   error
	calls int
}

func (s *stubLookup) PaymentState(context.Context, string) (payment.Notification, error) {
	s.calls++
	return s.state, s.err
}

type stubStarter struct {
	got payment.StartRequest
	err error
}

func (s *stubStarter) Start(_ context.Context, r payment.StartRequest) (*payment.Started, error) {
	s.got = r
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Started{PaymentID: "pay-42", GatewayURL: "https://secure.test.barion.com/Pay?Id=pay-42"}, nil
}

type stubAssistant struct{ reply string }

func (s stubAssistant) Ask(context.Context, string) (string, error) {
	if s.reply == "" {
		return "", errors.New("model unavailable")
	}
	return s.reply, nil
}

type shop struct {
	db       *gorm.DB
	router   *gin.Engine
	handler  *handlers.Handler
	catalog  *database.CatalogStore
	orders   *database.OrderStore
	stock    *database.StockStore
	service  *orders.Service
	events   *publisher
	lookup   *stubLookup
	starter  *stubStarter
	signer   *auth.Signer
	products map[string]models.Product
}

func newShop(t *testing.T) *shop {
	t.Helper()
	db := dbtest.Open(t)
	s := &shop{
		db:       db,
		catalog:  database.NewCatalogStore(db),
		orders:   database.NewOrderStore(db),
		stock:    database.NewStockStore(db),
		events:   &publisher{},
		lookup:   &stubLookup{err: errors.New("lookup disabled")},
		starter:  &stubStarter{},
		signer:   auth.NewSigner("test-secret", time.Hour),
		products: map[string]models.Product{},
	}
	catalogSvc := catalog.NewService(s.catalog, cache.Nop{}, time.Minute)
	s.service = orders.NewService(s.orders, s.stock, catalogSvc, nil, orders.Shipping{FeeHuf: 2990, FreeAboveHuf: 100000})

	s.handler = handlers.New(handlers.Deps{
		Catalog:     catalogSvc,
		Orders:      s.service,
		Payments:    s.starter,
		Lookup:      s.lookup,
		Events:      s.events,
		Products:    s.catalog,
		Users:       database.NewUserStore(db),
		Reports:     database.NewReportStore(db),
		Recent:      s.orders,
		Tokens:      s.signer,
		Assistant:   stubAssistant{reply: "All good."},
		Database:    database.NewHealth(db),
		RedirectURL: "https://shop.example/thanks",
		CallbackURL: "https://shop.example/api/payment/webhook",
		QueueMode:   "local",
		CacheMode:   "none",
	})
	s.router = gin.New()
	s.handler.Routes(s.router, true)

	s.seed(t)
	return s
}

// seed: a discounted laptop, a plain console and a phone whose fixed
// discount is bigger than its price.
func (s *shop) seed(t *testing.T) {
	ctx := context.Background()
	for _, p := range []models.Product{
		{Slug: "macbook-air-m3", Name: "MacBook Air M3", Kind: models.KindLaptop, BasePriceHuf: 1000000, Stock: 5},
		{Slug: "ps5-slim", Name: "PlayStation 5 Slim", Kind: models.KindConsole, BasePriceHuf: 189990, Stock: 3},
		{Slug: "nokia-105", Name: "Nokia 105", Kind: models.KindPhone, BasePriceHuf: 1000, Stock: 20},
	} {
		p := p
		require.NoError(t, s.catalog.CreateProduct(ctx, &p))
		s.products[p.Slug] = p
	}
	require.NoError(t, s.catalog.CreateDiscount(ctx, &models.Discount{
		Name: "Tanévkezdés", Kind: models.DiscountPercent, Amount: decimal.NewFromInt(10), Active: true,
	}, []string{"macbook-air-m3"}))
	require.NoError(t, s.catalog.CreateDiscount(ctx, &models.Discount{
		Name: "Fix kedvezmény", Kind: models.DiscountFixed, Amount: decimal.NewFromInt(50000), Active: true,
	}, []string{"macbook-air-m3"}))
	require.NoError(t, s.catalog.CreateDiscount(ctx, &models.Discount{
		Name: "Hibás", Kind: models.DiscountFixed, Amount: decimal.NewFromInt(5000), Active: true,
	}, []string{"nokia-105"}))
}

func (s *shop) addAdmin(t *testing.T, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, database.NewUserStore(s.db).Create(context.Background(),
		&models.User{Username: username, PasswordHash: string(hash), Role: "admin"}))
}

func (s *shop) adminToken(t *testing.T) string {
	t.Helper()
	token, err := s.signer.GenerateToken(1, "admin", "admin")
	require.NoError(t, err)
	return token
}

func (s *shop) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *shop) raw(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func checkout(items ...map[string]any) map[string]any {
	return map[string]any{
		"name":         "Kiss Anna",
		"email":        "anna@example.hu",
		"phone":        "+36301234567",
		"postal_code":  "1051",
		"city":         "Budapest",
		"address_line": "Nádor utca 7.",
		"items":        items,
	}
}

func cartLine(slug string, qty int) map[string]any {
	return map[string]any{"slug": slug, "quantity": qty}
}

func ginWithRoutes(h *handlers.Handler, allowRegistration bool) *gin.Engine {
	r := gin.New()
	h.Routes(r, allowRegistration)
	return r
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
