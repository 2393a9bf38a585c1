// Package catalog serves product listings, details and search with the
// resolved price attached to every item.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-storefront/internal/cache"
	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/pricing"

	"go.uber.org/zap"
)

const keyPrefix = "catalog:"

var ErrProductNotFound = errors.New("product not found")

// Store is the read side of the product database.
type Store interface {
	ListProducts(ctx context.Context, f database.ProductFilter, now time.Time) ([]models.Product, error)
	GetBySlug(ctx context.Context, slug string, now time.Time) (*models.Product, error)
	GetBySlugs(ctx context.Context, slugs []string, now time.Time) ([]models.Product, error)
}

// Item is a product as the storefront shows it.
type Item struct {
	Slug         string             `json:"slug"`
	Name         string             `json:"name"`
	Kind         models.ProductKind `json:"kind"`
	Category     string             `json:"category,omitempty"`
	ImageURL     string             `json:"image_url,omitempty"`
	Stock        int                `json:"stock"`
	BasePriceHuf int64              `json:"base_price_huf"`
	pricing.Resolved
}

// Detail is an Item plus the discounts that were considered for it.
type Detail struct {
	Item
	Discounts []pricing.Discount `json:"discounts"`
}

// ListQuery is what a listing page asks for.
type ListQuery struct {
	Kind        models.ProductKind
	Query       string
	MaxPriceHuf int64
	Sort        string // "", "price_asc", "price_desc"
}

// snapshot is the cached raw read: the product and its candidate discounts.
type snapshot struct {
	Product   models.Product     `json:"product"`
	Discounts []pricing.Discount `json:"discounts"`
}

type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{store: store, cache: c, ttl: ttl, now: time.Now}
}

// Candidates converts stored discounts into resolver input.
func Candidates(ds []models.Discount) []pricing.Discount {
	out := make([]pricing.Discount, 0, len(ds))
	for _, d := range ds {
		out = append(out, pricing.Discount{
			ID:       d.ID,
			Kind:     pricing.Kind(d.Kind),
			Amount:   d.Amount,
			Active:   d.Active,
			StartsAt: d.StartsAt,
			EndsAt:   d.EndsAt,
		})
	}
	return out
}

// Price resolves p against whichever of its discounts are live at now.
func Price(p models.Product, now time.Time) pricing.Resolved {
	return pricing.Resolve(p.BasePriceHuf, pricing.LiveCandidates(Candidates(p.Discounts), now))
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Item, error) {
	filter := database.ProductFilter{Kind: q.Kind, Query: strings.TrimSpace(q.Query)}
	key := fmt.Sprintf("%slist:%s:%s", keyPrefix, filter.Kind, strings.ToLower(filter.Query))

	var snaps []snapshot
	if !s.cached(ctx, key, &snaps) {
		products, err := s.store.ListProducts(ctx, filter, s.now())
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		snaps = make([]snapshot, 0, len(products))
		for _, p := range products {
			snaps = append(snaps, toSnapshot(p))
		}
		s.remember(ctx, key, snaps)
	}

	now := s.now()
	items := make([]Item, 0, len(snaps))
	for _, sn := range snaps {
		items = append(items, sn.item(now))
	}

	items = pricing.FilterByCeiling(items, q.MaxPriceHuf, itemPrice)
	switch q.Sort {
	case "price_asc":
		pricing.SortByPrice(items, true, itemPrice)
	case "price_desc":
		pricing.SortByPrice(items, false, itemPrice)
	}
	return items, nil
}

// Search matches name or slug across every product kind.
func (s *Service) Search(ctx context.Context, term string, maxPriceHuf int64) ([]Item, error) {
	if strings.TrimSpace(term) == "" {
		return []Item{}, nil
	}
	return s.List(ctx, ListQuery{Query: term, MaxPriceHuf: maxPriceHuf})
}

func (s *Service) Get(ctx context.Context, slug string) (*Detail, error) {
	key := keyPrefix + "product:" + slug

	var sn snapshot
	if !s.cached(ctx, key, &sn) {
		p, err := s.store.GetBySlug(ctx, slug, s.now())
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", slug, err)
		}
		sn = toSnapshot(*p)
		s.remember(ctx, key, sn)
	}

	now := s.now()
	return &Detail{Item: sn.item(now), Discounts: pricing.LiveCandidates(sn.Discounts, now)}, nil
}

// Lookup prices the given slugs straight from the store, skipping the cache.
// Checkout uses it so an order is never priced from a stale snapshot.
func (s *Service) Lookup(ctx context.Context, slugs []string) (map[string]Item, error) {
	now := s.now()
	products, err := s.store.GetBySlugs(ctx, slugs, now)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}
	out := make(map[string]Item, len(products))
	for _, p := range products {
		out[p.Slug] = toSnapshot(p).item(now)
	}
	return out, nil
}

// Invalidate drops cached catalog reads after an admin write.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, keyPrefix); err != nil {
		zap.L().Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		zap.L().Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *Service) remember(ctx context.Context, key string, v any) {
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		zap.L().Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toSnapshot(p models.Product) snapshot {
	return snapshot{Product: p, Discounts: Candidates(p.Discounts)}
}

func (sn snapshot) item(now time.Time) Item {
	p := sn.Product
	return Item{
		Slug:         p.Slug,
		Name:         p.Name,
		Kind:         p.Kind,
		Category:     p.Category,
		ImageURL:     p.ImageURL,
		Stock:        p.Stock,
		BasePriceHuf: p.BasePriceHuf,
		Resolved:     pricing.Resolve(p.BasePriceHuf, pricing.LiveCandidates(sn.Discounts, now)),
	}
}

func itemPrice(it Item) pricing.Resolved { return it.Resolved }
