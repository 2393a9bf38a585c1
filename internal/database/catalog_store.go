package database

import (
	"context"
	"strings"
	"time"

	"go-storefront/internal/models"

	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	Kind  models.ProductKind
	Query string
}

// CatalogStore reads products together with the discounts that are live at a
// given instant. It does no price arithmetic.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) liveDiscounts(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("active = ?", true).
			Where("(starts_at IS NULL OR starts_at <= ?)", now).
			Where("(ends_at IS NULL OR ends_at >= ?)", now).
			Order("discounts.id")
	}
}

// ListProducts returns matching products with their live discounts preloaded.
func (s *CatalogStore) ListProducts(ctx context.Context, f ProductFilter, now time.Time) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Discounts", s.liveDiscounts(now))
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(slug) LIKE ?)", like, like)
	}
	var list []models.Product
	if err := q.Order("name").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// GetBySlug returns one product with its live discounts.
func (s *CatalogStore) GetBySlug(ctx context.Context, slug string, now time.Time) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).
		Preload("Discounts", s.liveDiscounts(now)).
		Where("slug = ?", slug).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetBySlugs returns the products for the given slugs with live discounts.
// Unknown slugs are simply absent from the result.
func (s *CatalogStore) GetBySlugs(ctx context.Context, slugs []string, now time.Time) ([]models.Product, error) {
	var list []models.Product
	err := s.db.WithContext(ctx).
		Preload("Discounts", s.liveDiscounts(now)).
		Where("slug IN ?", slugs).
		Find(&list).Error
	return list, err
}

func (s *CatalogStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// UpdateProduct applies a partial update to the product with the given id.
func (s *CatalogStore) UpdateProduct(ctx context.Context, id uint, updates map[string]interface{}) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.db.WithContext(ctx).Model(&p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogStore) DeleteProduct(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := models.Product{ID: id}
		if err := tx.Model(&p).Association("Discounts").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateDiscount stores d and links it to the products with the given slugs.
func (s *CatalogStore) CreateDiscount(ctx context.Context, d *models.Discount, slugs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(slugs) > 0 {
			if err := tx.Where("slug IN ?", slugs).Find(&d.Products).Error; err != nil {
				return err
			}
		}
		return tx.Create(d).Error
	})
}

// ListDiscounts returns every discount with its products, newest first.
func (s *CatalogStore) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	var list []models.Discount
	err := s.db.WithContext(ctx).Preload("Products").Order("id DESC").Find(&list).Error
	return list, err
}

// LiveDiscounts returns the discounts live at now with their products.
func (s *CatalogStore) LiveDiscounts(ctx context.Context, now time.Time) ([]models.Discount, error) {
	var list []models.Discount
	err := s.db.WithContext(ctx).Preload("Products").Scopes(s.liveDiscounts(now)).Find(&list).Error
	return list, err
}

func (s *CatalogStore) DeleteDiscount(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := models.Discount{ID: id}
		if err := tx.Model(&d).Association("Products").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&d)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
