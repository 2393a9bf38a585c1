package database

import (
	"context"
	"time"

	"go-storefront/internal/models"

	"gorm.io/gorm"
)

// SalesReportResult holds paid revenue for a period
type SalesReportResult struct {
	TotalRevenue int64 `json:"total_revenue_huf"`
	TotalCount   int64 `json:"total_orders"`
}

// TopSeller is one row of the best sellers table
type TopSeller struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Sold    int64  `json:"sold"`
	Revenue int64  `json:"revenue_huf"`
}

type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// SalesReport sums paid orders whose payment landed within [start, end].
func (s *ReportStore) SalesReport(ctx context.Context, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult
	paid := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Order{}).
			Where("status = ?", models.OrderPaid).
			Where("paid_at BETWEEN ? AND ?", start, end)
	}

	// COALESCE gives 0 instead of NULL when nothing was sold
	if err := paid().Select("COALESCE(SUM(total_huf), 0)").Scan(&result.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := paid().Count(&result.TotalCount).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// TotalSales sums every paid order.
func (s *ReportStore) TotalSales(ctx context.Context) (*SalesReportResult, error) {
	var result SalesReportResult
	q := s.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", models.OrderPaid)
	if err := q.Select("COALESCE(SUM(total_huf), 0)").Scan(&result.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderPaid).Count(&result.TotalCount).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// TopSelling ranks slugs by quantity sold on paid orders.
func (s *ReportStore) TopSelling(ctx context.Context, limit int) ([]TopSeller, error) {
	var rows []TopSeller
	err := s.db.WithContext(ctx).Table("order_items").
		Select("order_items.slug as slug, MAX(order_items.name) as name, SUM(order_items.quantity) as sold, SUM(order_items.quantity * order_items.unit_price_huf) as revenue").
		Joins("JOIN orders ON order_items.order_id = orders.id").
		Where("orders.status = ?", models.OrderPaid).
		Group("order_items.slug").
		Order("sold desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
