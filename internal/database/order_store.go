package database

import (
	"context"
	"time"

	"go-storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentFields are the raw provider values recorded on every notification.
type PaymentFields struct {
	PaymentID         string
	PaymentStatus     string
	TransactionStatus string
}

func (p PaymentFields) updates() map[string]interface{} {
	u := map[string]interface{}{}
	if p.PaymentID != "" {
		u["payment_id"] = p.PaymentID
	}
	if p.PaymentStatus != "" {
		u["payment_status"] = p.PaymentStatus
	}
	if p.TransactionStatus != "" {
		u["transaction_status"] = p.TransactionStatus
	}
	return u
}

// OrderStore persists orders and their line items.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *OrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// MaxOrderNumber returns the highest order number starting with prefix,
// or "" when there is none.
func (s *OrderStore) MaxOrderNumber(ctx context.Context, prefix string) (string, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Take(&o).Error
	if err != nil {
		if err = notFound(err); err == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return o.OrderNumber, nil
}

// MarkPaid moves the order to paid and records the payment fields.
// transitioned is true only for the call that changed the status.
func (s *OrderStore) MarkPaid(ctx context.Context, id string, p PaymentFields, paidAt time.Time) (transitioned bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND (status IS NULL OR status <> ?)", id, models.OrderPaid).
			Updates(map[string]interface{}{"status": models.OrderPaid, "paid_at": paidAt})
		if res.Error != nil {
			return res.Error
		}
		transitioned = res.RowsAffected == 1
		return updateFields(tx, id, p.updates())
	})
	return transitioned, err
}

// MarkCanceled moves the order to canceled and records the payment fields.
func (s *OrderStore) MarkCanceled(ctx context.Context, id string, p PaymentFields) error {
	u := p.updates()
	u["status"] = models.OrderCanceled
	return updateFields(s.db.WithContext(ctx), id, u)
}

// RecordPaymentStatus stores the raw payment fields and leaves the status alone.
func (s *OrderStore) RecordPaymentStatus(ctx context.Context, id string, p PaymentFields) error {
	return updateFields(s.db.WithContext(ctx), id, p.updates())
}

// ClaimStockReduction sets stock_reduced in a single conditional update.
// It reports true only to the one caller that flipped the flag, and never
// for orders whose status is set to something other than paid.
func (s *OrderStore) ClaimStockReduction(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND stock_reduced = ?", id, false).
		Where("(status IS NULL OR status = '' OR status = ?)", models.OrderPaid).
		Update("stock_reduced", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *OrderStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []models.Order
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func updateFields(tx *gorm.DB, id string, u map[string]interface{}) error {
	if len(u) == 0 {
		return nil
	}
	res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// StockStore adjusts product stock by slug.
type StockStore struct {
	db *gorm.DB
}

func NewStockStore(db *gorm.DB) *StockStore {
	return &StockStore{db: db}
}

// DecrementStock takes qty off the product's stock, never going below zero,
// and returns the new stock. The row is locked for the read-modify-write.
func (s *StockStore) DecrementStock(ctx context.Context, slug string, qty int) (int, error) {
	var newStock int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("slug = ?", slug).First(&p).Error; err != nil {
			return notFound(err)
		}
		newStock = max(0, p.Stock-qty)
		return tx.Model(&p).Update("stock", newStock).Error
	})
	return newStock, err
}
