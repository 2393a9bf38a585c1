package orders

import (
	"context"
	"errors"

	"go-storefront/internal/database"
	"go-storefront/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReduceStockForOrder takes a paid order's quantities off stock, at most once
// per order. The order is claimed with one conditional update before any
// stock moves, so concurrent deliveries cannot both decrement. Per-slug
// failures are logged and skipped; the claim stays in place either way.
func (s *Service) ReduceStockForOrder(ctx context.Context, orderID string) {
	log := zap.L().With(zap.String("order_id", orderID))

	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error("stock reduction: load order failed", zap.Error(err))
		}
		return
	}
	if order.StockReduced {
		return
	}
	if order.Status != "" && order.Status != models.OrderPaid {
		log.Info("stock reduction skipped for unpaid order", zap.String("status", order.Status))
		return
	}

	claimed, err := s.store.ClaimStockReduction(ctx, orderID)
	if err != nil {
		log.Error("stock reduction: claim failed", zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	quantities := quantitiesBySlug(order.Items)

	var g errgroup.Group
	if s.stockWorkers > 0 {
		g.SetLimit(s.stockWorkers)
	}
	for slug, qty := range quantities {
		slug, qty := slug, qty
		g.Go(func() error {
			left, err := s.stock.DecrementStock(ctx, slug, qty)
			if err != nil {
				log.Error("stock decrement failed",
					zap.String("slug", slug), zap.Int("quantity", qty), zap.Error(err))
				return nil
			}
			log.Info("stock decremented",
				zap.String("slug", slug), zap.Int("quantity", qty), zap.Int("stock", left))
			return nil
		})
	}
	_ = g.Wait()
}

// quantitiesBySlug sums line quantities per product; the same product can
// appear on several lines with different upgrades.
func quantitiesBySlug(items []models.OrderItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		if it.Slug == "" || it.Quantity <= 0 {
			continue
		}
		out[it.Slug] += it.Quantity
	}
	return out
}
