package orders

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/analytics"
	"go-storefront/internal/database"
	"go-storefront/internal/payment"

	"go.uber.org/zap"
)

// ApplyPayment moves an order according to a resolved provider notification.
// Delivering the same notification again changes nothing. The returned error
// only reports failed order writes so a queue can retry; stock and conversion
// problems are logged.
func (s *Service) ApplyPayment(ctx context.Context, n payment.Notification) error {
	orderID := n.OrderID()
	outcome := payment.Classify(n)
	log := zap.L().With(
		zap.String("order_id", orderID),
		zap.String("payment_id", n.PaymentID),
		zap.String("payment_status", n.PaymentStatus),
		zap.String("transaction_status", n.TransactionStatus),
		zap.Stringer("outcome", outcome),
	)

	if orderID == "" {
		log.Warn("payment notification without a resolvable order id")
		return nil
	}

	fields := database.PaymentFields{
		PaymentID:         n.PaymentID,
		PaymentStatus:     n.PaymentStatus,
		TransactionStatus: n.TransactionStatus,
	}

	switch outcome {
	case payment.OutcomeSuccess:
		return s.markPaid(ctx, log, orderID, fields)

	case payment.OutcomeCanceled:
		if err := s.store.MarkCanceled(ctx, orderID, fields); err != nil {
			return s.writeFailed(log, "cancel order", err)
		}
		log.Info("order canceled")

	case payment.OutcomeAmbiguous:
		if err := s.store.RecordPaymentStatus(ctx, orderID, fields); err != nil {
			return s.writeFailed(log, "record payment status", err)
		}
		log.Info("payment status recorded")

	default:
		log.Info("payment notification without status, nothing to do")
	}
	return nil
}

func (s *Service) markPaid(ctx context.Context, log *zap.Logger, orderID string, fields database.PaymentFields) error {
	order, err := s.store.Get(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("paid notification for unknown order")
		return nil
	}
	if err != nil {
		return s.writeFailed(log, "load order", err)
	}

	paidAt := s.now()
	transitioned, err := s.store.MarkPaid(ctx, orderID, fields, paidAt)
	if err != nil {
		return s.writeFailed(log, "mark order paid", err)
	}
	log.Info("order paid", zap.Bool("transitioned", transitioned))

	s.ReduceStockForOrder(ctx, orderID)

	if transitioned && order.TotalHuf > 0 && s.tracker != nil {
		err := s.tracker.Purchase(ctx, analytics.Purchase{
			OrderID:  order.ID,
			Email:    order.Email,
			Phone:    order.Phone,
			TotalHuf: order.TotalHuf,
			PaidAt:   paidAt,
		})
		if err != nil {
			log.Warn("purchase conversion failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) writeFailed(log *zap.Logger, what string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		log.Warn(what + ": order not found")
		return nil
	}
	log.Error(what+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", what, err)
}
