package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-storefront/internal/models"
	"go-storefront/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submittedOrder(id string, total int64, items ...models.OrderItem) *models.Order {
	return &models.Order{
		ID: id, OrderNumber: "2025" + id, Status: models.OrderSubmitted,
		Email: "vevo@example.hu", Phone: "+36201112233", TotalHuf: total, Items: items,
	}
}

func newPaymentService(store *memStore, stock *memStock, tracker *recordingTracker) *Service {
	svc := NewService(store, stock, staticPricer{}, tracker, Shipping{})
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func succeeded(orderID string) payment.Notification {
	return payment.Notification{PaymentID: "pay-1", PaymentStatus: "Succeeded", TransactionID: orderID, TransactionStatus: "Succeeded"}
}

func TestApplyPayment_SuccessEndToEnd(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 259990, line("galaxy-tab", 1)))
	stock := &memStock{levels: map[string]int{"galaxy-tab": 6}}
	tracker := &recordingTracker{}
	svc := newPaymentService(store, stock, tracker)

	require.NoError(t, svc.ApplyPayment(context.Background(), succeeded("o1")))

	o := store.order("o1")
	assert.Equal(t, models.OrderPaid, o.Status)
	assert.Equal(t, "pay-1", o.PaymentID)
	assert.Equal(t, "Succeeded", o.PaymentStatus)
	assert.True(t, o.StockReduced)
	assert.Equal(t, 5, stock.level("galaxy-tab"))

	require.Len(t, tracker.purchases, 1)
	assert.Equal(t, "o1", tracker.purchases[0].OrderID)
	assert.Equal(t, int64(259990), tracker.purchases[0].TotalHuf)
	assert.Equal(t, "vevo@example.hu", tracker.purchases[0].Email)
}

func TestApplyPayment_RedeliveryIsNoop(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 259990, line("galaxy-tab", 1)))
	stock := &memStock{levels: map[string]int{"galaxy-tab": 6}}
	tracker := &recordingTracker{}
	svc := newPaymentService(store, stock, tracker)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ApplyPayment(context.Background(), succeeded("o1")))
	}

	assert.Equal(t, 5, stock.level("galaxy-tab"))
	assert.Len(t, tracker.purchases, 1)
}

func TestApplyPayment_NoConversionWithoutTotal(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 0))
	tracker := &recordingTracker{}
	svc := newPaymentService(store, &memStock{levels: map[string]int{}}, tracker)

	require.NoError(t, svc.ApplyPayment(context.Background(), succeeded("o1")))

	assert.Empty(t, tracker.purchases)
	assert.Equal(t, models.OrderPaid, store.order("o1").Status)
}

func TestApplyPayment_ConversionFailureDoesNotMatter(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 1000))
	tracker := &recordingTracker{err: errors.New("ads api down")}
	svc := newPaymentService(store, &memStock{levels: map[string]int{}}, tracker)

	assert.NoError(t, svc.ApplyPayment(context.Background(), succeeded("o1")))
	assert.Equal(t, models.OrderPaid, store.order("o1").Status)
}

func TestApplyPayment_Canceled(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 1000, line("ps5", 1)))
	stock := &memStock{levels: map[string]int{"ps5": 1}}
	svc := newPaymentService(store, stock, &recordingTracker{})

	err := svc.ApplyPayment(context.Background(), payment.Notification{PaymentStatus: "Expired", TransactionID: "o1"})
	require.NoError(t, err)

	o := store.order("o1")
	assert.Equal(t, models.OrderCanceled, o.Status)
	assert.Equal(t, "Expired", o.PaymentStatus)
	assert.Equal(t, 1, stock.level("ps5"))
}

func TestApplyPayment_AmbiguousKeepsStatus(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 1000))
	svc := newPaymentService(store, &memStock{}, &recordingTracker{})

	err := svc.ApplyPayment(context.Background(), payment.Notification{PaymentStatus: "Prepared", TransactionID: "o1", TransactionStatus: "Reserved"})
	require.NoError(t, err)

	o := store.order("o1")
	assert.Equal(t, models.OrderSubmitted, o.Status)
	assert.Equal(t, "Prepared", o.PaymentStatus)
	assert.Equal(t, "Reserved", o.TransactionStatus)
}

func TestApplyPayment_NoOrderID(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 1000))
	svc := newPaymentService(store, &memStock{}, &recordingTracker{})

	assert.NoError(t, svc.ApplyPayment(context.Background(), payment.Notification{PaymentID: "pay-1", PaymentStatus: "Succeeded"}))
	assert.Equal(t, models.OrderSubmitted, store.order("o1").Status)
}

func TestApplyPayment_UnknownOrder(t *testing.T) {
	svc := newPaymentService(newMemStore(), &memStock{}, &recordingTracker{})

	assert.NoError(t, svc.ApplyPayment(context.Background(), succeeded("ghost")))
	assert.NoError(t, svc.ApplyPayment(context.Background(), payment.Notification{PaymentStatus: "Canceled", TransactionID: "ghost"}))
}

func TestApplyPayment_StoreFailureIsReported(t *testing.T) {
	store := newMemStore(submittedOrder("o1", 1000))
	store.failGet = errors.New("connection reset")
	svc := newPaymentService(store, &memStock{}, &recordingTracker{})

	err := svc.ApplyPayment(context.Background(), succeeded("o1"))
	assert.ErrorContains(t, err, "connection reset")
}
