package handlers

import (
	"io"
	"net/http"

	"go-storefront/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// --- POST|GET: /api/payment/webhook ---
// The provider retries anything that is not a quick 200, so the answer is
// always 200 and the order work happens on the payment event queue.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. Read whatever body came (JSON, form or nothing)
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			zap.L().Warn("payment webhook: reading body failed", zap.Error(err))
		}
	}

	// 2. Body first, query string fills the gaps
	n := payment.ParseBody(body)
	n = payment.MergeQuery(n, c.Request.URL.Query())

	// 3. Ask the provider when we know the payment but not enough about it
	if h.Lookup != nil {
		n = payment.Complete(ctx, n, h.Lookup)
	}

	orderID := n.OrderID()
	log := zap.L().With(
		zap.String("order_id", orderID),
		zap.String("payment_id", n.PaymentID),
		zap.String("payment_status", n.PaymentStatus),
		zap.String("transaction_status", n.TransactionStatus),
	)

	// 4. Hand off and answer
	if orderID == "" {
		log.Warn("payment webhook without a resolvable order id")
		c.JSON(http.StatusOK, gin.H{"received": true, "orderId": nil})
		return
	}
	if err := h.Events.Publish(ctx, n); err != nil {
		log.Error("payment webhook: enqueue failed", zap.Error(err))
	} else {
		log.Info("payment webhook queued", zap.Stringer("outcome", payment.Classify(n)))
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "orderId": orderID})
}
