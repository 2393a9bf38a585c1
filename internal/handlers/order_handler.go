package handlers

import (
	"errors"
	"net/http"

	"go-storefront/internal/models"
	"go-storefront/internal/orders"
	"go-storefront/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// --- POST: /api/orders ---
func (h *Handler) CreateOrder(c *gin.Context) {
	var req orders.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := h.Orders.CreateOrder(c.Request.Context(), req)
	if errors.Is(err, orders.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		zap.L().Error("create order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
	})
}

// --- GET: /api/orders/:id ---
// The thank-you page polls this while the payment settles.
func (h *Handler) GetOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
		"totalHuf":    order.TotalHuf,
		"paidAt":      order.PaidAt,
	})
}

// --- POST: /api/orders/:id/pay ---
func (h *Handler) StartPayment(c *gin.Context) {
	if h.Payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Online payment is not available"})
		return
	}
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	if order.Status != models.OrderSubmitted {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is not awaiting payment"})
		return
	}

	items := make([]payment.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, payment.LineItem{
			Name:      it.Name,
			SKU:       it.Slug,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPriceHuf,
		})
	}
	if order.ShippingHuf > 0 {
		items = append(items, payment.LineItem{Name: "Szállítás", SKU: "shipping", Quantity: 1, UnitPrice: order.ShippingHuf})
	}

	started, err := h.Payments.Start(c.Request.Context(), payment.StartRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		TotalHuf:    order.TotalHuf,
		Items:       items,
		RedirectURL: h.RedirectURL,
		CallbackURL: h.CallbackURL,
	})
	if err != nil {
		zap.L().Error("start payment failed", zap.String("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider is unavailable"})
		return
	}

	zap.L().Info("payment started", zap.String("order_id", order.ID), zap.String("payment_id", started.PaymentID))
	c.JSON(http.StatusOK, gin.H{
		"paymentId":  started.PaymentID,
		"gatewayUrl": started.GatewayURL,
	})
}

func (h *Handler) loadOrder(c *gin.Context) (*models.Order, bool) {
	order, err := h.Orders.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, orders.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	if err != nil {
		zap.L().Error("load order failed", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return nil, false
	}
	return order, true
}
