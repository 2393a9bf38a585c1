package handlers

import (
	"net/http"

	"go-storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.GET("/api/system/status", h.GetSystemStatus)
	r.POST("/login", h.Login)

	// --- FEATURE FLAG: Admin Registration ---
	if allowRegistration {
		r.POST("/register", h.Register)
		zap.L().Warn("registration route is OPEN, disable this in production")
	} else {
		zap.L().Info("registration route is disabled")
	}

	// --- STOREFRONT ---
	api := r.Group("/api")
	{
		api.GET("/products", h.GetProducts)
		api.GET("/products/:slug", h.GetProduct)
		api.GET("/search", h.SearchProducts)

		api.POST("/orders", h.CreateOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/pay", h.StartPayment)

		api.POST("/payment/webhook", h.PaymentWebhook)
		api.GET("/payment/webhook", h.PaymentWebhook)
	}

	// --- ADMIN ONLY ---
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.Tokens), middleware.RequireRole("admin"))
	{
		admin.POST("/ask", h.AskAI)

		admin.POST("/products", h.AddProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.GET("/discounts", h.ListDiscounts)
		admin.POST("/discounts", h.CreateDiscount)
		admin.DELETE("/discounts/:id", h.DeleteDiscount)

		admin.GET("/reports", h.GetSalesReport)
		admin.GET("/reports/valuation", h.GetStockValuation)
	}
}
