package handlers

import (
	"net/http"
	"sort"

	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportData defines the shape of our analytics response
type ReportData struct {
	TotalRevenueHuf int64                `json:"total_revenue_huf"`
	TotalOrders     int64                `json:"total_orders"`
	TopSelling      []database.TopSeller `json:"top_selling"`
	RecentOrders    []models.Order       `json:"recent_orders"`
}

// --- GET: /api/admin/reports ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	ctx := c.Request.Context()
	var data ReportData

	// 1. Paid revenue and order count (all time)
	totals, err := h.Reports.TotalSales(ctx)
	if err != nil {
		zap.L().Error("sales totals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate revenue"})
		return
	}
	data.TotalRevenueHuf = totals.TotalRevenue
	data.TotalOrders = totals.TotalCount

	// 2. Top 5 best sellers
	data.TopSelling, err = h.Reports.TopSelling(ctx, 5)
	if err != nil {
		zap.L().Error("top sellers failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top selling items"})
		return
	}

	// 3. Last 10 orders, newest first
	data.RecentOrders, err = h.Recent.ListRecent(ctx, 10)
	if err != nil {
		zap.L().Error("recent orders failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent orders"})
		return
	}

	c.JSON(http.StatusOK, data)
}

// ValuationItem is one product row of the valuation table
type ValuationItem struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	UnitPriceHuf int64  `json:"unit_price_huf"`
	TotalHuf     int64  `json:"total_huf"`
}

// KindGroup is one table of the valuation report (e.g. all laptops)
type KindGroup struct {
	Kind        models.ProductKind `json:"kind"`
	Items       []ValuationItem    `json:"items"`
	SubtotalHuf int64              `json:"subtotal_huf"`
}

type ValuationResponse struct {
	Kinds         []KindGroup `json:"kinds"`
	GrandTotalHuf int64       `json:"grand_total_huf"`
}

// --- GET: /api/admin/reports/valuation ---
// GetStockValuation values the stock on hand at the price a customer would
// pay right now.
func (h *Handler) GetStockValuation(c *gin.Context) {
	now := h.now()

	// 1. Every product with its live discounts
	products, err := h.Products.ListProducts(c.Request.Context(), database.ProductFilter{}, now)
	if err != nil {
		zap.L().Error("valuation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	// 2. Group by kind
	var response ValuationResponse
	grouped := make(map[models.ProductKind]*KindGroup)
	for _, p := range products {
		group, ok := grouped[p.Kind]
		if !ok {
			group = &KindGroup{Kind: p.Kind, Items: []ValuationItem{}}
			grouped[p.Kind] = group
		}

		unit := catalog.Price(p, now).FinalPriceHuf
		total := unit * int64(p.Stock)
		group.Items = append(group.Items, ValuationItem{
			Slug:         p.Slug,
			Name:         p.Name,
			Quantity:     p.Stock,
			UnitPriceHuf: unit,
			TotalHuf:     total,
		})
		group.SubtotalHuf += total
		response.GrandTotalHuf += total
	}

	// 3. Flatten in a stable order
	response.Kinds = make([]KindGroup, 0, len(grouped))
	for _, group := range grouped {
		response.Kinds = append(response.Kinds, *group)
	}
	sort.Slice(response.Kinds, func(i, j int) bool { return response.Kinds[i].Kind < response.Kinds[j].Kind })

	c.JSON(http.StatusOK, response)
}
