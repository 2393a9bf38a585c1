package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-storefront/internal/catalog"
	"go-storefront/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxPriceParam reads ?maxPrice=; empty means no ceiling.
func maxPriceParam(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Query("maxPrice"))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPrice must be a non-negative whole number"})
		return 0, false
	}
	return v, true
}

// --- GET: /api/products?kind=&q=&maxPrice=&sort= ---
func (h *Handler) GetProducts(c *gin.Context) {
	q := catalog.ListQuery{Query: c.Query("q"), Sort: c.Query("sort")}

	if kind := c.Query("kind"); kind != "" {
		q.Kind = models.ProductKind(strings.ToLower(kind))
		if !q.Kind.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product kind"})
			return
		}
	}
	switch q.Sort {
	case "", "price_asc", "price_desc":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be price_asc or price_desc"})
		return
	}
	ceiling, ok := maxPriceParam(c)
	if !ok {
		return
	}
	q.MaxPriceHuf = ceiling

	items, err := h.Catalog.List(c.Request.Context(), q)
	if err != nil {
		zap.L().Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// --- GET: /api/products/:slug ---
func (h *Handler) GetProduct(c *gin.Context) {
	detail, err := h.Catalog.Get(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		zap.L().Error("get product failed", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// --- GET: /api/search?q= ---
func (h *Handler) SearchProducts(c *gin.Context) {
	ceiling, ok := maxPriceParam(c)
	if !ok {
		return
	}
	items, err := h.Catalog.Search(c.Request.Context(), c.Query("q"), ceiling)
	if err != nil {
		zap.L().Error("search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
