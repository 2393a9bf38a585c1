package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-storefront/internal/database"
	"go-storefront/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductInput is what the admin UI sends for a new product
type ProductInput struct {
	Slug         string `json:"slug" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Kind         string `json:"kind" binding:"required"`
	Category     string `json:"category"`
	BasePriceHuf int64  `json:"base_price_huf"`
	Stock        int    `json:"stock"`
	ImageURL     string `json:"image_url"`
}

// updatable columns for PUT /products/:id
var productColumns = map[string]bool{
	"slug": true, "name": true, "kind": true, "category": true,
	"base_price_huf": true, "stock": true, "image_url": true,
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in ProductInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Check the values the storefront relies on
	kind := models.ProductKind(strings.ToLower(in.Kind))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be laptop, pc, phone or console"})
		return
	}
	if in.BasePriceHuf < 0 || in.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price and stock cannot be negative"})
		return
	}

	product := models.Product{
		Slug:         strings.TrimSpace(in.Slug),
		Name:         strings.TrimSpace(in.Name),
		Kind:         kind,
		Category:     in.Category,
		BasePriceHuf: in.BasePriceHuf,
		Stock:        in.Stock,
		ImageURL:     in.ImageURL,
	}

	// 3. Save to DB
	if err := h.Products.CreateProduct(c.Request.Context(), &product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A product with this slug already exists"})
			return
		}
		zap.L().Error("create product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	h.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, product)
}

// --- PUT: Update Price or Stock ---
// Only the fields sent are changed.
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, ok := idParam(c)
	if !ok {
		return
	}

	// 2. Read the partial update
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil || len(updateData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if msg := checkProductUpdate(updateData); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// 3. Save updates
	product, err := h.Products.UpdateProduct(c.Request.Context(), id, updateData)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		zap.L().Error("update product failed", zap.Uint("product_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	h.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// checkProductUpdate returns a message for the first bad field, or "".
func checkProductUpdate(u map[string]interface{}) string {
	for key, v := range u {
		if !productColumns[key] {
			return "Unknown field: " + key
		}
		switch key {
		case "base_price_huf", "stock":
			n, ok := v.(float64)
			if !ok || n < 0 || n != float64(int64(n)) {
				return key + " must be a non-negative whole number"
			}
		case "kind":
			s, _ := v.(string)
			if !models.ProductKind(s).Valid() {
				return "kind must be laptop, pc, phone or console"
			}
		default:
			if _, ok := v.(string); !ok {
				return key + " must be a string"
			}
		}
	}
	return ""
}

// --- DELETE: Remove a product ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	err := h.Products.DeleteProduct(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		zap.L().Error("delete product failed", zap.Uint("product_id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not delete product"})
		return
	}

	h.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
