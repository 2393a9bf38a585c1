package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountInput accepts the amount as a number or a string ("12,5" works too)
type DiscountInput struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind" binding:"required"`
	Amount   any        `json:"amount"`
	Active   *bool      `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Products []string   `json:"products"`
}

var hundred = decimal.NewFromInt(100)

// --- GET: /api/admin/discounts ---
func (h *Handler) ListDiscounts(c *gin.Context) {
	list, err := h.Products.ListDiscounts(c.Request.Context())
	if err != nil {
		zap.L().Error("list discounts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch discounts"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- POST: /api/admin/discounts ---
func (h *Handler) CreateDiscount(c *gin.Context) {
	var in DiscountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	kind := models.DiscountKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	amount := pricing.ParseAmount(in.Amount)
	switch {
	case kind != models.DiscountPercent && kind != models.DiscountFixed:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be percent or fixed"})
		return
	case !amount.IsPositive():
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	case kind == models.DiscountPercent && amount.GreaterThan(hundred):
		c.JSON(http.StatusBadRequest, gin.H{"error": "a percent discount cannot exceed 100"})
		return
	case in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at is before starts_at"})
		return
	case len(in.Products) == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "products must list at least one slug"})
		return
	}

	d := models.Discount{
		Name:     strings.TrimSpace(in.Name),
		Kind:     kind,
		Amount:   amount,
		Active:   in.Active == nil || *in.Active,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
	}
	if err := h.Products.CreateDiscount(c.Request.Context(), &d, in.Products); err != nil {
		zap.L().Error("create discount failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create discount"})
		return
	}
	if len(d.Products) < len(in.Products) {
		zap.L().Warn("discount created with unknown slugs",
			zap.Uint("discount_id", d.ID), zap.Strings("requested", in.Products), zap.Int("linked", len(d.Products)))
	}

	h.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, d)
}

// --- DELETE: /api/admin/discounts/:id ---
func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	err := h.Products.DeleteDiscount(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Discount not found"})
		return
	}
	if err != nil {
		zap.L().Error("delete discount failed", zap.Uint("discount_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete discount"})
		return
	}

	h.Catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Discount deleted successfully"})
}
