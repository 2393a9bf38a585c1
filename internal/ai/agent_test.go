package ai

import (
	"context"
	"testing"
	"time"

	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/pricing"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	items       []catalog.Item
	invalidated int
}

func (f *fakeInventory) List(context.Context, catalog.ListQuery) ([]catalog.Item, error) {
	return f.items, nil
}

func (f *fakeInventory) Invalidate(context.Context) { f.invalidated++ }

type fakeProducts struct {
	products  map[string]*models.Product
	discounts []models.Discount
	updates   map[uint]map[string]interface{}
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string, _ time.Time) (*models.Product, error) {
	p, ok := f.products[slug]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) UpdateProduct(_ context.Context, id uint, u map[string]interface{}) (*models.Product, error) {
	if f.updates == nil {
		f.updates = map[uint]map[string]interface{}{}
	}
	f.updates[id] = u
	return &models.Product{ID: id}, nil
}

func (f *fakeProducts) LiveDiscounts(context.Context, time.Time) ([]models.Discount, error) {
	return f.discounts, nil
}

type fakeReports struct {
	start, end time.Time
}

func (f *fakeReports) SalesReport(_ context.Context, start, end time.Time) (*database.SalesReportResult, error) {
	f.start, f.end = start, end
	return &database.SalesReportResult{TotalRevenue: 1250000, TotalCount: 4}, nil
}

func newTestAgent() (*Agent, *fakeInventory, *fakeProducts, *fakeReports) {
	inv := &fakeInventory{items: []catalog.Item{{
		Slug: "thinkpad-x1", Name: "ThinkPad X1", BasePriceHuf: 600000,
		Resolved: pricing.Resolved{FinalPriceHuf: 540000},
	}}}
	products := &fakeProducts{
		products: map[string]*models.Product{"thinkpad-x1": {ID: 3, Slug: "thinkpad-x1"}},
		discounts: []models.Discount{{
			ID: 9, Name: "Back to school", Kind: models.DiscountPercent, Amount: decimal.NewFromInt(10), Active: true,
			Products: []models.Product{{Slug: "thinkpad-x1"}},
		}},
	}
	reports := &fakeReports{}
	a := NewAgent("key", "gemini-test", inv, products, reports)
	a.now = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }
	return a, inv, products, reports
}

func TestRunTool_CheckInventory(t *testing.T) {
	a, _, _, _ := newTestAgent()

	out := a.runTool(context.Background(), genai.FunctionCall{Name: "check_inventory"})

	inventory, ok := out["inventory"].(string)
	require.True(t, ok)
	assert.Contains(t, inventory, `"final_price_huf":540000`)
	assert.Contains(t, inventory, `"slug":"thinkpad-x1"`)
}

func TestRunTool_LiveDiscounts(t *testing.T) {
	a, _, _, _ := newTestAgent()

	out := a.runTool(context.Background(), genai.FunctionCall{Name: "list_live_discounts"})

	discounts, ok := out["discounts"].(string)
	require.True(t, ok)
	assert.Contains(t, discounts, `"name":"Back to school"`)
	assert.Contains(t, discounts, `"products":["thinkpad-x1"]`)
}

func TestRunTool_UpdatePrice(t *testing.T) {
	a, inv, products, _ := newTestAgent()

	out := a.runTool(context.Background(), genai.FunctionCall{
		Name: "update_product_price",
		Args: map[string]any{"slug": "thinkpad-x1", "base_price_huf": float64(579990)},
	})

	assert.Equal(t, "Success", out["status"])
	assert.Equal(t, map[string]interface{}{"base_price_huf": int64(579990)}, products.updates[3])
	assert.Equal(t, 1, inv.invalidated)
}

func TestRunTool_UpdatePriceUnknownProduct(t *testing.T) {
	a, inv, products, _ := newTestAgent()

	out := a.runTool(context.Background(), genai.FunctionCall{
		Name: "update_product_price",
		Args: map[string]any{"slug": "nope", "base_price_huf": float64(1)},
	})

	assert.Equal(t, "Product not found", out["status"])
	assert.Empty(t, products.updates)
	assert.Zero(t, inv.invalidated)
}

func TestRunTool_SalesReport(t *testing.T) {
	a, _, _, reports := newTestAgent()

	out := a.runTool(context.Background(), genai.FunctionCall{
		Name: "get_sales_report",
		Args: map[string]any{"start_date": "2025-08-01", "end_date": "2025-08-31"},
	})

	assert.Equal(t, int64(1250000), out["revenue_huf"])
	assert.Equal(t, int64(4), out["sales_count"])
	assert.Equal(t, time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC), reports.end)

	bad := a.runTool(context.Background(), genai.FunctionCall{
		Name: "get_sales_report",
		Args: map[string]any{"start_date": "aug 1", "end_date": "2025-08-31"},
	})
	assert.Contains(t, bad, "error")
}

func TestAsk_RequiresKey(t *testing.T) {
	a := NewAgent("", "gemini-test", nil, nil, nil)
	_, err := a.Ask(context.Background(), "hello")
	assert.Error(t, err)
}
