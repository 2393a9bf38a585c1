package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listedItem struct {
	Slug              string `json:"slug"`
	BasePriceHuf      int64  `json:"base_price_huf"`
	FinalPriceHuf     int64  `json:"final_price_huf"`
	CompareAtPriceHuf *int64 `json:"compare_at_price_huf"`
	Invalid           bool   `json:"invalid"`
}

func slugs(items []listedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Slug)
	}
	return out
}

func TestGetProducts_ResolvedPrices(t *testing.T) {
	s := newShop(t)

	w := s.do(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]listedItem](t, w)
	require.Len(t, items, 3)

	bySlug := map[string]listedItem{}
	for _, it := range items {
		bySlug[it.Slug] = it
	}

	mac := bySlug["macbook-air-m3"]
	assert.Equal(t, int64(900000), mac.FinalPriceHuf, "10% of 1 000 000 beats the 50 000 fixed discount")
	require.NotNil(t, mac.CompareAtPriceHuf)
	assert.Equal(t, int64(1000000), *mac.CompareAtPriceHuf)

	nokia := bySlug["nokia-105"]
	assert.True(t, nokia.Invalid)
	assert.Equal(t, int64(1000), nokia.FinalPriceHuf)
	assert.Nil(t, nokia.CompareAtPriceHuf)

	ps5 := bySlug["ps5-slim"]
	assert.Equal(t, int64(189990), ps5.FinalPriceHuf)
	assert.Nil(t, ps5.CompareAtPriceHuf)
}

func TestGetProducts_CeilingAndSort(t *testing.T) {
	s := newShop(t)

	w := s.do(http.MethodGet, "/api/products?maxPrice=950000&sort=price_asc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"nokia-105", "ps5-slim", "macbook-air-m3"}, slugs(decode[[]listedItem](t, w)),
		"the laptop's base price is above the ceiling but its resolved price is not")

	w = s.do(http.MethodGet, "/api/products?maxPrice=500000&sort=price_desc", nil, "")
	assert.Equal(t, []string{"ps5-slim", "nokia-105"}, slugs(decode[[]listedItem](t, w)))

	w = s.do(http.MethodGet, "/api/products?kind=laptop", nil, "")
	assert.Equal(t, []string{"macbook-air-m3"}, slugs(decode[[]listedItem](t, w)))
}

func TestGetProducts_BadQuery(t *testing.T) {
	s := newShop(t)

	for _, path := range []string{
		"/api/products?kind=tablet",
		"/api/products?maxPrice=cheap",
		"/api/products?maxPrice=-1",
		"/api/products?sort=random",
		"/api/search?q=mac&maxPrice=1.5",
	} {
		w := s.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), `"error"`, path)
	}
}

func TestGetProduct(t *testing.T) {
	s := newShop(t)

	w := s.do(http.MethodGet, "/api/products/macbook-air-m3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		listedItem
		Discounts []map[string]any `json:"discounts"`
	}](t, w)
	assert.Equal(t, int64(900000), detail.FinalPriceHuf)
	assert.Len(t, detail.Discounts, 2)

	w = s.do(http.MethodGet, "/api/products/no-such-thing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchProducts(t *testing.T) {
	s := newShop(t)

	w := s.do(http.MethodGet, "/api/search?q=PLAYSTATION", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ps5-slim"}, slugs(decode[[]listedItem](t, w)))

	w = s.do(http.MethodGet, "/api/search?q=", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
