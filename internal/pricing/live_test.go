package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLive(t *testing.T) {
	now := time.Date(2025, 11, 28, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		d    Discount
		want bool
	}{
		{"active open window", Discount{Active: true}, true},
		{"inactive", Discount{Active: false}, false},
		{"inside window", Discount{Active: true, StartsAt: &past, EndsAt: &future}, true},
		{"not started", Discount{Active: true, StartsAt: &future}, false},
		{"ended", Discount{Active: true, EndsAt: &past}, false},
		{"starts exactly now", Discount{Active: true, StartsAt: &now}, true},
		{"ends exactly now", Discount{Active: true, EndsAt: &now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLive(tt.d, now))
		})
	}
}

func TestLiveCandidates(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	live := LiveCandidates([]Discount{
		{ID: 1, Active: true},
		{ID: 2, Active: false},
		{ID: 3, Active: true, EndsAt: &past},
		{ID: 4, Active: true, StartsAt: &past},
	}, now)

	var ids []uint
	for _, d := range live {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []uint{1, 4}, ids)
}

type listing struct {
	slug  string
	price Resolved
}

func priceOf(l listing) Resolved { return l.price }

func TestFilterByCeiling_UsesResolvedPrice(t *testing.T) {
	base := int64(120000)
	items := []listing{
		{"discounted", Resolved{FinalPriceHuf: 95000, CompareAtPriceHuf: &base}},
		{"full-price", Resolved{FinalPriceHuf: 120000}},
		{"cheap", Resolved{FinalPriceHuf: 40000}},
	}

	got := FilterByCeiling(items, 100000, priceOf)

	assert.Len(t, got, 2)
	assert.Equal(t, "discounted", got[0].slug)
	assert.Equal(t, "cheap", got[1].slug)
}

func TestFilterByCeiling_NoCeiling(t *testing.T) {
	items := []listing{{"a", Resolved{FinalPriceHuf: 1}}, {"b", Resolved{FinalPriceHuf: 2}}}
	assert.Len(t, FilterByCeiling(items, 0, priceOf), 2)
}

func TestSortByPrice(t *testing.T) {
	items := []listing{
		{"mid", Resolved{FinalPriceHuf: 500}},
		{"low", Resolved{FinalPriceHuf: 100}},
		{"high", Resolved{FinalPriceHuf: 900}},
	}

	SortByPrice(items, true, priceOf)
	assert.Equal(t, "low", items[0].slug)
	assert.Equal(t, "high", items[2].slug)

	SortByPrice(items, false, priceOf)
	assert.Equal(t, "high", items[0].slug)
	assert.Equal(t, "low", items[2].slug)
}
