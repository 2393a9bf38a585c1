package pricing

import (
	"cmp"
	"slices"
	"time"
)

// IsLive reports whether d is switched on and now falls inside its window.
// Unset window ends are open.
func IsLive(d Discount, now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return true
}

// LiveCandidates keeps the discounts that are live at now, in input order.
func LiveCandidates(discounts []Discount, now time.Time) []Discount {
	live := make([]Discount, 0, len(discounts))
	for _, d := range discounts {
		if IsLive(d, now) {
			live = append(live, d)
		}
	}
	return live
}

// FilterByCeiling keeps items whose resolved final price is at most
// maxPriceHuf. A non-positive ceiling keeps everything. Filtering on the
// resolved price keeps discounted items visible under a low cap.
func FilterByCeiling[T any](items []T, maxPriceHuf int64, price func(T) Resolved) []T {
	if maxPriceHuf <= 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if price(it).FinalPriceHuf <= maxPriceHuf {
			out = append(out, it)
		}
	}
	return out
}

// SortByPrice orders items by resolved final price, keeping the input order
// between equal prices.
func SortByPrice[T any](items []T, ascending bool, price func(T) Resolved) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := cmp.Compare(price(a).FinalPriceHuf, price(b).FinalPriceHuf)
		if !ascending {
			c = -c
		}
		return c
	})
}
