// Package pricing turns a base price and the discounts covering an item into
// the price shown and charged everywhere in the shop. It is the only place
// that does discount arithmetic.
package pricing

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is how a discount amount is read.
type Kind string

const (
	Percent Kind = "percent"
	Fixed   Kind = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Discount is one candidate rule. Window fields only matter to IsLive;
// StartsAt and ID also order candidates with equal magnitude.
type Discount struct {
	ID       uint            `json:"id"`
	Kind     Kind            `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Active   bool            `json:"active"`
	StartsAt *time.Time      `json:"starts_at,omitempty"`
	EndsAt   *time.Time      `json:"ends_at,omitempty"`
}

// Resolved is the derived price of an item. It is never stored.
type Resolved struct {
	FinalPriceHuf     int64  `json:"final_price_huf"`
	CompareAtPriceHuf *int64 `json:"compare_at_price_huf,omitempty"`
	Invalid           bool   `json:"invalid"`
	DiscountID        uint   `json:"discount_id,omitempty"`
}

// Discounted reports whether a struck-through compare-at price applies.
func (r Resolved) Discounted() bool {
	return r.CompareAtPriceHuf != nil
}

// Magnitude is the HUF value a discount takes off basePriceHuf.
// Percent amounts are rounded half away from zero.
func Magnitude(basePriceHuf int64, d Discount) int64 {
	switch Kind(strings.ToLower(string(d.Kind))) {
	case Percent:
		return decimal.NewFromInt(basePriceHuf).Mul(d.Amount).Div(hundred).Round(0).IntPart()
	case Fixed:
		return d.Amount.Round(0).IntPart()
	}
	return 0
}

// Resolve picks the discount worth the most HUF and applies it.
//
// Equal magnitudes go to the earliest StartsAt (unset counts as earliest), then
// the lowest ID, then the earlier position in discounts. A winner that would
// push the price below zero is treated as bad data: the result is flagged
// Invalid and the base price is kept without a compare-at price.
func Resolve(basePriceHuf int64, discounts []Discount) Resolved {
	if basePriceHuf < 0 {
		basePriceHuf = 0
	}

	var (
		best     int64
		bestIdx  = -1
		resolved = Resolved{FinalPriceHuf: basePriceHuf}
	)
	for i, d := range discounts {
		m := Magnitude(basePriceHuf, d)
		if m <= 0 {
			continue
		}
		if bestIdx < 0 || m > best || (m == best && before(d, discounts[bestIdx])) {
			best, bestIdx = m, i
		}
	}
	if bestIdx < 0 {
		return resolved
	}

	final := basePriceHuf - best
	if final < 0 {
		resolved.Invalid = true
		return resolved
	}

	compareAt := basePriceHuf
	resolved.FinalPriceHuf = final
	resolved.CompareAtPriceHuf = &compareAt
	resolved.DiscountID = discounts[bestIdx].ID
	return resolved
}

// before orders two candidates of equal magnitude.
func before(a, b Discount) bool {
	switch {
	case a.StartsAt == nil && b.StartsAt != nil:
		return true
	case a.StartsAt != nil && b.StartsAt == nil:
		return false
	case a.StartsAt != nil && !a.StartsAt.Equal(*b.StartsAt):
		return a.StartsAt.Before(*b.StartsAt)
	}
	return a.ID != 0 && (b.ID == 0 || a.ID < b.ID)
}

// ParseAmount reads a discount amount from loosely typed input (JSON numbers,
// numeric strings). Anything that is not a finite number becomes zero.
func ParseAmount(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(x, ",", ".")))
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		return ParseAmount(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(x)
	case float32:
		return ParseAmount(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	}
	return decimal.Zero
}
