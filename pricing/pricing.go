package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/currency"
)

// PercentPlaces is the precision discount percentages are stored at.
const PercentPlaces int32 = 4

var hundred = decimal.NewFromInt(100)

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// DiscountedFromPercent returns original * (1 - percent/100), rounded to the
// currency's minor unit.
func DiscountedFromPercent(c currency.Code, original, percent decimal.Decimal) decimal.Decimal {
	original = currency.NonNegative(original)
	factor := decimal.NewFromInt(1).Sub(ClampPercent(percent).Div(hundred))
	return c.Round(original.Mul(factor))
}

// PercentFromDiscounted is the inverse of DiscountedFromPercent. It is zero
// when the original price is not positive.
func PercentFromDiscounted(original, discounted decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() {
		return decimal.Zero
	}
	pct := original.Sub(discounted).Mul(hundred).DivRound(original, PercentPlaces)
	return ClampPercent(pct)
}

// ApplyPercent computes the discounted price for percent. ok is false when the
// result is not an actual discount, in which case the caller must store no
// discount at all rather than a zero-percent record.
func ApplyPercent(c currency.Code, original, percent decimal.Decimal) (discounted, pct decimal.Decimal, ok bool) {
	pct = ClampPercent(percent)
	if !pct.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}
	discounted = DiscountedFromPercent(c, original, pct)
	if original.IsPositive() && discounted.GreaterThanOrEqual(original) {
		return decimal.Zero, decimal.Zero, false
	}
	return discounted, pct, true
}

// ApplyDiscountedPrice derives the percentage for an explicitly entered
// discounted price. Same collapse rule as ApplyPercent.
func ApplyDiscountedPrice(c currency.Code, original, price decimal.Decimal) (discounted, pct decimal.Decimal, ok bool) {
	discounted = c.Round(currency.NonNegative(price))
	if discounted.GreaterThanOrEqual(original) {
		return decimal.Zero, decimal.Zero, false
	}
	pct = PercentFromDiscounted(original, discounted)
	if !pct.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}
	return discounted, pct, true
}

// ParsePercent coerces free-form input into a percentage in [0, 100].
func ParsePercent(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return ClampPercent(d)
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// ParseQuantity coerces free-form input into a whole quantity in
// [0, math.MaxInt32].
func ParseQuantity(s string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0
	}
	if d.GreaterThan(maxQuantity) {
		return math.MaxInt32
	}
	return int(d.IntPart())
}
