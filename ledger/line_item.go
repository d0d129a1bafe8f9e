package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
	"storefront/pricing"
)

// LineItem is one order line. SubTotal always equals Quantity times the
// effective price in Currency; every setter re-establishes that.
type LineItem struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          string           `json:"product_id"`
	VariantID          string           `json:"variant_id"`
	ProductName        string           `json:"product_name"`
	SKU                string           `json:"sku"`
	Currency           currency.Code    `json:"currency"`
	Quantity           int              `json:"quantity"`
	OriginalPrice      currency.Amounts `json:"original_price"`
	DiscountedPrice    currency.Amounts `json:"discounted_price"`
	DiscountPercentage currency.Amounts `json:"discount_percentage"`
	SubTotal           decimal.Decimal  `json:"sub_total"`
}

// NewLineItem prices a variant from its catalog price table.
func NewLineItem(productID, productName string, v catalog.Variant, qty int, c currency.Code) LineItem {
	item := LineItem{
		ID:            uuid.New(),
		ProductID:     productID,
		VariantID:     v.ID,
		ProductName:   productName,
		SKU:           v.SKU,
		Currency:      c,
		OriginalPrice: v.Price,
	}
	return SetQuantity(item, qty)
}

// HasDiscount reports whether a discount is recorded for c.
func (it LineItem) HasDiscount(c currency.Code) bool {
	return it.DiscountPercentage.Get(c).IsPositive()
}

// EffectivePrice is the unit price charged in the item's currency.
func (it LineItem) EffectivePrice() decimal.Decimal {
	if it.HasDiscount(it.Currency) {
		return it.DiscountedPrice.Get(it.Currency)
	}
	return it.OriginalPrice.Get(it.Currency)
}

func (it LineItem) recompute() LineItem {
	it.SubTotal = it.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Quantity)))
	return it
}

func (it LineItem) clearDiscount(c currency.Code) LineItem {
	it.DiscountPercentage = it.DiscountPercentage.With(c, decimal.Zero)
	it.DiscountedPrice = it.DiscountedPrice.With(c, decimal.Zero)
	return it
}

func (it LineItem) applyPercent(c currency.Code, pct decimal.Decimal) LineItem {
	discounted, pct, ok := pricing.ApplyPercent(c, it.OriginalPrice.Get(c), pct)
	if !ok {
		return it.clearDiscount(c)
	}
	it.DiscountPercentage = it.DiscountPercentage.With(c, pct)
	it.DiscountedPrice = it.DiscountedPrice.With(c, discounted)
	return it
}

// SetQuantity changes the quantity; anything below one becomes one.
func SetQuantity(it LineItem, qty int) LineItem {
	if qty < 1 {
		qty = 1
	}
	it.Quantity = qty
	return it.recompute()
}

// SetOriginalPrice replaces c's original price, carrying an existing
// percentage over to a recomputed discounted price.
func SetOriginalPrice(it LineItem, c currency.Code, price decimal.Decimal) LineItem {
	it.OriginalPrice = it.OriginalPrice.With(c, currency.NonNegative(price))
	if it.HasDiscount(c) {
		it = it.applyPercent(c, it.DiscountPercentage.Get(c))
	}
	return it.recompute()
}

// SetDiscountPercent sets c's percentage; zero clears c's discount.
func SetDiscountPercent(it LineItem, c currency.Code, pct decimal.Decimal) LineItem {
	return it.applyPercent(c, pct).recompute()
}

// SetDiscountedPrice sets c's discounted price and derives the percentage.
func SetDiscountedPrice(it LineItem, c currency.Code, price decimal.Decimal) LineItem {
	discounted, pct, ok := pricing.ApplyDiscountedPrice(c, it.OriginalPrice.Get(c), price)
	if !ok {
		return it.clearDiscount(c).recompute()
	}
	it.DiscountPercentage = it.DiscountPercentage.With(c, pct)
	it.DiscountedPrice = it.DiscountedPrice.With(c, discounted)
	return it.recompute()
}

// RemoveLineItem returns items without the line identified by id.
func RemoveLineItem(items []LineItem, id uuid.UUID) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// Reprice replaces c's prices with a quoted original and unit price. A unit
// price at or above the original leaves no discount.
func Reprice(it LineItem, c currency.Code, original, unit decimal.Decimal) LineItem {
	it = it.clearDiscount(c)
	it.OriginalPrice = it.OriginalPrice.With(c, currency.NonNegative(original))
	return SetDiscountedPrice(it, c, unit)
}

// SwitchCurrency reprices every line in c from its variant's stored price
// table. A line carries one discount percentage, so the percentage held in
// its current currency is re-applied to the new original price. Lines whose
// variant is unknown keep their own c prices.
func SwitchCurrency(items []LineItem, variantsByID map[string]catalog.Variant, c currency.Code) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		pct := it.DiscountPercentage.Get(it.Currency)
		if v, ok := variantsByID[it.VariantID]; ok {
			it.OriginalPrice = it.OriginalPrice.With(c, v.Price.Get(c))
		}
		it = it.applyPercent(c, pct)
		it.Currency = c
		out[i] = it.recompute()
	}
	return out
}

// RecomputeOrderTotal sums every line's subtotal, optionally adding shipping
// and subtracting the shipping discount. Never negative.
func RecomputeOrderTotal(items []LineItem, shippingCost, discountShipping decimal.Decimal, includeShipping bool) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.SubTotal)
	}
	if includeShipping {
		total = total.Add(currency.NonNegative(shippingCost)).Sub(currency.NonNegative(discountShipping))
	}
	return currency.NonNegative(total)
}
