package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
	"storefront/pricing"
)

// PromoVariant is one variant's discount record inside a promo. Each
// currency's percentage and discounted price are kept consistent with each
// other and independent of every other currency.
type PromoVariant struct {
	VariantID          string           `json:"variant_id"`
	OriginalPrice      currency.Amounts `json:"original_price"`
	DiscountPercentage currency.Amounts `json:"discount_percentage"`
	DiscountedPrice    currency.Amounts `json:"discounted_price"`
	IsActive           bool             `json:"is_active"`
	Stock              int              `json:"stock"`
}

// NewPromoVariant seeds an undiscounted record from a catalog variant.
func NewPromoVariant(v catalog.Variant) PromoVariant {
	return PromoVariant{
		VariantID:     v.ID,
		OriginalPrice: v.Price,
		IsActive:      true,
		Stock:         v.Stock,
	}
}

// HasDiscount reports whether a discount is recorded for c.
func (pv PromoVariant) HasDiscount(c currency.Code) bool {
	return pv.DiscountPercentage.Get(c).IsPositive()
}

func (pv PromoVariant) clear(c currency.Code) PromoVariant {
	pv.DiscountPercentage = pv.DiscountPercentage.With(c, decimal.Zero)
	pv.DiscountedPrice = pv.DiscountedPrice.With(c, decimal.Zero)
	return pv
}

// SetDiscountPercent edits c's percentage and recomputes c's discounted price.
func (pv PromoVariant) SetDiscountPercent(c currency.Code, pct decimal.Decimal) PromoVariant {
	discounted, pct, ok := pricing.ApplyPercent(c, pv.OriginalPrice.Get(c), pct)
	if !ok {
		return pv.clear(c)
	}
	pv.DiscountPercentage = pv.DiscountPercentage.With(c, pct)
	pv.DiscountedPrice = pv.DiscountedPrice.With(c, discounted)
	return pv
}

// SetDiscountedPrice edits c's discounted price and recomputes c's percentage.
func (pv PromoVariant) SetDiscountedPrice(c currency.Code, price decimal.Decimal) PromoVariant {
	discounted, pct, ok := pricing.ApplyDiscountedPrice(c, pv.OriginalPrice.Get(c), price)
	if !ok {
		return pv.clear(c)
	}
	pv.DiscountPercentage = pv.DiscountPercentage.With(c, pct)
	pv.DiscountedPrice = pv.DiscountedPrice.With(c, discounted)
	return pv
}

// PromoProduct groups a product's promo entries.
type PromoProduct struct {
	ProductID string         `json:"product_id"`
	Variants  []PromoVariant `json:"variants"`
}

// Promo is a time-windowed set of discount records.
type Promo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	IsActive  bool           `json:"is_active"`
	Products  []PromoProduct `json:"products"`
}

// New builds a promo from the complete variants of the given products.
func New(id, name string, start, end time.Time, products ...*catalog.Product) Promo {
	p := Promo{ID: id, Name: name, StartDate: start, EndDate: end, IsActive: true}
	for _, product := range products {
		entry := PromoProduct{ProductID: product.ID}
		for _, v := range product.Variants {
			if v.Complete() {
				entry.Variants = append(entry.Variants, NewPromoVariant(v))
			}
		}
		p.Products = append(p.Products, entry)
	}
	return p
}

// ActiveAt reports whether now falls inside [StartDate, EndDate) of an
// enabled promo.
func (p Promo) ActiveAt(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && now.Before(p.EndDate)
}

// Entry finds the record for a variant.
func (p Promo) Entry(variantID string) (PromoVariant, bool) {
	for _, product := range p.Products {
		for _, pv := range product.Variants {
			if pv.VariantID == variantID {
				return pv, true
			}
		}
	}
	return PromoVariant{}, false
}

// WithEntry returns a copy of p with the record for pv.VariantID replaced.
// The second result is false when the promo has no such record.
func (p Promo) WithEntry(pv PromoVariant) (Promo, bool) {
	products := make([]PromoProduct, len(p.Products))
	found := false
	for i, product := range p.Products {
		variants := make([]PromoVariant, len(product.Variants))
		copy(variants, product.Variants)
		for j := range variants {
			if variants[j].VariantID == pv.VariantID {
				variants[j] = pv
				found = true
			}
		}
		products[i] = PromoProduct{ProductID: product.ProductID, Variants: variants}
	}
	p.Products = products
	return p, found
}

// Active filters promos down to those in effect at now.
func Active(promos []Promo, now time.Time) []Promo {
	var out []Promo
	for _, p := range promos {
		if p.ActiveAt(now) {
			out = append(out, p)
		}
	}
	return out
}
