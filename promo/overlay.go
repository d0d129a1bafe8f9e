package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
)

// EffectivePrice is the overlay's verdict for one variant in one currency.
type EffectivePrice struct {
	Currency           currency.Code   `json:"currency"`
	Price              decimal.Decimal `json:"price"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	HasDiscount        bool            `json:"has_discount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	PromoID            string          `json:"promo_id,omitempty"`
	// ResellerEligible tells the caller tier pricing may also apply. The
	// overlay never applies tiers itself.
	ResellerEligible bool `json:"reseller_eligible"`
}

// MinEffectivePrice scans the promos active at now for an enabled record of
// v discounted in c and returns the lowest such price. Without one it falls
// back to the catalog base price. Stored promos are never modified.
func MinEffectivePrice(v catalog.Variant, promos []Promo, now time.Time, c currency.Code, isReseller bool) EffectivePrice {
	best := EffectivePrice{
		Currency:         c,
		Price:            v.Price.Get(c),
		OriginalPrice:    v.Price.Get(c),
		ResellerEligible: isReseller,
	}
	for _, p := range promos {
		if !p.ActiveAt(now) {
			continue
		}
		pv, ok := p.Entry(v.ID)
		if !ok || !pv.IsActive || !pv.HasDiscount(c) {
			continue
		}
		price := pv.DiscountedPrice.Get(c)
		if best.HasDiscount && !price.LessThan(best.Price) {
			continue
		}
		best.Price = price
		best.OriginalPrice = pv.OriginalPrice.Get(c)
		best.DiscountPercentage = pv.DiscountPercentage.Get(c)
		best.HasDiscount = true
		best.PromoID = p.ID
	}
	return best
}
