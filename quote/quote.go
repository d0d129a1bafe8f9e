package quote

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
	"storefront/pricing"
	"storefront/promo"
)

// ErrPrecedenceRequired is returned for reseller quotes made without a
// promo-versus-tier precedence policy.
var ErrPrecedenceRequired = errors.New("reseller quote requires a price precedence policy")

// Source names where a quoted unit price came from.
type Source string

const (
	SourceBase  Source = "base"
	SourcePromo Source = "promo"
	SourceTier  Source = "tier"
)

type Input struct {
	Product    *catalog.Product
	Variant    catalog.Variant
	Promos     []promo.Promo
	Now        time.Time
	Currency   currency.Code
	Quantity   int
	IsReseller bool
	Precedence pricing.Precedence
	TierMode   pricing.TierMode
}

type Result struct {
	Currency           currency.Code         `json:"currency"`
	UnitPrice          decimal.Decimal       `json:"unit_price"`
	OriginalPrice      decimal.Decimal       `json:"original_price"`
	DiscountPercentage decimal.Decimal       `json:"discount_percentage"`
	HasDiscount        bool                  `json:"has_discount"`
	Source             Source                `json:"source"`
	PromoID            string                `json:"promo_id,omitempty"`
	Tier               *pricing.ResellerTier `json:"tier,omitempty"`
}

// TierPrice returns the unit price tier t charges for v under mode.
func TierPrice(t pricing.ResellerTier, v catalog.Variant, c currency.Code, mode pricing.TierMode) decimal.Decimal {
	if mode == pricing.TierLive {
		return t.LivePrice(c, v.Price)
	}
	return t.UnitPrice.Get(c)
}

// Quote computes the promo-overlay price and, for resellers, the applicable
// tier price, then picks one under the input's precedence policy.
func Quote(in Input) (Result, error) {
	c := in.Currency
	ep := promo.MinEffectivePrice(in.Variant, in.Promos, in.Now, c, in.IsReseller)
	res := Result{
		Currency:           c,
		UnitPrice:          ep.Price,
		OriginalPrice:      ep.OriginalPrice,
		DiscountPercentage: ep.DiscountPercentage,
		HasDiscount:        ep.HasDiscount,
		Source:             SourceBase,
	}
	if ep.HasDiscount {
		res.Source = SourcePromo
		res.PromoID = ep.PromoID
	}
	if !ep.ResellerEligible || in.Product == nil {
		return res, nil
	}
	if _, ok := pricing.ParsePrecedence(string(in.Precedence)); !ok {
		return Result{}, ErrPrecedenceRequired
	}

	tier := pricing.SelectApplicableTier(in.Product.ResellerTiers, in.Quantity)
	if tier == nil {
		return res, nil
	}
	base := in.Variant.Price.Get(c)
	tierPrice := TierPrice(*tier, in.Variant, c, in.TierMode)
	if !tierPrice.LessThan(base) {
		// a stale snapshot above the current base price is no discount
		return res, nil
	}
	tierRes := Result{
		Currency:           c,
		UnitPrice:          tierPrice,
		OriginalPrice:      base,
		DiscountPercentage: pricing.PercentFromDiscounted(base, tierPrice),
		HasDiscount:        true,
		Source:             SourceTier,
		Tier:               tier,
	}
	if !ep.HasDiscount {
		return tierRes, nil
	}

	switch in.Precedence {
	case pricing.PrecedenceTier:
		return tierRes, nil
	case pricing.PrecedenceLowest:
		if tierPrice.LessThan(ep.Price) {
			return tierRes, nil
		}
	}
	return res, nil
}
