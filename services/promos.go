package services

import (
	"context"
	"fmt"

	"storefront/config"
	"storefront/models"
	"storefront/promo"
)

// PromoService backs the promo-builder screen.
type PromoService struct {
	Promos PromoSource
	Policy config.PricingPolicy
}

// EditVariant applies one edit to one variant's record, in one currency,
// and writes the whole promo back.
func (s *PromoService) EditVariant(ctx context.Context, caller Caller, promoID, variantID string, edit models.PromoVariantEdit) (promo.Promo, error) {
	if !caller.IsAdmin() {
		return promo.Promo{}, ErrForbidden
	}
	c, err := resolveCurrency(edit.Currency, s.Policy.DefaultCurrency)
	if err != nil {
		return promo.Promo{}, err
	}
	p, err := s.Promos.GetPromo(ctx, promoID)
	if err != nil {
		return promo.Promo{}, err
	}
	pv, ok := p.Entry(variantID)
	if !ok {
		return promo.Promo{}, fmt.Errorf("%w: %s in promo %s", ErrVariantNotFound, variantID, promoID)
	}

	switch {
	case edit.DiscountPercentage != nil:
		pv = pv.SetDiscountPercent(c, edit.DiscountPercentage.Percent())
	case edit.DiscountedPrice != nil:
		pv = pv.SetDiscountedPrice(c, edit.DiscountedPrice.Amount())
	}
	if edit.IsActive != nil {
		pv.IsActive = *edit.IsActive
	}

	p, _ = p.WithEntry(pv)
	if err := s.Promos.SavePromo(ctx, p); err != nil {
		return promo.Promo{}, fmt.Errorf("save promo %s: %w", promoID, err)
	}
	return p, nil
}
