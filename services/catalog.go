package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/currency"
	"storefront/models"
	"storefront/pricing"
)

// CatalogService holds the catalog admin operations.
type CatalogService struct {
	Catalog CatalogSource
	Tiers   TierWriter
}

// RefreshTiers re-snapshots every reseller tier unit price from the
// product's current base price.
func (s *CatalogService) RefreshTiers(ctx context.Context, caller Caller, productID string) ([]pricing.ResellerTier, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	p, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	tiers := pricing.RefreshTierSnapshots(p.ResellerTiers, p.BasePrice)
	if err := s.Tiers.SaveResellerTiers(ctx, productID, tiers); err != nil {
		return nil, fmt.Errorf("save reseller tiers of %s: %w", productID, err)
	}
	return tiers, nil
}

// ConvertDiscount runs the percent and discounted-price conversion for one
// currency. A percentage, when sent, wins over a discounted price.
func ConvertDiscount(req models.DiscountRequest) (models.DiscountResponse, error) {
	c, ok := currency.Parse(req.Currency)
	if !ok {
		return models.DiscountResponse{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, req.Currency)
	}
	places := c.Info().MinorUnits
	original := c.Round(req.OriginalPrice.Amount())
	resp := models.DiscountResponse{
		Currency:      c.String(),
		OriginalPrice: original.StringFixed(places),
	}

	var (
		discounted, pct decimal.Decimal
		applied         bool
	)
	switch {
	case req.DiscountPercentage != nil:
		discounted, pct, applied = pricing.ApplyPercent(c, original, req.DiscountPercentage.Percent())
	case req.DiscountedPrice != nil:
		discounted, pct, applied = pricing.ApplyDiscountedPrice(c, original, req.DiscountedPrice.Amount())
	}
	if applied {
		resp.HasDiscount = true
		resp.DiscountedPrice = discounted.StringFixed(places)
		resp.DiscountPercentage = pct.StringFixed(pricing.PercentPlaces)
	}
	return resp, nil
}
