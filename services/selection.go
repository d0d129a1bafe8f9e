package services

import (
	"context"
	"fmt"
	"time"

	"storefront/config"
	"storefront/currency"
	"storefront/models"
	"storefront/quote"
	"storefront/resolver"
)

type SelectionResult struct {
	resolver.Snapshot
	Currency currency.Code `json:"currency"`
	Quote    *quote.Result `json:"quote,omitempty"`
}

// SelectionService drives the variant selector and cart quantity picker.
type SelectionService struct {
	Catalog CatalogSource
	Promos  PromoSource
	Policy  config.PricingPolicy
	Now     func() time.Time
}

func (s *SelectionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Select applies an optional toggle to the submitted selection, resolves it
// and quotes the preview variant.
func (s *SelectionService) Select(ctx context.Context, caller Caller, productID string, req models.SelectionRequest) (SelectionResult, error) {
	c, err := resolveCurrency(req.Currency, s.Policy.DefaultCurrency)
	if err != nil {
		return SelectionResult{}, err
	}
	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return SelectionResult{}, err
	}

	sel := resolver.Selection(req.Selection).Clone()
	if req.Toggle != nil {
		sel = resolver.Toggle(sel, req.Toggle.Attribute, req.Toggle.Value)
	}
	res := SelectionResult{
		Snapshot: resolver.Resolve(product, sel, req.Quantity.Int()),
		Currency: c,
	}
	if res.Selected == nil {
		return res, nil
	}

	now := s.now()
	promos, err := s.Promos.ListPromos(ctx, now)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("list promos: %w", err)
	}
	q, err := quote.Quote(quote.Input{
		Product:    product,
		Variant:    *res.Selected,
		Promos:     promos,
		Now:        now,
		Currency:   c,
		Quantity:   res.Quantity,
		IsReseller: caller.IsReseller(),
		Precedence: s.Policy.Precedence,
		TierMode:   s.Policy.TierMode,
	})
	if err != nil {
		return SelectionResult{}, err
	}
	res.Quote = &q
	return res, nil
}

func resolveCurrency(code string, fallback currency.Code) (currency.Code, error) {
	if code == "" {
		return fallback, nil
	}
	c, ok := currency.Parse(code)
	if !ok {
		return fallback, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}
