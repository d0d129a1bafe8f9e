package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/catalog"
	"storefront/pricing"
	"storefront/services"
)

// GetProduct loads a product with its variant types, variants and reseller
// tiers, normalised through catalog.NewProduct.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var (
		name      string
		moq       int
		basePrice []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT name, moq, base_price FROM products WHERE id = ?", id,
	).Scan(&name, &moq, &basePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", services.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", id, err)
	}

	types, err := s.variantTypes(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.variants(ctx, id)
	if err != nil {
		return nil, err
	}
	tiers, err := s.resellerTiers(ctx, id)
	if err != nil {
		return nil, err
	}

	p := catalog.NewProduct(id, name, types, variants, moq)
	if p.BasePrice, err = decodeAmounts(basePrice); err != nil {
		return nil, err
	}
	p.ResellerTiers = tiers
	return p, nil
}

func (s *Store) variantTypes(ctx context.Context, productID string) ([]catalog.VariantType, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, value_list FROM variant_types WHERE product_id = ? ORDER BY position", productID)
	if err != nil {
		return nil, fmt.Errorf("query variant types: %w", err)
	}
	defer rows.Close()

	var types []catalog.VariantType
	for rows.Next() {
		var (
			t      catalog.VariantType
			values []byte
		)
		if err := rows.Scan(&t.Name, &values); err != nil {
			return nil, fmt.Errorf("scan variant type: %w", err)
		}
		if err := decodeJSON(values, &t.Values); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) variants(ctx context.Context, productID string) ([]catalog.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, attrs, prices, stock, image
		FROM variants
		WHERE product_id = ?
		ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var variants []catalog.Variant
	for rows.Next() {
		var (
			v             catalog.Variant
			attrs, prices []byte
		)
		if err := rows.Scan(&v.ID, &v.SKU, &attrs, &prices, &v.Stock, &v.Image); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if err := decodeJSON(attrs, &v.Attrs); err != nil {
			return nil, err
		}
		if v.Price, err = decodeAmounts(prices); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *Store) resellerTiers(ctx context.Context, productID string) ([]pricing.ResellerTier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, minimum_quantity, discount_percent, unit_price
		FROM reseller_tiers
		WHERE product_id = ?
		ORDER BY minimum_quantity`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reseller tiers: %w", err)
	}
	defer rows.Close()

	var tiers []pricing.ResellerTier
	for rows.Next() {
		var (
			t         pricing.ResellerTier
			unitPrice []byte
		)
		if err := rows.Scan(&t.Name, &t.MinimumQuantity, &t.DiscountPercent, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan reseller tier: %w", err)
		}
		if t.UnitPrice, err = decodeAmounts(unitPrice); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// SaveResellerTiers replaces a product's tiers wholesale.
func (s *Store) SaveResellerTiers(ctx context.Context, productID string, tiers []pricing.ResellerTier) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reseller_tiers WHERE product_id = ?", productID); err != nil {
			return fmt.Errorf("clear reseller tiers: %w", err)
		}
		for _, t := range tiers {
			unitPrice, err := encodeJSON(t.UnitPrice)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO reseller_tiers (product_id, name, minimum_quantity, discount_percent, unit_price)
				VALUES (?, ?, ?, ?, ?)`,
				productID, t.Name, t.MinimumQuantity, t.DiscountPercent.StringFixed(pricing.PercentPlaces), unitPrice,
			); err != nil {
				return fmt.Errorf("insert reseller tier %s: %w", t.Name, err)
			}
		}
		return nil
	})
}
