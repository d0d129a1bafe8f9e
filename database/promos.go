package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/promo"
	"storefront/services"
)

const promoColumns = "id, name, start_date, end_date, is_active"

// ListPromos returns the promos whose window contains now.
func (s *Store) ListPromos(ctx context.Context, now time.Time) ([]promo.Promo, error) {
	return s.queryPromos(ctx, "start_date <= ? AND end_date > ?", now.UTC(), now.UTC())
}

// ListPromosOverlapping returns the promos whose window overlaps [from, to).
func (s *Store) ListPromosOverlapping(ctx context.Context, from, to time.Time) ([]promo.Promo, error) {
	return s.queryPromos(ctx, "start_date < ? AND end_date > ?", to.UTC(), from.UTC())
}

func (s *Store) queryPromos(ctx context.Context, window string, args ...any) ([]promo.Promo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+promoColumns+" FROM promos WHERE is_active = TRUE AND "+window+" ORDER BY start_date",
		args...)
	if err != nil {
		return nil, fmt.Errorf("query promos: %w", err)
	}
	var promos []promo.Promo
	for rows.Next() {
		var p promo.Promo
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan promo: %w", err)
		}
		promos = append(promos, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range promos {
		if promos[i].Products, err = s.promoProducts(ctx, promos[i].ID); err != nil {
			return nil, err
		}
	}
	return promos, nil
}

func (s *Store) GetPromo(ctx context.Context, id string) (promo.Promo, error) {
	var p promo.Promo
	err := s.db.QueryRowContext(ctx,
		"SELECT "+promoColumns+" FROM promos WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return promo.Promo{}, fmt.Errorf("%w: %s", services.ErrPromoNotFound, id)
	}
	if err != nil {
		return promo.Promo{}, fmt.Errorf("query promo %s: %w", id, err)
	}
	if p.Products, err = s.promoProducts(ctx, id); err != nil {
		return promo.Promo{}, err
	}
	return p, nil
}

type promoVariantRow struct {
	productID string
	variant   promo.PromoVariant
}

// groupPromoVariants rebuilds the per-product grouping, keeping the order in
// which products first appear.
func groupPromoVariants(rows []promoVariantRow) []promo.PromoProduct {
	var products []promo.PromoProduct
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.productID]
		if !ok {
			i = len(products)
			index[r.productID] = i
			products = append(products, promo.PromoProduct{ProductID: r.productID})
		}
		products[i].Variants = append(products[i].Variants, r.variant)
	}
	return products
}

func (s *Store) promoProducts(ctx context.Context, promoID string) ([]promo.PromoProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, variant_id, original_price, discount_percentage, discounted_price, is_active, stock
		FROM promo_variants
		WHERE promo_id = ?
		ORDER BY position`, promoID)
	if err != nil {
		return nil, fmt.Errorf("query promo variants: %w", err)
	}
	defer rows.Close()

	var out []promoVariantRow
	for rows.Next() {
		var (
			r                       promoVariantRow
			original, pct, discount []byte
		)
		if err := rows.Scan(&r.productID, &r.variant.VariantID, &original, &pct, &discount,
			&r.variant.IsActive, &r.variant.Stock); err != nil {
			return nil, fmt.Errorf("scan promo variant: %w", err)
		}
		if r.variant.OriginalPrice, err = decodeAmounts(original); err != nil {
			return nil, err
		}
		if r.variant.DiscountPercentage, err = decodeAmounts(pct); err != nil {
			return nil, err
		}
		if r.variant.DiscountedPrice, err = decodeAmounts(discount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupPromoVariants(out), nil
}

// SavePromo writes the promo and every PromoVariant record wholesale.
func (s *Store) SavePromo(ctx context.Context, p promo.Promo) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO promos (id, name, start_date, end_date, is_active)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name), start_date = VALUES(start_date),
				end_date = VALUES(end_date), is_active = VALUES(is_active)`,
			p.ID, p.Name, p.StartDate.UTC(), p.EndDate.UTC(), p.IsActive,
		); err != nil {
			return fmt.Errorf("upsert promo %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM promo_variants WHERE promo_id = ?", p.ID); err != nil {
			return fmt.Errorf("clear promo variants: %w", err)
		}

		position := 0
		for _, product := range p.Products {
			for _, pv := range product.Variants {
				original, err := encodeJSON(pv.OriginalPrice)
				if err != nil {
					return err
				}
				pct, err := encodeJSON(pv.DiscountPercentage)
				if err != nil {
					return err
				}
				discounted, err := encodeJSON(pv.DiscountedPrice)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO promo_variants (promo_id, position, product_id, variant_id,
						original_price, discount_percentage, discounted_price, is_active, stock)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					p.ID, position, product.ProductID, pv.VariantID,
					original, pct, discounted, pv.IsActive, pv.Stock,
				); err != nil {
					return fmt.Errorf("insert promo variant %s: %w", pv.VariantID, err)
				}
				position++
			}
		}
		return nil
	})
}
