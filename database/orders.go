package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/ledger"
	"storefront/services"
)

const orderColumns = `id, user_id, currency, shipping_cost, discount_shipping, include_shipping,
	total, status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (ledger.Order, error) {
	var (
		o    ledger.Order
		code string
	)
	if err := row.Scan(&o.ID, &o.UserID, &code, &o.ShippingCost, &o.DiscountShipping, &o.IncludeShipping,
		&o.TotalAmount, &o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return ledger.Order{}, err
	}
	c, err := parseCurrency(code)
	if err != nil {
		return ledger.Order{}, err
	}
	o.Currency = c
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o ledger.Order) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO orders (user_id, currency, shipping_cost, discount_shipping, include_shipping,
				total, status, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.UserID, o.Currency.String(), o.ShippingCost, o.DiscountShipping, o.IncludeShipping,
			o.TotalAmount, o.Status, o.Version, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("get order id: %w", err)
		}
		return insertItems(ctx, tx, id, o.Items)
	})
	return id, err
}

// UpdateOrder rewrites the order and its items when the stored version still
// equals o.Version, and returns the incremented version.
func (s *Store) UpdateOrder(ctx context.Context, o ledger.Order) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET currency = ?, shipping_cost = ?, discount_shipping = ?, include_shipping = ?,
				total = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			o.Currency.String(), o.ShippingCost, o.DiscountShipping, o.IncludeShipping,
			o.TotalAmount, o.UpdatedAt.UTC(), o.ID, o.Version,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if affected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)", o.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if !exists {
				return fmt.Errorf("%w: %d", services.ErrOrderNotFound, o.ID)
			}
			return fmt.Errorf("%w: order %d", services.ErrVersionConflict, o.ID)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", o.ID); err != nil {
			return fmt.Errorf("clear order items: %w", err)
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	if err != nil {
		return 0, err
	}
	return o.Version + 1, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []ledger.LineItem) error {
	for i, it := range items {
		original, err := encodeJSON(it.OriginalPrice)
		if err != nil {
			return err
		}
		discounted, err := encodeJSON(it.DiscountedPrice)
		if err != nil {
			return err
		}
		pct, err := encodeJSON(it.DiscountPercentage)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, variant_id, product_name, sku,
				quantity, original_price, discounted_price, discount_percentage, subtotal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID.String(), orderID, i, it.ProductID, it.VariantID, it.ProductName, it.SKU,
			it.Quantity, original, discounted, pct, it.SubTotal,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (ledger.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Order{}, fmt.Errorf("%w: %d", services.ErrOrderNotFound, id)
	}
	if err != nil {
		return ledger.Order{}, fmt.Errorf("query order %d: %w", id, err)
	}
	if o.Items, err = s.orderItems(ctx, o); err != nil {
		return ledger.Order{}, err
	}
	return o, nil
}

func (s *Store) ListUserOrders(ctx context.Context, userID int) ([]ledger.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders := []ledger.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = s.orderItems(ctx, orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) orderItems(ctx context.Context, o ledger.Order) ([]ledger.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, product_name, sku, quantity,
			original_price, discounted_price, discount_percentage, subtotal
		FROM order_items
		WHERE order_id = ?
		ORDER BY position`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []ledger.LineItem{}
	for rows.Next() {
		var (
			it                        ledger.LineItem
			original, discounted, pct []byte
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.ProductName, &it.SKU, &it.Quantity,
			&original, &discounted, &pct, &it.SubTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if it.OriginalPrice, err = decodeAmounts(original); err != nil {
			return nil, err
		}
		if it.DiscountedPrice, err = decodeAmounts(discounted); err != nil {
			return nil, err
		}
		if it.DiscountPercentage, err = decodeAmounts(pct); err != nil {
			return nil, err
		}
		it.Currency = o.Currency
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", services.ErrOrderNotFound, id)
	}
	return nil
}

var (
	_ services.CatalogSource   = (*Store)(nil)
	_ services.PromoSource     = (*Store)(nil)
	_ services.OrderRepository = (*Store)(nil)
)
