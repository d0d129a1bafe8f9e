package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Price tables are JSON objects keyed by ISO currency code.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		moq INT NOT NULL DEFAULT 1,
		base_price JSON NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variant_types (
		product_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		name VARCHAR(64) NOT NULL,
		value_list JSON NOT NULL,
		PRIMARY KEY (product_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS variants (
		id VARCHAR(64) PRIMARY KEY,
		product_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		sku VARCHAR(64) NOT NULL,
		attrs JSON NOT NULL,
		prices JSON NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		image VARCHAR(512) NOT NULL DEFAULT '',
		INDEX idx_variants_product (product_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS reseller_tiers (
		product_id VARCHAR(64) NOT NULL,
		name VARCHAR(64) NOT NULL,
		minimum_quantity INT NOT NULL,
		discount_percent DECIMAL(7,4) NOT NULL,
		unit_price JSON NOT NULL,
		PRIMARY KEY (product_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS promos (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS promo_variants (
		promo_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		variant_id VARCHAR(64) NOT NULL,
		original_price JSON NOT NULL,
		discount_percentage JSON NOT NULL,
		discounted_price JSON NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		stock INT NOT NULL DEFAULT 0,
		PRIMARY KEY (promo_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		currency CHAR(3) NOT NULL,
		shipping_cost DECIMAL(20,4) NOT NULL DEFAULT 0,
		discount_shipping DECIMAL(20,4) NOT NULL DEFAULT 0,
		include_shipping BOOLEAN NOT NULL DEFAULT FALSE,
		total DECIMAL(20,4) NOT NULL,
		status VARCHAR(20) NOT NULL,
		version INT NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_orders_user (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id CHAR(36) PRIMARY KEY,
		order_id BIGINT NOT NULL,
		position INT NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		variant_id VARCHAR(64) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		sku VARCHAR(64) NOT NULL,
		quantity INT NOT NULL,
		original_price JSON NOT NULL,
		discounted_price JSON NOT NULL,
		discount_percentage JSON NOT NULL,
		subtotal DECIMAL(20,4) NOT NULL,
		INDEX idx_order_items_order (order_id, position)
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
