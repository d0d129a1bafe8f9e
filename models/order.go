package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDraft is an order as submitted from the cart or the admin create
// screen, before pricing.
type OrderDraft struct {
	Currency         string      `json:"currency"`
	Items            []DraftItem `json:"items"`
	ShippingCost     Numeric     `json:"shipping_cost"`
	DiscountShipping Numeric     `json:"discount_shipping"`
	// IncludeShipping overrides the configured policy for this flow.
	IncludeShipping *bool `json:"include_shipping"`
}

type DraftItem struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID string  `json:"variant_id" binding:"required"`
	Quantity  Numeric `json:"quantity"`
	// Manual discounts, honoured for admins only.
	DiscountPercentage *Numeric `json:"discount_percentage"`
	DiscountedPrice    *Numeric `json:"discounted_price"`
}

// Order edit operations.
const (
	EditSetQuantity        = "set_quantity"
	EditSetOriginalPrice   = "set_original_price"
	EditSetDiscountPercent = "set_discount_percent"
	EditSetDiscountedPrice = "set_discounted_price"
	EditRemove             = "remove"
	EditAdd                = "add"
	EditSwitchCurrency     = "switch_currency"
	EditSetShipping        = "set_shipping"
)

type OrderEdit struct {
	Op       string  `json:"op" binding:"required"`
	ItemID   string  `json:"item_id"`
	Currency string  `json:"currency"`
	Value    Numeric `json:"value"`
	// add
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	// set_shipping
	ShippingCost     Numeric `json:"shipping_cost"`
	DiscountShipping Numeric `json:"discount_shipping"`
	IncludeShipping  *bool   `json:"include_shipping"`
}

type OrderEditRequest struct {
	Version int         `json:"version"`
	Edits   []OrderEdit `json:"edits" binding:"required"`
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// Order event types.
const (
	EventCreated       = "created"
	EventUpdated       = "updated"
	EventStatusUpdated = "status_updated"
	EventPaymentCheck  = "payment_check"
)

type OrderEvent struct {
	OrderID  int64           `json:"order_id"`
	UserID   int             `json:"user_id"`
	Type     string          `json:"type"`
	Status   string          `json:"status"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Occurred time.Time       `json:"occurred"`
}
