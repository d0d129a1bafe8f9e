package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
)

// Order is a fully materialised order: the unit handed to persistence.
type Order struct {
	ID               int64           `json:"id"`
	UserID           int             `json:"user_id"`
	Currency         currency.Code   `json:"currency"`
	Items            []LineItem      `json:"items"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	DiscountShipping decimal.Decimal `json:"discount_shipping"`
	IncludeShipping  bool            `json:"include_shipping"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           string          `json:"status"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Ledger owns one order's line items and keeps TotalAmount derived from the
// full line set after every change.
type Ledger struct {
	order Order
}

// New takes ownership of a copy of o, forcing every line into the order's
// currency and re-establishing every subtotal and the total.
func New(o Order) *Ledger {
	items := make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		it.Currency = o.Currency
		items[i] = SetQuantity(it, it.Quantity)
	}
	o.Items = items
	l := &Ledger{order: o}
	l.total()
	return l
}

func (l *Ledger) total() {
	l.order.TotalAmount = RecomputeOrderTotal(l.order.Items, l.order.ShippingCost, l.order.DiscountShipping, l.order.IncludeShipping)
}

// Order returns a snapshot of the current state.
func (l *Ledger) Order() Order {
	o := l.order
	o.Items = make([]LineItem, len(l.order.Items))
	copy(o.Items, l.order.Items)
	return o
}

func (l *Ledger) update(id uuid.UUID, fn func(LineItem) LineItem) bool {
	for i, it := range l.order.Items {
		if it.ID == id {
			l.order.Items[i] = fn(it)
			l.total()
			return true
		}
	}
	return false
}

// Add appends a line priced in the order's currency.
func (l *Ledger) Add(it LineItem) {
	it.Currency = l.order.Currency
	l.order.Items = append(l.order.Items, SetQuantity(it, it.Quantity))
	l.total()
}

// Remove drops a line. It reports whether the line existed.
func (l *Ledger) Remove(id uuid.UUID) bool {
	before := len(l.order.Items)
	l.order.Items = RemoveLineItem(l.order.Items, id)
	l.total()
	return len(l.order.Items) != before
}

func (l *Ledger) SetQuantity(id uuid.UUID, qty int) bool {
	return l.update(id, func(it LineItem) LineItem { return SetQuantity(it, qty) })
}

func (l *Ledger) SetOriginalPrice(id uuid.UUID, c currency.Code, price decimal.Decimal) bool {
	return l.update(id, func(it LineItem) LineItem { return SetOriginalPrice(it, c, price) })
}

func (l *Ledger) SetDiscountPercent(id uuid.UUID, c currency.Code, pct decimal.Decimal) bool {
	return l.update(id, func(it LineItem) LineItem { return SetDiscountPercent(it, c, pct) })
}

func (l *Ledger) SetDiscountedPrice(id uuid.UUID, c currency.Code, price decimal.Decimal) bool {
	return l.update(id, func(it LineItem) LineItem { return SetDiscountedPrice(it, c, price) })
}

// Reprice sets c's prices from a quote. It reports whether the line existed.
func (l *Ledger) Reprice(id uuid.UUID, c currency.Code, original, unit decimal.Decimal) bool {
	return l.update(id, func(it LineItem) LineItem { return Reprice(it, c, original, unit) })
}

// SetShipping replaces the shipping terms.
func (l *Ledger) SetShipping(cost, discount decimal.Decimal, include bool) {
	l.order.ShippingCost = currency.NonNegative(cost)
	l.order.DiscountShipping = currency.NonNegative(discount)
	l.order.IncludeShipping = include
	l.total()
}

// SwitchCurrency reprices the whole order in c.
func (l *Ledger) SwitchCurrency(variantsByID map[string]catalog.Variant, c currency.Code) {
	l.order.Items = SwitchCurrency(l.order.Items, variantsByID, c)
	l.order.Currency = c
	l.total()
}
