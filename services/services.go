package services

import (
	"context"
	"errors"
	"time"

	"storefront/catalog"
	"storefront/ledger"
	"storefront/models"
	"storefront/pricing"
	"storefront/promo"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrPromoNotFound       = errors.New("promo not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrLineItemNotFound    = errors.New("line item not found")
	ErrVersionConflict     = errors.New("order was modified concurrently")
	ErrEmptyOrder          = errors.New("order must contain at least one item")
	ErrQuantityUnavailable = errors.New("stock cannot cover the minimum order quantity")
	ErrUnknownCurrency     = errors.New("unsupported currency")
	ErrUnknownEdit         = errors.New("unknown edit operation")
	ErrForbidden           = errors.New("operation not permitted for this role")
)

// CatalogSource supplies products, with their reseller tiers, by id.
type CatalogSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// TierWriter stores a product's reseller tiers wholesale.
type TierWriter interface {
	SaveResellerTiers(ctx context.Context, productID string, tiers []pricing.ResellerTier) error
}

// PromoSource supplies promos and takes promo-builder edits back wholesale.
type PromoSource interface {
	ListPromos(ctx context.Context, now time.Time) ([]promo.Promo, error)
	GetPromo(ctx context.Context, id string) (promo.Promo, error)
	SavePromo(ctx context.Context, p promo.Promo) error
}

// OrderRepository persists fully materialised orders. UpdateOrder must only
// succeed when the stored version equals o.Version, and returns the new one.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o ledger.Order) (int64, error)
	UpdateOrder(ctx context.Context, o ledger.Order) (int, error)
	GetOrder(ctx context.Context, id int64) (ledger.Order, error)
	ListUserOrders(ctx context.Context, userID int) ([]ledger.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent, priority uint8) error
	PublishDelayedEvent(ctx context.Context, event models.OrderEvent, delay time.Duration) error
}

const (
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
)

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID int
	Role   string
}

func (c Caller) IsAdmin() bool    { return c.Role == RoleAdmin }
func (c Caller) IsReseller() bool { return c.Role == RoleReseller }
