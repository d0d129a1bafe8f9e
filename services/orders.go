package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/catalog"
	"storefront/config"
	"storefront/currency"
	"storefront/ledger"
	"storefront/logger"
	"storefront/models"
	"storefront/promo"
	"storefront/quote"
	"storefront/resolver"
)

const (
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// OrderService prices, validates and persists orders for the cart, the
// admin create screen and the admin edit screen.
type OrderService struct {
	Catalog           CatalogSource
	Promos            PromoSource
	Orders            OrderRepository
	Events            EventPublisher
	Policy            config.PricingPolicy
	PaymentCheckDelay time.Duration
	Now               func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// session holds the catalog and promo snapshot one request prices against.
type session struct {
	svc      *OrderService
	ctx      context.Context
	caller   Caller
	now      time.Time
	promos   []promo.Promo
	products map[string]*catalog.Product
}

func (s *OrderService) newSession(ctx context.Context, caller Caller) (*session, error) {
	now := s.now()
	promos, err := s.Promos.ListPromos(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list promos: %w", err)
	}
	return &session{
		svc:      s,
		ctx:      ctx,
		caller:   caller,
		now:      now,
		promos:   promos,
		products: make(map[string]*catalog.Product),
	}, nil
}

func (ss *session) product(id string) (*catalog.Product, error) {
	if p, ok := ss.products[id]; ok {
		return p, nil
	}
	p, err := ss.svc.Catalog.GetProduct(ss.ctx, id)
	if err != nil {
		return nil, err
	}
	ss.products[id] = p
	return p, nil
}

func (ss *session) variant(productID, variantID string) (*catalog.Product, catalog.Variant, error) {
	p, err := ss.product(productID)
	if err != nil {
		return nil, catalog.Variant{}, err
	}
	v, ok := p.Variant(variantID)
	if !ok || !v.Complete() {
		return nil, catalog.Variant{}, fmt.Errorf("%w: %s/%s", ErrVariantNotFound, productID, variantID)
	}
	return p, v, nil
}

// lineItem prices one line in c. The quantity is clamped into
// [MOQ, stock]; strict rejects variants whose stock cannot reach the MOQ.
func (ss *session) lineItem(c currency.Code, productID, variantID string, qty int, strict bool) (ledger.LineItem, error) {
	p, v, err := ss.variant(productID, variantID)
	if err != nil {
		return ledger.LineItem{}, err
	}
	if strict && v.Stock < p.MinimumOrderQuantity {
		return ledger.LineItem{}, fmt.Errorf("%w: %s has %d, needs %d", ErrQuantityUnavailable, v.SKU, v.Stock, p.MinimumOrderQuantity)
	}
	qty = resolver.ClampQuantity(qty, p.MinimumOrderQuantity, v.Stock)

	q, err := ss.quote(p, v, c, qty)
	if err != nil {
		return ledger.LineItem{}, err
	}
	it := ledger.NewLineItem(p.ID, p.Name, v, qty, c)
	if q.HasDiscount {
		it = ledger.Reprice(it, c, q.OriginalPrice, q.UnitPrice)
	}
	return it, nil
}

func (ss *session) quote(p *catalog.Product, v catalog.Variant, c currency.Code, qty int) (quote.Result, error) {
	return quote.Quote(quote.Input{
		Product:    p,
		Variant:    v,
		Promos:     ss.promos,
		Now:        ss.now,
		Currency:   c,
		Quantity:   qty,
		IsReseller: ss.caller.IsReseller(),
		Precedence: ss.svc.Policy.Precedence,
		TierMode:   ss.svc.Policy.TierMode,
	})
}

// requote prices it in c at qty, but only while its current price is still
// the catalog quote for its current quantity. Manually priced lines and
// lines whose variant is gone report false.
func (ss *session) requote(it ledger.LineItem, c currency.Code, qty int) (quote.Result, bool, error) {
	p, v, err := ss.variant(it.ProductID, it.VariantID)
	if err != nil {
		if IsNotFound(err) {
			return quote.Result{}, false, nil
		}
		return quote.Result{}, false, err
	}
	current, err := ss.quote(p, v, it.Currency, it.Quantity)
	if err != nil {
		return quote.Result{}, false, err
	}
	if !it.EffectivePrice().Equal(current.UnitPrice) || !it.OriginalPrice.Get(it.Currency).Equal(current.OriginalPrice) {
		return quote.Result{}, false, nil
	}
	q, err := ss.quote(p, v, c, qty)
	if err != nil {
		return quote.Result{}, false, err
	}
	return q, true, nil
}

func (ss *session) variantsByID(items []ledger.LineItem) (map[string]catalog.Variant, error) {
	out := make(map[string]catalog.Variant)
	for _, it := range items {
		p, err := ss.product(it.ProductID)
		if err != nil {
			return nil, err
		}
		for id, v := range p.VariantsByID() {
			out[id] = v
		}
	}
	return out, nil
}

func (s *OrderService) build(ctx context.Context, caller Caller, draft models.OrderDraft, strict bool) (ledger.Order, error) {
	c, err := resolveCurrency(draft.Currency, s.Policy.DefaultCurrency)
	if err != nil {
		return ledger.Order{}, err
	}
	include := s.Policy.IncludeShippingOnCreate
	if draft.IncludeShipping != nil {
		include = *draft.IncludeShipping
	}

	ss, err := s.newSession(ctx, caller)
	if err != nil {
		return ledger.Order{}, err
	}
	l := ledger.New(ledger.Order{
		Currency:         c,
		ShippingCost:     draft.ShippingCost.Amount(),
		DiscountShipping: draft.DiscountShipping.Amount(),
		IncludeShipping:  include,
	})
	for _, item := range draft.Items {
		it, err := ss.lineItem(c, item.ProductID, item.VariantID, item.Quantity.Int(), strict)
		if err != nil {
			return ledger.Order{}, err
		}
		if caller.IsAdmin() {
			switch {
			case item.DiscountPercentage != nil:
				it = ledger.SetDiscountPercent(it, c, item.DiscountPercentage.Percent())
			case item.DiscountedPrice != nil:
				it = ledger.SetDiscountedPrice(it, c, item.DiscountedPrice.Amount())
			}
		}
		l.Add(it)
	}
	return l.Order(), nil
}

// Preview prices a draft without saving it. Quantities are clamped, never
// rejected.
func (s *OrderService) Preview(ctx context.Context, caller Caller, draft models.OrderDraft) (ledger.Order, error) {
	return s.build(ctx, caller, draft, false)
}

// Create prices, validates and saves a new order, then schedules the
// payment check.
func (s *OrderService) Create(ctx context.Context, caller Caller, draft models.OrderDraft) (ledger.Order, error) {
	if len(draft.Items) == 0 {
		return ledger.Order{}, ErrEmptyOrder
	}
	order, err := s.build(ctx, caller, draft, true)
	if err != nil {
		return ledger.Order{}, err
	}

	now := s.now()
	order.UserID = caller.UserID
	order.Status = StatusPending
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now

	id, err := s.Orders.CreateOrder(ctx, order)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("create order: %w", err)
	}
	order.ID = id

	var priority uint8 = 5
	if caller.IsReseller() {
		priority = 9
	}
	s.publish(ctx, order, models.EventCreated, priority)
	s.publishDelayed(ctx, order, models.EventPaymentCheck, s.PaymentCheckDelay)
	return order, nil
}

// Update applies a batch of line-item edits to a stored order. The caller's
// version must match the stored one.
func (s *OrderService) Update(ctx context.Context, caller Caller, id int64, req models.OrderEditRequest) (ledger.Order, error) {
	order, err := s.load(ctx, caller, id)
	if err != nil {
		return ledger.Order{}, err
	}
	if order.Version != req.Version {
		return ledger.Order{}, fmt.Errorf("%w: have version %d, stored %d", ErrVersionConflict, req.Version, order.Version)
	}

	ss, err := s.newSession(ctx, caller)
	if err != nil {
		return ledger.Order{}, err
	}
	l := ledger.New(order)
	for i, edit := range req.Edits {
		if err := ss.apply(l, edit); err != nil {
			return ledger.Order{}, fmt.Errorf("edit %d (%s): %w", i, edit.Op, err)
		}
	}

	updated := l.Order()
	if len(updated.Items) == 0 {
		return ledger.Order{}, ErrEmptyOrder
	}
	updated.UpdatedAt = s.now()
	version, err := s.Orders.UpdateOrder(ctx, updated)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	updated.Version = version

	s.publish(ctx, updated, models.EventUpdated, 5)
	return updated, nil
}

func (ss *session) apply(l *ledger.Ledger, e models.OrderEdit) error {
	order := l.Order()
	c := order.Currency
	if e.Currency != "" {
		parsed, ok := currency.Parse(e.Currency)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCurrency, e.Currency)
		}
		c = parsed
	}

	switch e.Op {
	case models.EditAdd:
		it, err := ss.lineItem(order.Currency, e.ProductID, e.VariantID, e.Value.Int(), true)
		if err != nil {
			return err
		}
		l.Add(it)
		return nil
	case models.EditSwitchCurrency:
		variants, err := ss.variantsByID(order.Items)
		if err != nil {
			return err
		}
		quoted := make(map[uuid.UUID]quote.Result, len(order.Items))
		for _, it := range order.Items {
			q, ok, err := ss.requote(it, c, it.Quantity)
			if err != nil {
				return err
			}
			if ok {
				quoted[it.ID] = q
			}
		}
		l.SwitchCurrency(variants, c)
		for id, q := range quoted {
			l.Reprice(id, c, q.OriginalPrice, q.UnitPrice)
		}
		return nil
	case models.EditSetShipping:
		include := ss.svc.Policy.IncludeShippingOnEdit
		if e.IncludeShipping != nil {
			include = *e.IncludeShipping
		}
		l.SetShipping(e.ShippingCost.Amount(), e.DiscountShipping.Amount(), include)
		return nil
	}

	switch e.Op {
	case models.EditSetQuantity, models.EditRemove,
		models.EditSetOriginalPrice, models.EditSetDiscountPercent, models.EditSetDiscountedPrice:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEdit, e.Op)
	}

	itemID, err := uuid.Parse(e.ItemID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrLineItemNotFound, e.ItemID)
	}
	var found bool
	switch e.Op {
	case models.EditSetQuantity:
		it, ok := findItem(order.Items, itemID)
		if !ok {
			break
		}
		qty := e.Value.Int()
		if p, v, err := ss.variant(it.ProductID, it.VariantID); err == nil {
			qty = resolver.ClampQuantity(qty, p.MinimumOrderQuantity, v.Stock)
		}
		q, quoted, err := ss.requote(it, order.Currency, qty)
		if err != nil {
			return err
		}
		found = l.SetQuantity(itemID, qty)
		if quoted {
			l.Reprice(itemID, order.Currency, q.OriginalPrice, q.UnitPrice)
		}
	case models.EditRemove:
		found = l.Remove(itemID)
	case models.EditSetOriginalPrice, models.EditSetDiscountPercent, models.EditSetDiscountedPrice:
		if !ss.caller.IsAdmin() {
			return ErrForbidden
		}
		switch e.Op {
		case models.EditSetOriginalPrice:
			found = l.SetOriginalPrice(itemID, c, e.Value.Amount())
		case models.EditSetDiscountPercent:
			found = l.SetDiscountPercent(itemID, c, e.Value.Percent())
		default:
			found = l.SetDiscountedPrice(itemID, c, e.Value.Amount())
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrLineItemNotFound, itemID)
	}
	return nil
}

func findItem(items []ledger.LineItem, id uuid.UUID) (ledger.LineItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return ledger.LineItem{}, false
}

func (s *OrderService) load(ctx context.Context, caller Caller, id int64) (ledger.Order, error) {
	order, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return ledger.Order{}, err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return ledger.Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, caller Caller, id int64) (ledger.Order, error) {
	return s.load(ctx, caller, id)
}

func (s *OrderService) List(ctx context.Context, caller Caller) ([]ledger.Order, error) {
	return s.Orders.ListUserOrders(ctx, caller.UserID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, caller Caller, id int64, status string) (ledger.Order, error) {
	order, err := s.load(ctx, caller, id)
	if err != nil {
		return ledger.Order{}, err
	}
	if err := s.Orders.UpdateOrderStatus(ctx, id, status); err != nil {
		return ledger.Order{}, fmt.Errorf("update status of order %d: %w", id, err)
	}
	order.Status = status

	var priority uint8 = 5
	if status == StatusCancelled {
		priority = 8
	}
	s.publish(ctx, order, models.EventStatusUpdated, priority)
	return order, nil
}

// HandlePaymentCheck cancels an order that is still pending when its
// delayed payment check fires.
func (s *OrderService) HandlePaymentCheck(ctx context.Context, id int64) error {
	order, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != StatusPending {
		return nil
	}
	if err := s.Orders.UpdateOrderStatus(ctx, id, StatusCancelled); err != nil {
		return fmt.Errorf("auto-cancel order %d: %w", id, err)
	}
	logger.FromContext(ctx).Info("Auto-cancelled order due to non-payment", zap.Int64("order_id", id))
	order.Status = StatusCancelled
	s.publish(ctx, order, models.EventStatusUpdated, 8)
	return nil
}

func (s *OrderService) event(order ledger.Order, eventType string) models.OrderEvent {
	return models.OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     eventType,
		Status:   order.Status,
		Currency: order.Currency.String(),
		Total:    order.TotalAmount,
		Occurred: s.now(),
	}
}

// Event delivery is best effort: a saved order is never rolled back because
// the broker is unavailable.
func (s *OrderService) publish(ctx context.Context, order ledger.Order, eventType string, priority uint8) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishOrderEvent(ctx, s.event(order, eventType), priority); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish order event",
			zap.Int64("order_id", order.ID), zap.String("type", eventType), zap.Error(err))
	}
}

func (s *OrderService) publishDelayed(ctx context.Context, order ledger.Order, eventType string, delay time.Duration) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishDelayedEvent(ctx, s.event(order, eventType), delay); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish delayed order event",
			zap.Int64("order_id", order.ID), zap.String("type", eventType), zap.Error(err))
	}
}

// IsNotFound reports whether err means the addressed resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrVariantNotFound) ||
		errors.Is(err, ErrPromoNotFound) || errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrLineItemNotFound)
}
