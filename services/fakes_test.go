package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/catalog"
	"storefront/currency"
	"storefront/ledger"
	"storefront/models"
	"storefront/promo"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(idr, usd string) currency.Amounts {
	return currency.NewAmounts(map[currency.Code]decimal.Decimal{
		currency.IDR: d(idr),
		currency.USD: d(usd),
	})
}

var (
	promoStart = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	testNow    = promoStart.Add(72 * time.Hour)

	customer = Caller{UserID: 7, Role: "customer"}
	stranger = Caller{UserID: 8, Role: "customer"}
	admin    = Caller{UserID: 1, Role: RoleAdmin}
)

// shirt: MOQ 2, red-m sold out, blue-m cannot reach the MOQ.
func shirt() *catalog.Product {
	types := []catalog.VariantType{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S", "M"}},
	}
	v := func(id, color, size string, stock int, p currency.Amounts) catalog.Variant {
		return catalog.Variant{ID: id, SKU: "SH-" + id, Attrs: map[string]string{"Color": color, "Size": size}, Price: p, Stock: stock}
	}
	return catalog.NewProduct("shirt", "Shirt", types, []catalog.Variant{
		v("red-s", "Red", "S", 5, price("100000", "10.00")),
		v("red-m", "Red", "M", 0, price("100000", "10.00")),
		v("blue-s", "Blue", "S", 10, price("100000", "10.00")),
		v("blue-m", "Blue", "M", 1, price("120000", "12.00")),
	}, 2)
}

type fakeCatalog struct {
	products map[string]*catalog.Product
}

func newFakeCatalog(products ...*catalog.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]*catalog.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}

type fakePromos struct {
	mu     sync.Mutex
	promos map[string]promo.Promo
}

// flashSale takes 20% off red-s in IDR only.
func newFakePromos(p *catalog.Product) *fakePromos {
	pr := promo.New("flash", "Flash sale", promoStart, promoStart.AddDate(0, 0, 7), p)
	pv, _ := pr.Entry("red-s")
	pr, _ = pr.WithEntry(pv.SetDiscountPercent(currency.IDR, d("20")))
	return &fakePromos{promos: map[string]promo.Promo{pr.ID: pr}}
}

func (f *fakePromos) ListPromos(_ context.Context, now time.Time) ([]promo.Promo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []promo.Promo
	for _, p := range f.promos {
		all = append(all, p)
	}
	return promo.Active(all, now), nil
}

func (f *fakePromos) GetPromo(_ context.Context, id string) (promo.Promo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.promos[id]
	if !ok {
		return promo.Promo{}, fmt.Errorf("%w: %s", ErrPromoNotFound, id)
	}
	return p, nil
}

func (f *fakePromos) SavePromo(_ context.Context, p promo.Promo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promos[p.ID] = p
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]ledger.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[int64]ledger.Order)}
}

func (r *fakeOrders) CreateOrder(_ context.Context, o ledger.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = o
	return o.ID, nil
}

func (r *fakeOrders) UpdateOrder(_ context.Context, o ledger.Order) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return 0, ErrOrderNotFound
	}
	if stored.Version != o.Version {
		return 0, ErrVersionConflict
	}
	o.Version++
	r.orders[o.ID] = o
	return o.Version, nil
}

func (r *fakeOrders) GetOrder(_ context.Context, id int64) (ledger.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ledger.Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return o, nil
}

func (r *fakeOrders) ListUserOrders(_ context.Context, userID int) ([]ledger.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Order
	for id := int64(1); id <= r.nextID; id++ {
		if o, ok := r.orders[id]; ok && o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrders) UpdateOrderStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

type publishedEvent struct {
	event    models.OrderEvent
	priority uint8
	delay    time.Duration
}

type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakeEvents) PublishOrderEvent(_ context.Context, event models.OrderEvent, priority uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{event: event, priority: priority})
	return f.err
}

func (f *fakeEvents) PublishDelayedEvent(_ context.Context, event models.OrderEvent, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{event: event, delay: delay})
	return f.err
}
