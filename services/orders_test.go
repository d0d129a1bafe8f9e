package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/currency"
	"storefront/ledger"
	"storefront/models"
	"storefront/pricing"
)

type orderFixture struct {
	svc    *OrderService
	orders *fakeOrders
	events *fakeEvents
}

func newOrderFixture() orderFixture {
	p := shirt()
	orders := newFakeOrders()
	events := &fakeEvents{}
	return orderFixture{
		svc: &OrderService{
			Catalog:           newFakeCatalog(p),
			Promos:            newFakePromos(p),
			Orders:            orders,
			Events:            events,
			Policy:            config.DefaultPricingPolicy(),
			PaymentCheckDelay: 15 * time.Minute,
			Now:               func() time.Time { return testNow },
		},
		orders: orders,
		events: events,
	}
}

func draft(items ...models.DraftItem) models.OrderDraft {
	return models.OrderDraft{Currency: "IDR", Items: items}
}

func item(variantID, qty string) models.DraftItem {
	return models.DraftItem{ProductID: "shirt", VariantID: variantID, Quantity: models.Numeric(qty)}
}

func numeric(s string) *models.Numeric {
	n := models.Numeric(s)
	return &n
}

func TestPreview_ClampsQuantityAndAppliesPromo(t *testing.T) {
	f := newOrderFixture()
	o, err := f.svc.Preview(context.Background(), customer, draft(item("red-s", "100")))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)

	it := o.Items[0]
	assert.Equal(t, 5, it.Quantity)
	assert.True(t, it.HasDiscount(currency.IDR))
	assert.True(t, it.DiscountedPrice.Get(currency.IDR).Equal(d("80000")))
	assert.False(t, it.HasDiscount(currency.USD))
	assert.True(t, o.TotalAmount.Equal(d("400000")))
}

func TestPreview_QuantityRaisedToMinimum(t *testing.T) {
	f := newOrderFixture()
	o, err := f.svc.Preview(context.Background(), customer, draft(item("blue-s", "abc")))
	require.NoError(t, err)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.TotalAmount.Equal(d("200000")))
}

func TestPreview_Shipping(t *testing.T) {
	f := newOrderFixture()
	dr := draft(item("blue-s", "2"))
	dr.ShippingCost = "10000"
	dr.DiscountShipping = "2000"

	o, err := f.svc.Preview(context.Background(), customer, dr)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("200000")), "create flow leaves shipping out by default")

	include := true
	dr.IncludeShipping = &include
	o, err = f.svc.Preview(context.Background(), customer, dr)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("208000")))
}

func TestPreview_ManualDiscountAdminOnly(t *testing.T) {
	f := newOrderFixture()
	it := item("blue-s", "2")
	it.DiscountPercentage = numeric("10")

	o, err := f.svc.Preview(context.Background(), admin, draft(it))
	require.NoError(t, err)
	assert.True(t, o.Items[0].DiscountedPrice.Get(currency.IDR).Equal(d("90000")))
	assert.True(t, o.TotalAmount.Equal(d("180000")))

	o, err = f.svc.Preview(context.Background(), customer, draft(it))
	require.NoError(t, err)
	assert.False(t, o.Items[0].HasDiscount(currency.IDR))
	assert.True(t, o.TotalAmount.Equal(d("200000")))
}

func TestPreview_Errors(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, customer, models.OrderDraft{Currency: "EUR", Items: []models.DraftItem{item("red-s", "1")}})
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = f.svc.Preview(ctx, customer, draft(item("green-s", "1")))
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = f.svc.Preview(ctx, customer, draft(models.DraftItem{ProductID: "hat", VariantID: "x"}))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreate(t *testing.T) {
	f := newOrderFixture()
	o, err := f.svc.Create(context.Background(), customer, draft(item("blue-s", "3")))
	require.NoError(t, err)

	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, customer.UserID, o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 1, o.Version)

	stored, err := f.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(d("300000")))

	require.Len(t, f.events.events, 2)
	assert.Equal(t, models.EventCreated, f.events.events[0].event.Type)
	assert.Equal(t, uint8(5), f.events.events[0].priority)
	assert.Equal(t, models.EventPaymentCheck, f.events.events[1].event.Type)
	assert.Equal(t, 15*time.Minute, f.events.events[1].delay)
}

func TestCreate_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture()
	f.events.err = errors.New("broker down")
	o, err := f.svc.Create(context.Background(), customer, draft(item("blue-s", "3")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)
}

func TestCreate_Rejections(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, customer, draft())
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.svc.Create(ctx, customer, draft(item("blue-m", "2")))
	assert.ErrorIs(t, err, ErrQuantityUnavailable)

	_, err = f.svc.Preview(ctx, customer, draft(item("blue-m", "2")))
	assert.NoError(t, err, "previews clamp instead of rejecting")
}

func create(t *testing.T, f orderFixture, caller Caller) ledger.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), caller, draft(item("blue-s", "3")))
	require.NoError(t, err)
	return o
}

func TestUpdate_EditsAndVersion(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)
	itemID := o.Items[0].ID.String()

	updated, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: 1,
		Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: itemID, Value: "4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 4, updated.Items[0].Quantity)
	assert.True(t, updated.TotalAmount.Equal(d("400000")))

	_, err = f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: 1,
		Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: itemID, Value: "5"}},
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestUpdate_QuantityClampedToStock(t *testing.T) {
	f := newOrderFixture()
	o := create(t, f, customer)
	updated, err := f.svc.Update(context.Background(), customer, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: o.Items[0].ID.String(), Value: "999"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Items[0].Quantity)
}

func TestUpdate_SwitchCurrencyAndShipping(t *testing.T) {
	f := newOrderFixture()
	o := create(t, f, customer)
	include := true

	updated, err := f.svc.Update(context.Background(), customer, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits: []models.OrderEdit{
			{Op: models.EditSwitchCurrency, Currency: "USD"},
			{Op: models.EditSetShipping, ShippingCost: "5.00", DiscountShipping: "1.50", IncludeShipping: &include},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, currency.USD, updated.Currency)
	assert.True(t, updated.TotalAmount.Equal(d("33.50")), updated.TotalAmount.String())
}

func TestUpdate_SwitchCurrencyKeepsDiscounts(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	promos := f.svc.Promos.(*fakePromos)
	flash, err := promos.GetPromo(ctx, "flash")
	require.NoError(t, err)
	pv, ok := flash.Entry("red-s")
	require.True(t, ok)
	flash, ok = flash.WithEntry(pv.SetDiscountPercent(currency.USD, d("30")))
	require.True(t, ok)
	require.NoError(t, promos.SavePromo(ctx, flash))

	items := func() []models.DraftItem {
		manual := item("blue-s", "2")
		manual.DiscountPercentage = numeric("10")
		return []models.DraftItem{item("red-s", "2"), manual}
	}
	o, err := f.svc.Create(ctx, admin, models.OrderDraft{Currency: "IDR", Items: items()})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("340000")), o.TotalAmount.String())

	inUSD, err := f.svc.Create(ctx, admin, models.OrderDraft{Currency: "USD", Items: items()})
	require.NoError(t, err)
	assert.True(t, inUSD.TotalAmount.Equal(d("32")), inUSD.TotalAmount.String())

	switched, err := f.svc.Update(ctx, admin, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSwitchCurrency, Currency: "USD"}},
	})
	require.NoError(t, err)
	assert.True(t, switched.TotalAmount.Equal(inUSD.TotalAmount), "switched %s, created in USD %s", switched.TotalAmount, inUSD.TotalAmount)
	assert.True(t, switched.Items[0].EffectivePrice().Equal(d("7")), "promo USD price")
	assert.True(t, switched.Items[1].EffectivePrice().Equal(d("9")), "manual percent carried over")

	back, err := f.svc.Update(ctx, admin, o.ID, models.OrderEditRequest{
		Version: switched.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSwitchCurrency, Currency: "IDR"}},
	})
	require.NoError(t, err)
	assert.True(t, back.TotalAmount.Equal(d("340000")), back.TotalAmount.String())
}

func TestUpdate_QuantityEditRequotesResellerTier(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	p := shirt()
	base := price("100000", "10.00")
	p.ResellerTiers = []pricing.ResellerTier{
		pricing.NewResellerTier("bronze", 3, d("10"), base),
		pricing.NewResellerTier("silver", 8, d("20"), base),
	}
	f.svc.Catalog = newFakeCatalog(p)
	reseller := Caller{UserID: 9, Role: RoleReseller}

	o, err := f.svc.Create(ctx, reseller, draft(item("blue-s", "3")))
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("270000")), o.TotalAmount.String())
	itemID := o.Items[0].ID.String()

	tests := []struct {
		name  string
		qty   string
		total string
	}{
		{"up into the next tier", "9", "720000"},
		{"back into the first tier", "4", "360000"},
		{"below every tier", "2", "200000"},
	}
	version := o.Version
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := f.svc.Update(ctx, reseller, o.ID, models.OrderEditRequest{
				Version: version,
				Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: itemID, Value: models.Numeric(tt.qty)}},
			})
			require.NoError(t, err)
			version = updated.Version
			assert.True(t, updated.TotalAmount.Equal(d(tt.total)), updated.TotalAmount.String())

			fresh, err := f.svc.Preview(ctx, reseller, draft(item("blue-s", tt.qty)))
			require.NoError(t, err)
			assert.True(t, fresh.TotalAmount.Equal(updated.TotalAmount), "edit and preview agree")
		})
	}
}

func TestUpdate_QuantityEditKeepsManualPrice(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)
	itemID := o.Items[0].ID.String()

	discounted, err := f.svc.Update(ctx, admin, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSetDiscountPercent, ItemID: itemID, Value: "50"}},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: discounted.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: itemID, Value: "4"}},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(d("200000")), updated.TotalAmount.String())
}

func TestUpdate_KeepsStoredShippingFlag(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	exclude := false
	dr := draft(item("blue-s", "3"))
	dr.ShippingCost = "15000"
	dr.IncludeShipping = &exclude

	o, err := f.svc.Create(ctx, customer, dr)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(d("300000")))

	updated, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSetQuantity, ItemID: o.Items[0].ID.String(), Value: "4"}},
	})
	require.NoError(t, err)
	assert.False(t, updated.IncludeShipping)
	assert.True(t, updated.TotalAmount.Equal(d("400000")), updated.TotalAmount.String())

	updated, err = f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: updated.Version,
		Edits:   []models.OrderEdit{{Op: models.EditSetShipping, ShippingCost: "20000"}},
	})
	require.NoError(t, err)
	assert.True(t, updated.IncludeShipping, "shipping edits default to the edit-flow policy")
	assert.True(t, updated.TotalAmount.Equal(d("420000")), updated.TotalAmount.String())
}

func TestUpdate_AddAndRemove(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)

	updated, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: o.Version,
		Edits: []models.OrderEdit{
			{Op: models.EditAdd, ProductID: "shirt", VariantID: "red-s", Value: "2"},
			{Op: models.EditRemove, ItemID: o.Items[0].ID.String()},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "red-s", updated.Items[0].VariantID)
	assert.True(t, updated.TotalAmount.Equal(d("160000")))

	_, err = f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: updated.Version,
		Edits:   []models.OrderEdit{{Op: models.EditRemove, ItemID: updated.Items[0].ID.String()}},
	})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestUpdate_PriceEditsAdminOnly(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)
	edit := models.OrderEdit{Op: models.EditSetDiscountPercent, ItemID: o.Items[0].ID.String(), Value: "50"}

	_, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{Version: o.Version, Edits: []models.OrderEdit{edit}})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Update(ctx, admin, o.ID, models.OrderEditRequest{Version: o.Version, Edits: []models.OrderEdit{edit}})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(d("150000")))
}

func TestUpdate_BadEdits(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)

	_, err := f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: o.Version, Edits: []models.OrderEdit{{Op: "explode"}},
	})
	assert.ErrorIs(t, err, ErrUnknownEdit)

	_, err = f.svc.Update(ctx, customer, o.ID, models.OrderEditRequest{
		Version: o.Version, Edits: []models.OrderEdit{{Op: models.EditRemove, ItemID: "not-a-uuid"}},
	})
	assert.ErrorIs(t, err, ErrLineItemNotFound)
}

func TestGet_Ownership(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := create(t, f, customer)

	_, err := f.svc.Get(ctx, stranger, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := f.svc.Get(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	list, err := f.svc.List(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture()
	o := create(t, f, customer)

	got, err := f.svc.UpdateStatus(context.Background(), customer, o.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, models.EventStatusUpdated, last.event.Type)
	assert.Equal(t, uint8(8), last.priority)
}

func TestHandlePaymentCheck(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	pending := create(t, f, customer)
	require.NoError(t, f.svc.HandlePaymentCheck(ctx, pending.ID))
	stored, _ := f.orders.GetOrder(ctx, pending.ID)
	assert.Equal(t, StatusCancelled, stored.Status)

	paid := create(t, f, customer)
	require.NoError(t, f.orders.UpdateOrderStatus(ctx, paid.ID, "processing"))
	require.NoError(t, f.svc.HandlePaymentCheck(ctx, paid.ID))
	stored, _ = f.orders.GetOrder(ctx, paid.ID)
	assert.Equal(t, "processing", stored.Status)

	assert.ErrorIs(t, f.svc.HandlePaymentCheck(ctx, 99), ErrOrderNotFound)
}
