package quote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/catalog"
	"storefront/currency"
	"storefront/pricing"
	"storefront/promo"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func idr(v string) currency.Amounts {
	return currency.NewAmounts(map[currency.Code]decimal.Decimal{currency.IDR: d(v)})
}

var (
	start = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	now   = start.Add(48 * time.Hour)
)

// fixture: base 100000, tiers 10 -> 10%, 50 -> 25%, promo at 20% off.
func fixture(t *testing.T) (*catalog.Product, catalog.Variant, []promo.Promo) {
	t.Helper()
	types := []catalog.VariantType{{Name: "Size", Values: []string{"S"}}}
	p := catalog.NewProduct("p1", "Cap", types, []catalog.Variant{
		{ID: "s", Attrs: map[string]string{"Size": "S"}, Price: idr("100000"), Stock: 100},
	}, 1)
	p.BasePrice = idr("100000")
	p.ResellerTiers = []pricing.ResellerTier{
		pricing.NewResellerTier("gold", 50, d("25"), p.BasePrice),
		pricing.NewResellerTier("silver", 10, d("10"), p.BasePrice),
	}

	pr := promo.New("payday", "Payday", start, start.AddDate(0, 1, 0), p)
	pv, ok := pr.Entry("s")
	require.True(t, ok)
	pr, _ = pr.WithEntry(pv.SetDiscountPercent(currency.IDR, d("20")))

	v, _ := p.Variant("s")
	return p, v, []promo.Promo{pr}
}

func TestQuote_NonResellerIgnoresTiers(t *testing.T) {
	p, v, promos := fixture(t)
	res, err := Quote(Input{Product: p, Variant: v, Promos: promos, Now: now, Currency: currency.IDR, Quantity: 60})
	require.NoError(t, err)
	assert.Equal(t, SourcePromo, res.Source)
	assert.True(t, res.UnitPrice.Equal(d("80000")))
	assert.Equal(t, "payday", res.PromoID)
}

func TestQuote_ResellerRequiresPrecedence(t *testing.T) {
	p, v, promos := fixture(t)
	_, err := Quote(Input{Product: p, Variant: v, Promos: promos, Now: now, Currency: currency.IDR, Quantity: 60, IsReseller: true})
	assert.ErrorIs(t, err, ErrPrecedenceRequired)
}

func TestQuote_Precedence(t *testing.T) {
	p, v, promos := fixture(t)
	tests := []struct {
		name       string
		precedence pricing.Precedence
		qty        int
		source     Source
		price      string
	}{
		{"promo wins", pricing.PrecedencePromo, 60, SourcePromo, "80000"},
		{"tier wins", pricing.PrecedenceTier, 60, SourceTier, "75000"},
		{"lowest picks gold tier", pricing.PrecedenceLowest, 60, SourceTier, "75000"},
		{"lowest picks promo over silver", pricing.PrecedenceLowest, 10, SourcePromo, "80000"},
		{"below every tier", pricing.PrecedenceTier, 9, SourcePromo, "80000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Quote(Input{
				Product: p, Variant: v, Promos: promos, Now: now,
				Currency: currency.IDR, Quantity: tt.qty, IsReseller: true,
				Precedence: tt.precedence, TierMode: pricing.TierSnapshot,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.source, res.Source)
			assert.True(t, res.UnitPrice.Equal(d(tt.price)), "got %s", res.UnitPrice)
			assert.True(t, res.HasDiscount)
		})
	}
}

func TestQuote_TierWithoutPromo(t *testing.T) {
	p, v, _ := fixture(t)
	res, err := Quote(Input{
		Product: p, Variant: v, Now: now, Currency: currency.IDR, Quantity: 10,
		IsReseller: true, Precedence: pricing.PrecedencePromo,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceTier, res.Source)
	require.NotNil(t, res.Tier)
	assert.Equal(t, "silver", res.Tier.Name)
	assert.True(t, res.UnitPrice.Equal(d("90000")))
	assert.True(t, res.DiscountPercentage.Equal(d("10")))
}

func TestQuote_TierModes(t *testing.T) {
	p, v, _ := fixture(t)
	// the variant got more expensive after the tiers were defined
	v.Price = idr("200000")

	in := Input{
		Product: p, Variant: v, Now: now, Currency: currency.IDR, Quantity: 10,
		IsReseller: true, Precedence: pricing.PrecedenceLowest,
	}

	in.TierMode = pricing.TierSnapshot
	res, err := Quote(in)
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(d("90000")), "snapshot price")

	in.TierMode = pricing.TierLive
	res, err = Quote(in)
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(d("180000")), "live price")
}

func TestQuote_StaleSnapshotAboveBaseIsIgnored(t *testing.T) {
	p, v, _ := fixture(t)
	v.Price = idr("50000")

	res, err := Quote(Input{
		Product: p, Variant: v, Now: now, Currency: currency.IDR, Quantity: 10,
		IsReseller: true, Precedence: pricing.PrecedenceTier, TierMode: pricing.TierSnapshot,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceBase, res.Source)
	assert.True(t, res.UnitPrice.Equal(d("50000")))
}
