package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"storefront/currency"
)

// ResellerTier is a volume bracket offered to reseller buyers. UnitPrice is a
// snapshot taken when the tier was defined.
type ResellerTier struct {
	Name            string           `json:"name"`
	MinimumQuantity int              `json:"minimum_quantity"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	UnitPrice       currency.Amounts `json:"unit_price"`
}

// NewResellerTier snapshots the tier's unit price in every currency from base.
func NewResellerTier(name string, minQty int, pct decimal.Decimal, base currency.Amounts) ResellerTier {
	t := ResellerTier{
		Name:            name,
		MinimumQuantity: minQty,
		DiscountPercent: ClampPercent(pct),
	}
	for _, c := range currency.All() {
		t.UnitPrice[c] = ResellerTierUnitPrice(c, base.Get(c), t.DiscountPercent)
	}
	return t
}

// ResellerTierUnitPrice uses the same law as DiscountedFromPercent.
func ResellerTierUnitPrice(c currency.Code, base, pct decimal.Decimal) decimal.Decimal {
	return DiscountedFromPercent(c, base, pct)
}

// LivePrice recomputes the tier's unit price from a current base price,
// ignoring the stored snapshot.
func (t ResellerTier) LivePrice(c currency.Code, base currency.Amounts) decimal.Decimal {
	return ResellerTierUnitPrice(c, base.Get(c), t.DiscountPercent)
}

// SortTiers returns a copy of tiers ordered by ascending MinimumQuantity.
func SortTiers(tiers []ResellerTier) []ResellerTier {
	sorted := make([]ResellerTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinimumQuantity < sorted[j].MinimumQuantity
	})
	return sorted
}

// SelectApplicableTier returns the tier with the highest threshold that qty
// reaches, or nil when qty is below every threshold.
func SelectApplicableTier(tiers []ResellerTier, qty int) *ResellerTier {
	var applicable *ResellerTier
	for _, t := range SortTiers(tiers) {
		if t.MinimumQuantity > qty {
			break
		}
		tier := t
		applicable = &tier
	}
	return applicable
}

// RefreshTierSnapshots re-takes every tier's unit price snapshot from base.
// This is an explicit admin action; editing a base price never does it.
func RefreshTierSnapshots(tiers []ResellerTier, base currency.Amounts) []ResellerTier {
	out := make([]ResellerTier, len(tiers))
	for i, t := range tiers {
		out[i] = NewResellerTier(t.Name, t.MinimumQuantity, t.DiscountPercent, base)
	}
	return SortTiers(out)
}
