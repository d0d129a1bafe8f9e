package resolver

import (
	"storefront/catalog"
)

// State is the progress of one selection session.
type State string

const (
	Unconstrained State = "unconstrained"
	Partial       State = "partial"
	Complete      State = "complete"
)

// StateOf classifies sel against p. Complete requires every variant type to
// be selected and exactly one variant to match.
func StateOf(p *catalog.Product, sel Selection) State {
	selected := 0
	for _, t := range p.VariantTypes {
		if _, ok := sel[t.Name]; ok {
			selected++
		}
	}
	switch {
	case selected == len(p.VariantTypes) && len(Filter(p, sel)) == 1:
		return Complete
	case selected == 0:
		return Unconstrained
	default:
		return Partial
	}
}

// Snapshot is what the presentation layer receives after every selection or
// quantity edit.
type Snapshot struct {
	Selection    Selection                  `json:"selection"`
	State        State                      `json:"state"`
	Variants     []catalog.Variant          `json:"variants"`
	Availability map[string]map[string]bool `json:"availability"`
	StockCeiling int                        `json:"stock_ceiling"`
	Quantity     int                        `json:"quantity"`
	Selected     *catalog.Variant           `json:"selected,omitempty"`
	// BelowMinimum is set when the ceiling cannot satisfy the product's MOQ.
	BelowMinimum bool `json:"below_minimum"`
}

// Resolve runs the full resolution pipeline for one edit event.
func Resolve(p *catalog.Product, sel Selection, qty int) Snapshot {
	filtered := Filter(p, sel)
	ceiling := StockCeiling(filtered)
	return Snapshot{
		Selection:    sel.Clone(),
		State:        StateOf(p, sel),
		Variants:     filtered,
		Availability: Availability(p, sel),
		StockCeiling: ceiling,
		Quantity:     ClampQuantity(qty, p.MinimumOrderQuantity, ceiling),
		Selected:     SelectedVariant(filtered),
		BelowMinimum: ceiling < p.MinimumOrderQuantity,
	}
}
