package resolver

import (
	"storefront/catalog"
)

// Selection maps an attribute name to the chosen value. Absent attributes
// impose no constraint.
type Selection map[string]string

// Clone returns an independent copy of s.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Toggle deselects attr when it already holds value, otherwise selects it.
func Toggle(sel Selection, attr, value string) Selection {
	out := sel.Clone()
	if current, ok := out[attr]; ok && current == value {
		delete(out, attr)
		return out
	}
	out[attr] = value
	return out
}

func matches(v catalog.Variant, sel Selection, skip string) bool {
	for attr, value := range sel {
		if attr == skip {
			continue
		}
		if v.Attrs[attr] != value {
			return false
		}
	}
	return true
}

// Filter returns the complete variants consistent with every selected pair,
// in catalog order. Stock is not considered.
func Filter(p *catalog.Product, sel Selection) []catalog.Variant {
	var out []catalog.Variant
	for _, v := range p.Variants {
		if v.Complete() && matches(v, sel, "") {
			out = append(out, v)
		}
	}
	return out
}

// IsOptionAvailable reports whether choosing attr=value, with every other
// current selection held fixed, still reaches an in-stock variant.
func IsOptionAvailable(p *catalog.Product, sel Selection, attr, value string) bool {
	for _, v := range p.Variants {
		if !v.Complete() || v.Stock <= 0 {
			continue
		}
		if v.Attrs[attr] == value && matches(v, sel, attr) {
			return true
		}
	}
	return false
}

// Availability evaluates IsOptionAvailable for every option of every type.
func Availability(p *catalog.Product, sel Selection) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(p.VariantTypes))
	for _, t := range p.VariantTypes {
		options := make(map[string]bool, len(t.Values))
		for _, value := range t.Values {
			options[value] = IsOptionAvailable(p, sel, t.Name, value)
		}
		out[t.Name] = options
	}
	return out
}

// StockCeiling is the smallest stock among the filtered variants, or zero
// when none remain.
func StockCeiling(filtered []catalog.Variant) int {
	if len(filtered) == 0 {
		return 0
	}
	ceiling := filtered[0].Stock
	for _, v := range filtered[1:] {
		if v.Stock < ceiling {
			ceiling = v.Stock
		}
	}
	return ceiling
}

// SelectedVariant returns the first filtered variant, or nil. With a partial
// selection the result is only a preview candidate.
func SelectedVariant(filtered []catalog.Variant) *catalog.Variant {
	if len(filtered) == 0 {
		return nil
	}
	v := filtered[0]
	return &v
}

// ClampQuantity returns max(moq, min(ceiling, qty)). When ceiling < moq the
// result is moq; detecting that case is up to the caller.
func ClampQuantity(qty, moq, ceiling int) int {
	if qty > ceiling {
		qty = ceiling
	}
	if qty < moq {
		qty = moq
	}
	return qty
}
