package catalog

import (
	"errors"
	"fmt"

	"storefront/currency"
	"storefront/pricing"
)

var (
	ErrIncompleteVariant     = errors.New("variant does not assign every variant type")
	ErrUnknownAttribute      = errors.New("variant assigns an attribute the product does not define")
	ErrUnknownAttributeValue = errors.New("variant assigns a value outside the variant type")
)

// VariantType is one selectable attribute dimension, e.g. "Size", with its
// legal values in display order.
type VariantType struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Has reports whether value is one of the type's legal values.
func (t VariantType) Has(value string) bool {
	for _, v := range t.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Variant is one concrete, stocked, priceable combination of attribute values.
type Variant struct {
	ID    string            `json:"id"`
	SKU   string            `json:"sku"`
	Attrs map[string]string `json:"attrs"`
	Price currency.Amounts  `json:"price"`
	Stock int               `json:"stock"`
	Image string            `json:"image,omitempty"`

	complete bool
}

// Complete reports whether the variant assigns exactly one legal value for
// every variant type of its product. Only set on variants owned by a Product.
func (v Variant) Complete() bool {
	return v.complete
}

// Product owns the ordered variant types and the variants built from them.
type Product struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	VariantTypes         []VariantType          `json:"variant_types"`
	Variants             []Variant              `json:"variants"`
	MinimumOrderQuantity int                    `json:"minimum_order_quantity"`
	// BasePrice is the listing price reseller tier snapshots are taken from.
	BasePrice            currency.Amounts       `json:"base_price"`
	ResellerTiers        []pricing.ResellerTier `json:"reseller_tiers,omitempty"`
}

// NewProduct normalises the catalog data and marks each variant's completeness
// once, so resolution never has to re-check it. Negative stock becomes zero and
// an MOQ below one becomes one.
func NewProduct(id, name string, types []VariantType, variants []Variant, moq int) *Product {
	p := &Product{
		ID:                   id,
		Name:                 name,
		VariantTypes:         types,
		Variants:             make([]Variant, len(variants)),
		MinimumOrderQuantity: moq,
	}
	if p.MinimumOrderQuantity < 1 {
		p.MinimumOrderQuantity = 1
	}
	for i, v := range variants {
		if v.Stock < 0 {
			v.Stock = 0
		}
		v.complete = ValidateVariant(types, v) == nil
		p.Variants[i] = v
	}
	return p
}

// ValidateVariant is the admin-save check for a single variant.
func ValidateVariant(types []VariantType, v Variant) error {
	for _, t := range types {
		value, ok := v.Attrs[t.Name]
		if !ok || value == "" {
			return fmt.Errorf("%w: %s missing %q", ErrIncompleteVariant, v.ID, t.Name)
		}
		if !t.Has(value) {
			return fmt.Errorf("%w: %s has %s=%q", ErrUnknownAttributeValue, v.ID, t.Name, value)
		}
	}
	if len(v.Attrs) != len(types) {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, v.ID)
	}
	return nil
}

// Variant looks a variant up by id.
func (p *Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// VariantsByID indexes the product's variants.
func (p *Product) VariantsByID() map[string]Variant {
	out := make(map[string]Variant, len(p.Variants))
	for _, v := range p.Variants {
		out[v.ID] = v
	}
	return out
}

// Type returns the variant type with the given name.
func (p *Product) Type(name string) (VariantType, bool) {
	for _, t := range p.VariantTypes {
		if t.Name == name {
			return t, true
		}
	}
	return VariantType{}, false
}
