package models

type Toggle struct {
	Attribute string `json:"attribute" binding:"required"`
	Value     string `json:"value" binding:"required"`
}

type SelectionRequest struct {
	Selection map[string]string `json:"selection"`
	Toggle    *Toggle           `json:"toggle"`
	Quantity  Numeric           `json:"quantity"`
	Currency  string            `json:"currency"`
}

// DiscountRequest converts between a percentage and a discounted price for
// one currency. Exactly one of the two inputs is expected; the percentage
// wins if both are sent.
type DiscountRequest struct {
	Currency           string   `json:"currency" binding:"required"`
	OriginalPrice      Numeric  `json:"original_price"`
	DiscountPercentage *Numeric `json:"discount_percentage"`
	DiscountedPrice    *Numeric `json:"discounted_price"`
}

type DiscountResponse struct {
	Currency           string `json:"currency"`
	OriginalPrice      string `json:"original_price"`
	DiscountPercentage string `json:"discount_percentage,omitempty"`
	DiscountedPrice    string `json:"discounted_price,omitempty"`
	HasDiscount        bool   `json:"has_discount"`
}

// PromoVariantEdit is one promo-builder edit on a single variant.
type PromoVariantEdit struct {
	Currency           string   `json:"currency"`
	DiscountPercentage *Numeric `json:"discount_percentage"`
	DiscountedPrice    *Numeric `json:"discounted_price"`
	IsActive           *bool    `json:"is_active"`
}
