package models

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/currency"
	"storefront/pricing"
)

// Numeric is a form field that may arrive as a JSON number, a numeric
// string, or garbage. Decoding never fails; garbage reads as zero.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		s = ""
	}
	*n = Numeric(strings.Trim(s, `"`))
	return nil
}

func (n Numeric) Amount() decimal.Decimal {
	return currency.ParseAmount(string(n))
}

func (n Numeric) Percent() decimal.Decimal {
	return pricing.ParsePercent(string(n))
}

func (n Numeric) Int() int {
	return pricing.ParseQuantity(string(n))
}
