package currency

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts holds one value per supported currency. Every currency is always
// present; an amount that was never set is zero.
type Amounts [numCodes]decimal.Decimal

// NewAmounts builds an Amounts from a partial map. Negative values clamp to zero.
func NewAmounts(values map[Code]decimal.Decimal) Amounts {
	var a Amounts
	for c, v := range values {
		if c.Valid() {
			a[c] = NonNegative(v)
		}
	}
	return a
}

// Get returns the amount for c, or zero for an unknown code.
func (a Amounts) Get(c Code) decimal.Decimal {
	if !c.Valid() {
		return decimal.Zero
	}
	return a[c]
}

// With returns a copy of a with c set to v.
func (a Amounts) With(c Code, v decimal.Decimal) Amounts {
	if c.Valid() {
		a[c] = v
	}
	return a
}

// MarshalJSON writes at least the currency's minor units and never drops
// precision the value carries, so percentage tables survive a round trip.
func (a Amounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, numCodes)
	for c := Code(0); c < numCodes; c++ {
		places := c.Info().MinorUnits
		if exp := -a[c].Exponent(); exp > places {
			places = exp
		}
		out[c.String()] = a[c].StringFixed(places)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts numbers or numeric strings keyed by ISO code. Unknown
// codes are ignored; missing or non-numeric entries become zero.
func (a *Amounts) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Amounts
	for key, value := range raw {
		c, ok := Parse(key)
		if !ok {
			continue
		}
		out[c] = ParseAmount(strings.Trim(string(value), `"`))
	}
	*a = out
	return nil
}

// ParseAmount coerces free-form input into a non-negative amount.
// Anything that is not a number is zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return NonNegative(d)
}

// NonNegative clamps negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
