package currency

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Code identifies one of the storefront's supported currencies.
// Prices are authored per currency; there is no exchange-rate conversion.
type Code int

const (
	IDR Code = iota
	USD
	SGD

	numCodes
)

// Info is the static conversion/display metadata for a currency.
type Info struct {
	Code       Code
	ISO        string
	Symbol     string
	MinorUnits int32
}

var table = [numCodes]Info{
	IDR: {Code: IDR, ISO: "IDR", Symbol: "Rp", MinorUnits: 0},
	USD: {Code: USD, ISO: "USD", Symbol: "$", MinorUnits: 2},
	SGD: {Code: SGD, ISO: "SGD", Symbol: "S$", MinorUnits: 2},
}

// All returns every supported currency in table order.
func All() []Code {
	codes := make([]Code, 0, numCodes)
	for c := Code(0); c < numCodes; c++ {
		codes = append(codes, c)
	}
	return codes
}

// Parse resolves an ISO code, case-insensitively.
func Parse(s string) (Code, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, info := range table {
		if info.ISO == s {
			return info.Code, true
		}
	}
	return IDR, false
}

func (c Code) Valid() bool {
	return c >= 0 && c < numCodes
}

// Info returns the table entry for c. Unknown codes fall back to IDR.
func (c Code) Info() Info {
	if !c.Valid() {
		return table[IDR]
	}
	return table[c]
}

func (c Code) String() string {
	return c.Info().ISO
}

// Round rounds an amount to the currency's minor-unit precision.
func (c Code) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Info().MinorUnits)
}

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Code) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("currency code must be a string: %w", err)
	}
	code, ok := Parse(s)
	if !ok {
		return fmt.Errorf("unsupported currency %q", s)
	}
	*c = code
	return nil
}
