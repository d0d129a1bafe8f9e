package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"storefront/currency"
	"storefront/pricing"
)

// PricingPolicy holds the product-policy decisions the pricing engine takes
// as explicit inputs.
type PricingPolicy struct {
	DefaultCurrency currency.Code
	Precedence      pricing.Precedence
	TierMode        pricing.TierMode
	// Shipping is added to the running total on these flows only.
	IncludeShippingOnCreate bool
	IncludeShippingOnEdit   bool
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		DefaultCurrency:         currency.IDR,
		Precedence:              pricing.PrecedenceLowest,
		TierMode:                pricing.TierSnapshot,
		IncludeShippingOnCreate: false,
		IncludeShippingOnEdit:   true,
	}
}

type pricingPolicyFile struct {
	DefaultCurrency string `yaml:"default_currency"`
	Precedence      string `yaml:"precedence"`
	TierMode        string `yaml:"tier_mode"`
	IncludeShipping struct {
		Create *bool `yaml:"create"`
		Edit   *bool `yaml:"edit"`
	} `yaml:"include_shipping"`
}

// LoadPricingPolicy reads a YAML policy file. Keys left out keep their
// defaults; unknown values are an error.
func LoadPricingPolicy(path string) (PricingPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("read pricing policy: %w", err)
	}
	return ParsePricingPolicy(data)
}

func ParsePricingPolicy(data []byte) (PricingPolicy, error) {
	var file pricingPolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PricingPolicy{}, fmt.Errorf("parse pricing policy: %w", err)
	}

	policy := DefaultPricingPolicy()
	if file.DefaultCurrency != "" {
		c, ok := currency.Parse(file.DefaultCurrency)
		if !ok {
			return PricingPolicy{}, fmt.Errorf("pricing policy: unsupported currency %q", file.DefaultCurrency)
		}
		policy.DefaultCurrency = c
	}
	if file.Precedence != "" {
		p, ok := pricing.ParsePrecedence(file.Precedence)
		if !ok {
			return PricingPolicy{}, fmt.Errorf("pricing policy: unknown precedence %q", file.Precedence)
		}
		policy.Precedence = p
	}
	if file.TierMode != "" {
		m, ok := pricing.ParseTierMode(file.TierMode)
		if !ok {
			return PricingPolicy{}, fmt.Errorf("pricing policy: unknown tier mode %q", file.TierMode)
		}
		policy.TierMode = m
	}
	if file.IncludeShipping.Create != nil {
		policy.IncludeShippingOnCreate = *file.IncludeShipping.Create
	}
	if file.IncludeShipping.Edit != nil {
		policy.IncludeShippingOnEdit = *file.IncludeShipping.Edit
	}
	return policy, nil
}
