package pricing

import "strings"

// Precedence decides which price wins when a reseller qualifies for both an
// active promo and a volume tier.
type Precedence string

const (
	PrecedenceUnset  Precedence = ""
	PrecedencePromo  Precedence = "promo"
	PrecedenceTier   Precedence = "tier"
	PrecedenceLowest Precedence = "lowest"
)

func ParsePrecedence(s string) (Precedence, bool) {
	switch p := Precedence(strings.ToLower(strings.TrimSpace(s))); p {
	case PrecedencePromo, PrecedenceTier, PrecedenceLowest:
		return p, true
	}
	return PrecedenceUnset, false
}

// TierMode decides whether tier prices come from the stored snapshot or are
// recomputed from the live base price.
type TierMode string

const (
	TierSnapshot TierMode = "snapshot"
	TierLive     TierMode = "live"
)

func ParseTierMode(s string) (TierMode, bool) {
	switch m := TierMode(strings.ToLower(strings.TrimSpace(s))); m {
	case TierSnapshot, TierLive:
		return m, true
	}
	return TierSnapshot, false
}
