package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeIntent is a parsed and validated alert. It is built once per request
// and never mutated.
type TradeIntent struct {
	Symbol string          // user-supplied ticker, before normalization
	Action OrderSide       // buy or sell
	Amount decimal.Decimal // notional in quote currency, always > 0
}

// NormalizedPair is the exchange's canonical pair code, e.g. "XBTUSD".
type NormalizedPair string

func (p NormalizedPair) String() string { return string(p) }

// Magnitude bounds for amounts and prices. Decimals carry an arbitrary
// exponent, so anything outside these is refused before arithmetic.
const (
	MaxFractionDigits = 18
	MaxIntegerDigits  = 15
)

// CheckMagnitude reports an error when d has more than MaxFractionDigits
// fractional digits or is at least 10^MaxIntegerDigits in absolute value.
func CheckMagnitude(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	if exp < -MaxFractionDigits {
		return fmt.Errorf("%s has more than %d fractional digits", abbreviate(d), MaxFractionDigits)
	}
	if d.IsZero() {
		return nil
	}
	if int64(d.NumDigits())+exp > MaxIntegerDigits {
		return fmt.Errorf("%s exceeds %d integer digits", abbreviate(d), MaxIntegerDigits)
	}
	return nil
}

// abbreviate renders d without expanding its exponent.
func abbreviate(d decimal.Decimal) string {
	return fmt.Sprintf("%se%d", d.Coefficient().String(), d.Exponent())
}
