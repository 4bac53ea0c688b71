package domain

import (
	"fmt"
	"strings"
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// ParseOrderSide resolves a case-insensitive action into an OrderSide.
// Anything other than buy or sell is an error; there is no default direction.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Buy):
		return Buy, nil
	case string(Sell):
		return Sell, nil
	default:
		return "", fmt.Errorf("unrecognized action %q", s)
	}
}

// OrderType is the exchange order type. Only market orders are placed.
type OrderType string

const (
	Market OrderType = "market"
)

// Outcome classifies how a processed alert ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeInvalid       Outcome = "invalid_payload"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomePriceFailed   Outcome = "price_fetch_failed"
	OutcomeInvalidVolume Outcome = "invalid_volume"
	OutcomeOrderFailed   Outcome = "order_failed"
)
