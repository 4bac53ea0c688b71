package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"krakenWebhook/internal/domain"
)

// PriceOracle fetches a fresh reference price for a pair.
type PriceOracle interface {
	// GetLastPrice returns the most recent trade price for the pair.
	// Failures wrap ErrPriceUnavailable.
	GetLastPrice(ctx context.Context, pair domain.NormalizedPair) (domain.PriceQuote, error)
}

// OrderPlacer submits orders to the exchange. Submissions are not idempotent.
type OrderPlacer interface {
	// PlaceMarketOrder submits a market order for volume units of the base asset.
	// An exchange-side refusal wraps ErrOrderRejected, a network failure ErrTransport.
	PlaceMarketOrder(ctx context.Context, pair domain.NormalizedPair, side domain.OrderSide, volume decimal.Decimal) (*domain.OrderResult, error)
}

// BalanceReader reads account balances.
type BalanceReader interface {
	GetBalances(ctx context.Context) (map[string]decimal.Decimal, error)
}

// ExchangeClient defines everything the service needs from the exchange.
type ExchangeClient interface {
	PriceOracle
	OrderPlacer
	BalanceReader
}
