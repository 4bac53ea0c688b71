package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
)

// ComputeVolume converts a notional quote amount into a base-asset volume at
// the given price. The result is truncated toward zero at domain.VolumeScale
// digits, never rounded up, so the order never asks for more than the amount covers.
func ComputeVolume(amount, price decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.CheckMagnitude(price); err != nil {
		return decimal.Zero, fmt.Errorf("%w: price out of range: %v", ports.ErrInvalidVolume, err)
	}
	if err := domain.CheckMagnitude(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount out of range: %v", ports.ErrInvalidVolume, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive, got %s", ports.ErrInvalidVolume, price)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive, got %s", ports.ErrInvalidVolume, amount)
	}

	// QuoRem is exact: q*price + r == amount with q a multiple of 10^-VolumeScale.
	q, _ := amount.QuoRem(price, domain.VolumeScale)
	if q.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: amount %s at price %s is below %d-digit precision", ports.ErrInvalidVolume, amount, price, domain.VolumeScale)
	}
	return q, nil
}
