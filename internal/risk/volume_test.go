package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenWebhook/internal/ports"
)

func TestComputeVolume(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		price   string
		want    string
		wantErr error
	}{
		{name: "thirds truncate down", amount: "10", price: "3.0", want: "3.33333333"},
		{name: "two thirds never round up", amount: "2", price: "3", want: "0.66666666"},
		{name: "exact", amount: "100", price: "50000", want: "0.002"},
		{name: "large price", amount: "25", price: "67123.4", want: "0.00037244"},
		{name: "zero price", amount: "10", price: "0", wantErr: ports.ErrInvalidVolume},
		{name: "negative price", amount: "10", price: "-1", wantErr: ports.ErrInvalidVolume},
		{name: "zero amount", amount: "0", price: "100", wantErr: ports.ErrInvalidVolume},
		{name: "rounds to zero", amount: "0.0001", price: "1000000", wantErr: ports.ErrInvalidVolume},
		{name: "tiny exponent amount", amount: "1e-2147483000", price: "50000", wantErr: ports.ErrInvalidVolume},
		{name: "huge exponent amount", amount: "1e2000000", price: "50000", wantErr: ports.ErrInvalidVolume},
		{name: "huge exponent price", amount: "100", price: "1e2000000", wantErr: ports.ErrInvalidVolume},
		{name: "too many fractional digits", amount: "1.0000000000000000001", price: "3", wantErr: ports.ErrInvalidVolume},
		{name: "upper bound", amount: "999999999999999", price: "1", want: "999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeVolume(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.price))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeVolume_NeverExceedsNotional(t *testing.T) {
	prices := []string{"3", "7", "0.3", "61234.56789", "1.00000001", "99999.99999999"}
	amounts := []string{"1", "10", "100", "12.34", "0.5"}
	for _, p := range prices {
		for _, a := range amounts {
			price := decimal.RequireFromString(p)
			amount := decimal.RequireFromString(a)
			vol, err := ComputeVolume(amount, price)
			if err != nil {
				assert.ErrorIs(t, err, ports.ErrInvalidVolume)
				continue
			}
			assert.True(t, vol.Mul(price).LessThanOrEqual(amount), "%s/%s -> %s", a, p, vol)
			assert.LessOrEqual(t, -vol.Exponent(), int32(8))
		}
	}
}
