package alert

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
)

func TestParse_ValidShapes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantSymbol string
		wantAction domain.OrderSide
		wantAmount string
	}{
		{
			name:       "message field",
			body:       `{"message": "symbol: BTC-USD; action: buy; amount: 100"}`,
			wantSymbol: "BTC-USD", wantAction: domain.Buy, wantAmount: "100",
		},
		{
			name:       "direct fields with number amount",
			body:       `{"symbol": "ETHUSD", "action": "SELL", "amount": 25.5}`,
			wantSymbol: "ETHUSD", wantAction: domain.Sell, wantAmount: "25.5",
		},
		{
			name:       "ticker synonym with string amount",
			body:       `{"ticker": "btc/usd", "action": "Buy", "amount": "10"}`,
			wantSymbol: "btc/usd", wantAction: domain.Buy, wantAmount: "10",
		},
		{
			name:       "pair synonym and informational keys",
			body:       `{"pair": "XBTEUR", "action": "buy", "amount": 1, "price": 50000, "time": "2025-01-01T00:00:00Z", "strategy": "ema"}`,
			wantSymbol: "XBTEUR", wantAction: domain.Buy, wantAmount: "1",
		},
		{
			name:       "raw text body",
			body:       "symbol: SOL-USD; action: sell; amount: 42",
			wantSymbol: "SOL-USD", wantAction: domain.Sell, wantAmount: "42",
		},
		{
			name:       "JSON string literal",
			body:       `"symbol: BTC-USD; action: BUY; amount: 7"`,
			wantSymbol: "BTC-USD", wantAction: domain.Buy, wantAmount: "7",
		},
		{
			name:       "case-insensitive keys and loose whitespace",
			body:       "  SYMBOL :BTC-USD ;Action:  buy;  Amount : 0.5 ; ",
			wantSymbol: "BTC-USD", wantAction: domain.Buy, wantAmount: "0.5",
		},
		{
			name:       "same value under two synonyms",
			body:       `{"symbol": "XBTUSD", "ticker": "XBTUSD", "action": "buy", "amount": 1}`,
			wantSymbol: "XBTUSD", wantAction: domain.Buy, wantAmount: "1",
		},
		{
			name:       "amount at the largest accepted magnitude",
			body:       "symbol: BTCUSD; action: buy; amount: 999999999999999.000000000000000001",
			wantSymbol: "BTCUSD", wantAction: domain.Buy, wantAmount: "999999999999999.000000000000000001",
		},
		{
			name:       "message with informational key alongside",
			body:       `{"message": "ticker: ETH-USD; action: sell; amount: 3", "comment": "tv alert"}`,
			wantSymbol: "ETH-USD", wantAction: domain.Sell, wantAmount: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Parse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSymbol, intent.Symbol)
			assert.Equal(t, tt.wantAction, intent.Action)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(intent.Amount), "amount: got %s", intent.Amount)
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", "   "},
		{"missing symbol", `{"message": "action: buy; amount: 10"}`},
		{"missing action", `{"symbol": "BTCUSD", "amount": 10}`},
		{"missing amount", "symbol: BTCUSD; action: buy"},
		{"non-numeric amount", "symbol: BTCUSD; action: buy; amount: ten"},
		{"zero amount", `{"symbol": "BTCUSD", "action": "buy", "amount": 0}`},
		{"negative amount", "symbol: BTCUSD; action: sell; amount: -5"},
		{"unrecognized action", "symbol: BTCUSD; action: hold; amount: 5"},
		{"close is not a direction", `{"symbol": "BTCUSD", "action": "close", "amount": 5}`},
		{"unknown JSON field", `{"symbol": "BTCUSD", "action": "buy", "amount": 5, "leverage": 10}`},
		{"unknown message key", "symbol: BTCUSD; action: buy; amount: 5; leverage: 10"},
		{"segment without colon", "symbol: BTCUSD; buy; amount: 5"},
		{"conflicting synonyms", `{"symbol": "BTCUSD", "ticker": "ETHUSD", "action": "buy", "amount": 5}`},
		{"duplicate key different value", "symbol: BTCUSD; action: buy; amount: 5; action: sell"},
		{"message mixed with direct fields", `{"message": "symbol: BTCUSD; action: buy; amount: 5", "amount": 10}`},
		{"message not a string", `{"message": {"symbol": "BTCUSD"}}`},
		{"nested value", `{"symbol": ["BTCUSD"], "action": "buy", "amount": 5}`},
		{"null amount", `{"symbol": "BTCUSD", "action": "buy", "amount": null}`},
		{"boolean action", `{"symbol": "BTCUSD", "action": true, "amount": 5}`},
		{"malformed JSON", `{"symbol": "BTCUSD", `},
		{"JSON array", `[{"symbol": "BTCUSD"}]`},
		{"empty object", `{}`},
		{"plain text", "hello"},
		{"amount with huge negative exponent", "symbol: BTCUSD; action: buy; amount: 1e-2147483000"},
		{"amount with huge exponent", `{"symbol": "BTCUSD", "action": "buy", "amount": 1e2000000}`},
		{"amount too large", "symbol: BTCUSD; action: buy; amount: 1000000000000000"},
		{"amount too precise", "symbol: BTCUSD; action: buy; amount: 0.0000000000000000001"},
		{"symbol too long", "symbol: " + "ABCDEFGHIJABCDEFGHIJABCDEFGHIJABC" + "; action: buy; amount: 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrParse)
			assert.Equal(t, domain.TradeIntent{}, intent, "no partial intent on failure")
		})
	}
}

func TestParseMessage_ActionCaseFolding(t *testing.T) {
	for _, action := range []string{"buy", "BUY", "Buy", "sell", "SELL", "sElL"} {
		intent, err := ParseMessage("symbol: BTC-USD; action: " + action + "; amount: 12.5")
		require.NoError(t, err, action)
		assert.Equal(t, domain.OrderSide(strings.ToLower(action)), intent.Action)
		assert.Equal(t, "BTC-USD", intent.Symbol)
		assert.Equal(t, "12.5", intent.Amount.String())
	}
}

func TestParseFields_DirectMap(t *testing.T) {
	intent, err := ParseFields(map[string]interface{}{
		"Symbol": "BTC-USD",
		"ACTION": "buy",
		"amount": "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", intent.Symbol)
	assert.Equal(t, domain.Buy, intent.Action)
	assert.True(t, decimal.NewFromInt(100).Equal(intent.Amount))

	_, err = ParseFields(map[string]interface{}{
		"Symbol": "BTC-USD",
		"symbol": "ETH-USD",
		"action": "buy",
		"amount": "100",
	})
	assert.ErrorIs(t, err, ports.ErrParse)
}
