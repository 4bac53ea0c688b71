package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenWebhook/internal/domain"
)

func TestWriteQuotes(t *testing.T) {
	at := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	rows := []QuoteRow{
		{
			QuotedAt: at, Symbol: "BTC-USD", Pair: "XBTUSD", Side: domain.Buy,
			Amount: decimal.NewFromInt(100), Price: decimal.NewFromInt(50000), Volume: decimal.RequireFromString("0.002"),
		},
		{
			QuotedAt: at, Symbol: "FOO", Pair: "FOO", Side: domain.Sell,
			Amount: decimal.NewFromInt(5), Error: "price unavailable",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteQuotes(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "quoted_at,symbol,pair,side,amount,price,volume,error", lines[0])
	assert.Equal(t, "2025-05-01T09:30:00Z,BTC-USD,XBTUSD,buy,100,50000,0.00200000,", lines[1])
	assert.Equal(t, "2025-05-01T09:30:00Z,FOO,FOO,sell,5,,,price unavailable", lines[2])
}

func TestWriteQuotesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	require.NoError(t, WriteQuotesToCSV(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "quoted_at,symbol,pair,side,amount,price,volume,error\n", string(data))
}
