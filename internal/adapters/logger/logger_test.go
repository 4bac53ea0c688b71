package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenWebhook/internal/ports"
)

var (
	_ ports.Logger = (*StdLogger)(nil)
	_ ports.Logger = (*ZapLogger)(nil)
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("Error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(9).String())
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, LevelInfo)

	l.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	l.Info(context.Background(), "order placed", map[string]interface{}{"pair": "XBTUSD", "amount": 100})
	assert.Contains(t, buf.String(), "[INFO] order placed | amount=100 pair=XBTUSD")

	buf.Reset()
	l.Error(context.Background(), errors.New("boom"), "failed")
	assert.Contains(t, buf.String(), "[ERROR] failed | error: boom")
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLoggerTo(&buf, ZapConfig{Level: LevelWarn, Service: "krakenWebhook"})

	l.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	l.Error(context.Background(), errors.New("EOrder:Insufficient funds"), "order failed", map[string]interface{}{"pair": "XBTUSD"})
	require.NoError(t, l.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "order failed", entry["msg"])
	assert.Equal(t, "XBTUSD", entry["pair"])
	assert.Equal(t, "EOrder:Insufficient funds", entry["error"])
	assert.Equal(t, "krakenWebhook", entry["service"])
}
