package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenWebhook/config"
	"krakenWebhook/internal/adapters/httpserver"
	"krakenWebhook/internal/adapters/krakenclient"
	"krakenWebhook/internal/adapters/logger"
	"krakenWebhook/internal/adapters/sqlite"
	"krakenWebhook/internal/app"
	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/risk"
	"krakenWebhook/internal/symbol"
)

const (
	testAPIKey = "test-api-key"
	testToken  = "hook-token"
)

// fakeKraken serves the three Kraken endpoints the service uses.
type fakeKraken struct {
	mu         sync.Mutex
	addOrders  []url.Values
	apiKeys    []string
	signatures []string
}

func (f *fakeKraken) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/0/public/Ticker":
		// Kraken answers XBTUSD under its canonical XXBTZUSD key.
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"a":["50001.0","1","1.000"],"c":["50000.0","0.0100"]}}}`))
	case "/0/private/AddOrder":
		_ = r.ParseForm()
		f.mu.Lock()
		f.addOrders = append(f.addOrders, r.PostForm)
		f.apiKeys = append(f.apiKeys, r.Header.Get("API-Key"))
		f.signatures = append(f.signatures, r.Header.Get("API-Sign"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"error":[],"result":{"descr":{"order":"buy 0.00200000 XBTUSD @ market"},"txid":["OUF4EM-FRGI2-MQMWZD"]}}`))
	case "/0/private/Balance":
		_, _ = w.Write([]byte(`{"error":[],"result":{"ZUSD":"1000.5000","XXBT":"0.0100000000"}}`))
	default:
		http.NotFound(w, r)
	}
}

// setupTestEnvironment wires the real adapters against a fake exchange.
func setupTestEnvironment(t *testing.T, cooldown time.Duration) (http.Handler, *fakeKraken, *sqlite.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	appLogger := logger.NewStdLogger(logger.LevelError)

	fake := &fakeKraken{}
	exchange := httptest.NewServer(fake)
	t.Cleanup(exchange.Close)

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "journal.db"),
		Logger: appLogger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	client, err := krakenclient.New(krakenclient.Config{
		APIKey:    testAPIKey,
		APISecret: base64.StdEncoding.EncodeToString([]byte("test-secret")),
		BaseURL:   exchange.URL,
		Timeout:   2 * time.Second,
		Logger:    appLogger,
	})
	require.NoError(t, err)

	normalizer, err := symbol.NewNormalizer(symbol.DefaultAliases, "XBTUSD")
	require.NoError(t, err)

	svc, err := app.NewAlertService(app.ServiceConfig{ExchangeTimeout: 2 * time.Second}, appLogger, client, normalizer, risk.NewCooldownGate(cooldown), repo)
	require.NoError(t, err)

	srv, err := httpserver.NewServer(httpserver.Config{
		Token:          testToken,
		ServiceName:    serviceName,
		JournalEnabled: true,
	}, appLogger, svc)
	require.NoError(t, err)

	return srv.Handler(), fake, repo
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEndToEnd_WebhookPlacesOrder(t *testing.T) {
	h, fake, repo := setupTestEnvironment(t, 0)

	rec := post(h, "/webhook", `{"message": "symbol: BTC-USD; action: buy; amount: 100"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Status      string `json:"status"`
		OrderResult struct {
			OrderID string `json:"order_id"`
			Pair    string `json:"pair"`
			Side    string `json:"side"`
			Volume  string `json:"volume"`
			Price   string `json:"price"`
		} `json:"order_result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "OUF4EM-FRGI2-MQMWZD", out.OrderResult.OrderID)
	assert.Equal(t, "XBTUSD", out.OrderResult.Pair)
	assert.Equal(t, "buy", out.OrderResult.Side)
	assert.Equal(t, "0.00200000", out.OrderResult.Volume)
	assert.Equal(t, "50000", out.OrderResult.Price)

	require.Len(t, fake.addOrders, 1)
	form := fake.addOrders[0]
	assert.Equal(t, "XBTUSD", form.Get("pair"))
	assert.Equal(t, "buy", form.Get("type"))
	assert.Equal(t, "market", form.Get("ordertype"))
	assert.Equal(t, "0.00200000", form.Get("volume"))
	assert.NotEmpty(t, form.Get("nonce"))
	assert.Equal(t, testAPIKey, fake.apiKeys[0])
	assert.NotEmpty(t, fake.signatures[0])

	records, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, "OUF4EM-FRGI2-MQMWZD", records[0].OrderID)
	assert.Equal(t, "0.002", records[0].Volume.String())
}

func TestEndToEnd_CooldownAndJournal(t *testing.T) {
	h, fake, _ := setupTestEnvironment(t, time.Hour)

	require.Equal(t, http.StatusOK, post(h, "/webhook", "symbol: BTC-USD; action: sell; amount: 50").Code)
	rec := post(h, "/webhook", "symbol: BTC-USD; action: sell; amount: 50")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ignored"`)
	assert.Len(t, fake.addOrders, 1)

	req := httptest.NewRequest(http.MethodGet, "/journal?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	jrec := httptest.NewRecorder()
	h.ServeHTTP(jrec, req)
	require.Equal(t, http.StatusOK, jrec.Code)

	var out struct {
		Entries []struct {
			Outcome string `json:"outcome"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(jrec.Body.Bytes(), &out))
	require.Len(t, out.Entries, 2)
	assert.Equal(t, "rate_limited", out.Entries[0].Outcome)
	assert.Equal(t, "success", out.Entries[1].Outcome)
}

func TestEndToEnd_Balance(t *testing.T) {
	h, _, _ := setupTestEnvironment(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","balances":{"ZUSD":"1000.5","XXBT":"0.01"}}`, rec.Body.String())
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	textLogger, flush := newLogger(&config.Config{LogLevel: logger.LevelInfo, LogFormat: config.LogFormatText, LogFile: filepath.Join(dir, "text.log")})
	require.NotNil(t, textLogger)
	assert.IsType(t, &logger.StdLogger{}, textLogger)
	flush()

	jsonLogger, flush := newLogger(&config.Config{LogLevel: logger.LevelInfo, LogFormat: config.LogFormatJSON})
	require.NotNil(t, jsonLogger)
	assert.IsType(t, &logger.ZapLogger{}, jsonLogger)
	flush()
}
