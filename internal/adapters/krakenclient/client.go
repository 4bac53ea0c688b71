package krakenclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
)

const (
	baseURLProduction = "https://api.kraken.com"

	pathTicker   = "/0/public/Ticker"
	pathAddOrder = "/0/private/AddOrder"
	pathBalance  = "/0/private/Balance"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client implements ports.ExchangeClient against the Kraken spot REST API.
type Client struct {
	baseURL    string
	apiKey     string
	secret     []byte
	httpClient *http.Client
	timeout    time.Duration
	nonces     *nonceSource
	logger     ports.Logger
}

var _ ports.ExchangeClient = (*Client)(nil)

// Config holds configuration specific to the Kraken client adapter.
type Config struct {
	APIKey     string
	APISecret  string // base64, as issued by Kraken
	BaseURL    string // defaults to production
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     ports.Logger
	Now        func() time.Time // nonce clock; defaults to time.Now
}

// New creates a new Kraken client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Kraken client")
	}

	var secret []byte
	if cfg.APIKey == "" || cfg.APISecret == "" {
		cfg.Logger.Warn(context.Background(), "Kraken API key or secret is empty. Client will only work for public endpoints.")
	} else {
		var err error
		secret, err = base64.StdEncoding.DecodeString(cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("%w: KRAKEN_API_SECRET is not valid base64", ports.ErrConfigurationError)
		}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = baseURLProduction
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	cfg.Logger.Info(context.Background(), "Kraken client configured", map[string]interface{}{"baseURL": baseURL, "timeout": timeout.String()})

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		secret:     secret,
		httpClient: httpClient,
		timeout:    timeout,
		nonces:     newNonceSource(cfg.Now),
		logger:     cfg.Logger,
	}, nil
}

// envelope is the common Kraken response wrapper.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// exchangeError carries the exchange's error list verbatim.
type exchangeError struct {
	Messages []string
}

func (e *exchangeError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// handleError translates transport and exchange failures into ports errors.
// kind is the taxonomy error the operation reports for every failure.
func (c *Client) handleError(ctx context.Context, err error, operation string, kind error, fields map[string]interface{}) error {
	if err == nil {
		return nil
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["operation"] = operation

	var finalErr error
	var exErr *exchangeError
	switch {
	case errors.As(err, &exErr):
		fields["exchangeError"] = exErr.Error()
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, kind, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, kind, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w: %w", operation, kind, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, kind, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// GetLastPrice retrieves the last trade price for pair from the public Ticker endpoint.
func (c *Client) GetLastPrice(ctx context.Context, pair domain.NormalizedPair) (domain.PriceQuote, error) {
	op := "GetLastPrice"
	fields := map[string]interface{}{"pair": pair.String()}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result map[string]struct {
		Close []string `json:"c"`
	}
	if err := c.publicGet(ctx, pathTicker, url.Values{"pair": {pair.String()}}, &result); err != nil {
		return domain.PriceQuote{}, c.handleError(ctx, err, op, ports.ErrPriceUnavailable, fields)
	}
	if len(result) == 0 {
		err := fmt.Errorf("no ticker result for pair %s", pair)
		return domain.PriceQuote{}, c.handleError(ctx, err, op, ports.ErrPriceUnavailable, fields)
	}

	// Kraken may echo the pair under its canonical name (XBTUSD -> XXBTZUSD).
	entry, ok := result[pair.String()]
	if !ok {
		if len(result) != 1 {
			err := fmt.Errorf("ticker result has %d pairs and none match %s", len(result), pair)
			return domain.PriceQuote{}, c.handleError(ctx, err, op, ports.ErrPriceUnavailable, fields)
		}
		for key, v := range result {
			entry = v
			fields["resultKey"] = key
		}
	}
	if len(entry.Close) == 0 {
		err := fmt.Errorf("ticker for pair %s has no last trade", pair)
		return domain.PriceQuote{}, c.handleError(ctx, err, op, ports.ErrPriceUnavailable, fields)
	}

	price, err := decimal.NewFromString(entry.Close[0])
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", entry.Close[0], err)
		return domain.PriceQuote{}, c.handleError(ctx, parseErr, op, ports.ErrPriceUnavailable, fields)
	}
	if !price.IsPositive() {
		err := fmt.Errorf("non-positive price %s for pair %s", price, pair)
		return domain.PriceQuote{}, c.handleError(ctx, err, op, ports.ErrPriceUnavailable, fields)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"pair": pair.String(), "price": price.String()})
	return domain.PriceQuote{Pair: pair, LastPrice: price}, nil
}

// PlaceMarketOrder submits a market order through the private AddOrder endpoint.
// It is never retried: a second call places a second real order.
func (c *Client) PlaceMarketOrder(ctx context.Context, pair domain.NormalizedPair, side domain.OrderSide, volume decimal.Decimal) (*domain.OrderResult, error) {
	op := "PlaceMarketOrder"
	req := domain.OrderRequest{
		Pair:      pair,
		Side:      side,
		OrderType: domain.Market,
		Volume:    volume,
	}
	fields := map[string]interface{}{"pair": pair.String(), "side": string(side), "volume": req.VolumeString()}

	if side != domain.Buy && side != domain.Sell {
		err := fmt.Errorf("unsupported order side %q", side)
		return nil, c.handleError(ctx, err, op, ports.ErrOrderRejected, fields)
	}
	if !volume.IsPositive() {
		err := fmt.Errorf("volume must be positive, got %s", volume)
		return nil, c.handleError(ctx, err, op, ports.ErrInvalidVolume, fields)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result struct {
		Descr struct {
			Order string `json:"order"`
		} `json:"descr"`
		TxID []string `json:"txid"`
	}
	err := c.privatePost(ctx, pathAddOrder, func(nonce uint64) url.Values {
		req.Nonce = nonce
		return url.Values{
			"ordertype": {string(req.OrderType)},
			"type":      {string(req.Side)},
			"volume":    {req.VolumeString()},
			"pair":      {req.Pair.String()},
		}
	}, &result)
	if err != nil {
		fields["nonce"] = req.Nonce
		var exErr *exchangeError
		if errors.As(err, &exErr) {
			res := &domain.OrderResult{Pair: pair, Side: side, ErrorDetail: exErr.Error()}
			return res, c.handleError(ctx, err, op, ports.ErrOrderRejected, fields)
		}
		if errors.Is(err, ports.ErrAuthenticationFailed) {
			return nil, c.handleError(ctx, err, op, ports.ErrOrderRejected, fields)
		}
		return nil, c.handleError(ctx, err, op, ports.ErrTransport, fields)
	}

	res := &domain.OrderResult{
		Success:        true,
		Description:    result.Descr.Order,
		Pair:           pair,
		Side:           side,
		ExecutedVolume: volume,
	}
	if len(result.TxID) > 0 {
		res.OrderID = result.TxID[0]
	} else {
		c.logger.Warn(ctx, op+": order accepted without a txid", fields)
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"pair":    pair.String(),
		"side":    string(side),
		"volume":  req.VolumeString(),
		"orderID": res.OrderID,
		"descr":   res.Description,
		"nonce":   req.Nonce,
	})
	return res, nil
}

// GetBalances retrieves all non-empty asset balances for the account.
func (c *Client) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	op := "GetBalances"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result map[string]string
	if err := c.privatePost(ctx, pathBalance, func(uint64) url.Values { return url.Values{} }, &result); err != nil {
		var exErr *exchangeError
		if errors.As(err, &exErr) || errors.Is(err, ports.ErrAuthenticationFailed) {
			return nil, c.handleError(ctx, err, op, ports.ErrExchangeRejected, nil)
		}
		return nil, c.handleError(ctx, err, op, ports.ErrTransport, nil)
	}

	balances := make(map[string]decimal.Decimal, len(result))
	for asset, raw := range result {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			parseErr := fmt.Errorf("could not parse balance '%s' for asset %s: %w", raw, asset, err)
			return nil, c.handleError(ctx, parseErr, op, ports.ErrExchangeRejected, nil)
		}
		balances[asset] = amount
	}
	return balances, nil
}

func (c *Client) publicGet(ctx context.Context, path string, params url.Values, target interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, target)
}

// privatePost signs and sends a private request. The nonce is drawn inside so
// that every signed request gets a fresh one.
func (c *Client) privatePost(ctx context.Context, path string, build func(nonce uint64) url.Values, target interface{}) error {
	if c.apiKey == "" || len(c.secret) == 0 {
		return fmt.Errorf("%w: private call requires api credentials", ports.ErrAuthenticationFailed)
	}

	nonce := c.nonces.Next()
	form := build(nonce)
	form.Set("nonce", strconv.FormatUint(nonce, 10))
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("API-Sign", sign(c.secret, path, nonce, body))
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "krakenWebhook/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ports.ErrTransport, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: kraken http %d: %s", ports.ErrTransport, resp.StatusCode, truncate(string(raw), 256))
		}
		// A 2xx we cannot read leaves the outcome unknown, which is a transport problem for the caller.
		return fmt.Errorf("%w: decode kraken response: %w", ports.ErrTransport, err)
	}
	if len(env.Error) > 0 {
		return &exchangeError{Messages: env.Error}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: kraken http %d", ports.ErrTransport, resp.StatusCode)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, target); err != nil {
		return fmt.Errorf("%w: decode kraken result: %w", ports.ErrTransport, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
