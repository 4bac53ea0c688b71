package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"krakenWebhook/internal/alert"
	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
	"krakenWebhook/internal/risk"
	"krakenWebhook/internal/symbol"
)

const (
	defaultExchangeTimeout = 10 * time.Second
	journalTimeout         = 2 * time.Second
	maxLoggedPayload       = 512
)

// Execution describes what happened to one alert. It is returned alongside
// the error so callers can report partial progress (pair, price, volume).
type Execution struct {
	RequestID  string
	Intent     domain.TradeIntent
	Pair       domain.NormalizedPair
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Result     *domain.OrderResult
	Outcome    domain.Outcome
	RetryAfter time.Duration // set when Outcome is OutcomeRateLimited
}

// ServiceConfig holds the tunables of AlertService.
type ServiceConfig struct {
	ExchangeTimeout time.Duration
	Now             func() time.Time
}

// AlertService turns one inbound alert into at most one market order.
type AlertService struct {
	logger     ports.Logger
	exchange   ports.ExchangeClient
	normalizer *symbol.Normalizer
	gate       ports.Gate
	journal    ports.AlertJournal
	timeout    time.Duration
	now        func() time.Time
}

// NewAlertService creates a new application service instance.
// A nil gate accepts everything; a nil journal discards records.
func NewAlertService(
	cfg ServiceConfig,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	normalizer *symbol.Normalizer,
	gate ports.Gate,
	journal ports.AlertJournal,
) (*AlertService, error) {
	if logger == nil || exchange == nil || normalizer == nil {
		return nil, fmt.Errorf("missing required dependencies for AlertService")
	}
	if cfg.ExchangeTimeout < 0 {
		return nil, fmt.Errorf("configuration ExchangeTimeout must not be negative")
	}
	if cfg.ExchangeTimeout == 0 {
		cfg.ExchangeTimeout = defaultExchangeTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if gate == nil {
		gate = risk.NopGate{}
	}
	if journal == nil {
		journal = ports.NopJournal{}
	}

	return &AlertService{
		logger:     logger,
		exchange:   exchange,
		normalizer: normalizer,
		gate:       gate,
		journal:    journal,
		timeout:    cfg.ExchangeTimeout,
		now:        cfg.Now,
	}, nil
}

// Execute runs parse, gate, normalize, price, volume and order, strictly in
// that order. The returned Execution is never nil. Errors wrap one of the
// ports taxonomy sentinels.
func (s *AlertService) Execute(ctx context.Context, requestID string, body []byte) (exec *Execution, err error) {
	op := "Execute"
	receivedAt := s.now()
	exec = &Execution{RequestID: requestID}
	defer func() { s.record(ctx, receivedAt, body, exec, err) }()

	// 1. Parse
	intent, err := alert.Parse(body)
	if err != nil {
		exec.Outcome = domain.OutcomeInvalid
		s.logger.Warn(ctx, op+": Rejected alert payload", map[string]interface{}{
			"requestID": requestID,
			"error":     err.Error(),
			"payload":   truncatePayload(body),
		})
		return exec, err
	}
	exec.Intent = intent

	// 2. Cooldown gate, before any exchange traffic
	if ok, wait := s.gate.Allow(s.now()); !ok {
		exec.Outcome = domain.OutcomeRateLimited
		exec.RetryAfter = wait
		s.logger.Info(ctx, op+": Alert ignored, cooldown active", map[string]interface{}{
			"requestID":   requestID,
			"waitSeconds": wait.Seconds(),
		})
		return exec, fmt.Errorf("%w: retry in %s", ports.ErrRateLimited, wait.Round(time.Millisecond))
	}

	// 3. Normalize
	exec.Pair = s.normalizer.Normalize(intent.Symbol)
	s.logger.Info(ctx, op+": Alert accepted", map[string]interface{}{
		"requestID": requestID,
		"symbol":    intent.Symbol,
		"pair":      exec.Pair.String(),
		"side":      string(intent.Action),
		"amount":    intent.Amount.String(),
	})

	// Exchange calls outlive the inbound connection: a dispatched order must
	// not be abandoned because the caller hung up.
	exchangeCtx := context.WithoutCancel(ctx)

	// 4. Price
	quote, err := s.fetchPrice(exchangeCtx, exec.Pair)
	if err != nil {
		exec.Outcome = domain.OutcomePriceFailed
		s.logger.Error(ctx, err, op+": Price fetch failed, no order placed", map[string]interface{}{"requestID": requestID, "pair": exec.Pair.String()})
		return exec, err
	}
	exec.Price = quote.LastPrice

	// 5. Volume
	volume, err := risk.ComputeVolume(intent.Amount, quote.LastPrice)
	if err != nil {
		exec.Outcome = domain.OutcomeInvalidVolume
		s.logger.Warn(ctx, op+": Computed volume is not tradable", map[string]interface{}{
			"requestID": requestID,
			"amount":    intent.Amount.String(),
			"price":     quote.LastPrice.String(),
			"error":     err.Error(),
		})
		return exec, err
	}
	exec.Volume = volume

	// 6. Order
	result, err := s.placeOrder(exchangeCtx, exec.Pair, intent.Action, volume)
	exec.Result = result
	if err != nil {
		exec.Outcome = domain.OutcomeOrderFailed
		s.logger.Error(ctx, err, op+": Order submission failed", map[string]interface{}{
			"requestID": requestID,
			"pair":      exec.Pair.String(),
			"side":      string(intent.Action),
			"volume":    volume.StringFixed(domain.VolumeScale),
		})
		return exec, err
	}
	if result != nil {
		result.ReferencePrice = quote.LastPrice
	}
	exec.Outcome = domain.OutcomeSuccess
	s.logger.Info(ctx, op+": Order placed", map[string]interface{}{
		"requestID": requestID,
		"orderID":   result.OrderID,
		"pair":      exec.Pair.String(),
		"side":      string(intent.Action),
		"volume":    volume.StringFixed(domain.VolumeScale),
		"price":     quote.LastPrice.String(),
	})
	return exec, nil
}

// Balances returns account balances under the same exchange timeout.
func (s *AlertService) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	balances, err := s.exchange.GetBalances(callCtx)
	if err != nil {
		s.logger.Error(ctx, err, "Balances: Balance query failed")
		return nil, err
	}
	return balances, nil
}

// RecentAlerts reads back the audit journal, newest first. It is an operator
// view only; the request path never consults it.
func (s *AlertService) RecentAlerts(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	records, err := s.journal.Recent(ctx, limit)
	if err != nil {
		s.logger.Error(ctx, err, "RecentAlerts: Journal read failed")
		return nil, err
	}
	return records, nil
}

func (s *AlertService) fetchPrice(ctx context.Context, pair domain.NormalizedPair) (domain.PriceQuote, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	quote, err := s.exchange.GetLastPrice(callCtx, pair)
	if err != nil {
		if !errors.Is(err, ports.ErrPriceUnavailable) {
			err = fmt.Errorf("%w: %w", ports.ErrPriceUnavailable, err)
		}
		return domain.PriceQuote{}, err
	}
	if !quote.LastPrice.IsPositive() {
		return domain.PriceQuote{}, fmt.Errorf("%w: non-positive price %s for %s", ports.ErrPriceUnavailable, quote.LastPrice, pair)
	}
	return quote, nil
}

func (s *AlertService) placeOrder(ctx context.Context, pair domain.NormalizedPair, side domain.OrderSide, volume decimal.Decimal) (*domain.OrderResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.exchange.PlaceMarketOrder(callCtx, pair, side, volume)
	if err != nil {
		if !errors.Is(err, ports.ErrOrderRejected) && !errors.Is(err, ports.ErrTransport) && !errors.Is(err, ports.ErrInvalidVolume) {
			err = fmt.Errorf("%w: %w", ports.ErrTransport, err)
		}
		return result, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: exchange client returned no result", ports.ErrTransport)
	}
	return result, nil
}

// record appends the outcome to the journal. Failures are logged and otherwise ignored.
func (s *AlertService) record(ctx context.Context, receivedAt time.Time, body []byte, exec *Execution, execErr error) {
	rec := &domain.AlertRecord{
		RequestID:  exec.RequestID,
		ReceivedAt: receivedAt,
		RawPayload: string(body),
		Pair:       exec.Pair,
		Side:       exec.Intent.Action,
		Amount:     exec.Intent.Amount,
		Volume:     exec.Volume,
		Price:      exec.Price,
		Outcome:    exec.Outcome,
	}
	if exec.Result != nil {
		rec.OrderID = exec.Result.OrderID
	}
	if execErr != nil {
		rec.ErrorDetail = execErr.Error()
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if _, err := s.journal.Append(jctx, rec); err != nil {
		s.logger.Error(ctx, err, "record: Failed to append alert to journal", map[string]interface{}{"requestID": exec.RequestID})
	}
}

func truncatePayload(body []byte) string {
	if len(body) <= maxLoggedPayload {
		return string(body)
	}
	return string(body[:maxLoggedPayload]) + "...(truncated)"
}
