// Command quote dry-runs alert translation: it normalizes symbols, fetches the
// current price and computes the order volume, but never places an order.
//
//	quote -symbols BTC-USD,ETH-USD -amount 100 -side buy
//	quote -alert 'symbol: BTC-USD; action: sell; amount: 250' -csv data/quotes.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"krakenWebhook/config"
	"krakenWebhook/internal/adapters/krakenclient"
	"krakenWebhook/internal/adapters/logger"
	"krakenWebhook/internal/alert"
	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/risk"
	"krakenWebhook/internal/symbol"
	"krakenWebhook/internal/utils"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma separated symbols to quote, e.g. BTC-USD,ETH-USD")
	amountFlag := flag.String("amount", "100", "notional amount in quote currency")
	sideFlag := flag.String("side", "buy", "buy or sell")
	alertFlag := flag.String("alert", "", "alert payload to dry-run instead of -symbols/-amount/-side")
	csvFlag := flag.String("csv", "", "write results to this CSV file instead of stdout")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	// 3. Build the intents to quote
	intents, err := buildIntents(*alertFlag, *symbolsFlag, *amountFlag, *sideFlag)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 4. Initialize Exchange Client (public endpoints only)
	client, err := krakenclient.New(krakenclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.ExchangeTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Kraken client: %v", err)
	}
	normalizer, err := symbol.NewNormalizer(cfg.AssetAliases, cfg.DefaultPair)
	if err != nil {
		log.Fatalf("FATAL: Invalid asset alias table: %v", err)
	}

	// 5. Quote each intent
	rows := make([]utils.QuoteRow, 0, len(intents))
	failed := 0
	for _, intent := range intents {
		row := utils.QuoteRow{
			QuotedAt: time.Now(),
			Symbol:   intent.Symbol,
			Pair:     normalizer.Normalize(intent.Symbol),
			Side:     intent.Action,
			Amount:   intent.Amount,
		}
		quote, err := client.GetLastPrice(context.Background(), row.Pair)
		if err != nil {
			row.Error = err.Error()
			failed++
			rows = append(rows, row)
			continue
		}
		row.Price = quote.LastPrice
		row.Volume, err = risk.ComputeVolume(intent.Amount, quote.LastPrice)
		if err != nil {
			row.Error = err.Error()
			failed++
		}
		rows = append(rows, row)
	}

	// 6. Output
	if *csvFlag != "" {
		if err := utils.WriteQuotesToCSV(rows, *csvFlag); err != nil {
			log.Fatalf("Error writing CSV: %v", err)
		}
		appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": *csvFlag, "rows": len(rows)})
	} else if err := utils.WriteQuotes(os.Stdout, rows); err != nil {
		log.Fatalf("Error writing output: %v", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func buildIntents(payload, symbols, amount, side string) ([]domain.TradeIntent, error) {
	if payload != "" {
		intent, err := alert.Parse([]byte(payload))
		if err != nil {
			return nil, err
		}
		return []domain.TradeIntent{intent}, nil
	}

	if strings.TrimSpace(symbols) == "" {
		return nil, fmt.Errorf("either -alert or -symbols is required")
	}
	notional, err := decimal.NewFromString(amount)
	if err != nil || !notional.IsPositive() {
		return nil, fmt.Errorf("-amount must be a positive number, got %q", amount)
	}
	if err := domain.CheckMagnitude(notional); err != nil {
		return nil, fmt.Errorf("-amount out of range: %w", err)
	}
	action, err := domain.ParseOrderSide(side)
	if err != nil {
		return nil, err
	}

	var intents []domain.TradeIntent
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			intents = append(intents, domain.TradeIntent{Symbol: s, Action: action, Amount: notional})
		}
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("-symbols %q names no symbol", symbols)
	}
	return intents, nil
}
