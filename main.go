package main

import (
	"context"
	"io"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"krakenWebhook/config"
	"krakenWebhook/internal/adapters/httpserver"
	"krakenWebhook/internal/adapters/krakenclient"
	"krakenWebhook/internal/adapters/logger"
	"krakenWebhook/internal/adapters/sqlite"
	"krakenWebhook/internal/app"
	"krakenWebhook/internal/ports"
	"krakenWebhook/internal/risk"
	"krakenWebhook/internal/symbol"
)

const serviceName = "kraken-webhook"

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, syncLogs := newLogger(cfg)
	defer syncLogs()
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Journal (optional)
	var journal ports.AlertJournal = ports.NopJournal{}
	if cfg.JournalDBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath: cfg.JournalDBPath,
			Logger: appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize alert journal")
			log.Fatalf("FATAL: Failed to initialize alert journal: %v", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(ctx, err, "Error closing alert journal")
			}
		}()
		journal = repo
	} else {
		appLogger.Info(ctx, "Alert journal disabled")
	}

	// 4. Initialize Exchange Client (Kraken Adapter)
	krakenClient, err := krakenclient.New(krakenclient.Config{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.ExchangeTimeout,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Kraken client")
		log.Fatalf("FATAL: Failed to initialize Kraken client: %v", err)
	}

	// 5. Symbol normalizer and cooldown gate
	normalizer, err := symbol.NewNormalizer(cfg.AssetAliases, cfg.DefaultPair)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Invalid asset alias table")
		log.Fatalf("FATAL: Invalid asset alias table: %v", err)
	}
	gate := risk.NewCooldownGate(cfg.RateLimit)
	appLogger.Info(ctx, "Translation configured", map[string]interface{}{
		"defaultPair": normalizer.DefaultPair().String(),
		"aliases":     len(cfg.AssetAliases),
		"cooldown":    cfg.RateLimit.String(),
	})

	// 6. Initialize Application Service
	alertService, err := app.NewAlertService(
		app.ServiceConfig{ExchangeTimeout: cfg.ExchangeTimeout},
		appLogger,
		krakenClient,
		normalizer,
		gate,
		journal,
	)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize alert service")
		log.Fatalf("FATAL: Failed to initialize alert service: %v", err)
	}

	// 7. HTTP server
	gin.SetMode(gin.ReleaseMode)
	server, err := httpserver.NewServer(httpserver.Config{
		Port:            cfg.Port,
		Token:           cfg.WebhookToken,
		ServiceName:     serviceName,
		ShutdownTimeout: cfg.ShutdownTimeout,
		JournalEnabled:  cfg.JournalDBPath != "",
	}, appLogger, alertService)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 8. Serve until SIGINT/SIGTERM
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(runCtx); err != nil {
		appLogger.Error(ctx, err, "HTTP server exited with error")
		stop()
		syncLogs()
		os.Exit(1)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}

// newLogger picks the text or JSON logger. The returned func flushes buffered output.
func newLogger(cfg *config.Config) (ports.Logger, func()) {
	if cfg.LogFormat == config.LogFormatJSON {
		zl := logger.NewZapLogger(logger.ZapConfig{
			Level:   cfg.LogLevel,
			File:    cfg.LogFile,
			Service: serviceName,
		})
		return zl, func() { _ = zl.Sync() }
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stderr, logger.RotatingFile(cfg.LogFile))
	}
	return logger.NewStdLoggerTo(w, cfg.LogLevel), func() {}
}
