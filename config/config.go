package config

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"krakenWebhook/internal/adapters/logger" // Import the logger package for LogLevel
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all application configuration.
type Config struct {
	// Kraken API
	APIKey    string
	APISecret string // base64, as issued by Kraken
	BaseURL   string

	// Webhook
	WebhookToken    string // empty disables bearer auth
	Port            int
	ShutdownTimeout time.Duration

	// Translation
	DefaultPair     string
	AssetAliases    map[string]string
	RateLimit       time.Duration // cooldown between accepted alerts; 0 disables
	ExchangeTimeout time.Duration

	// Journal
	JournalDBPath string // empty disables the audit journal

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string
	LogFile   string
}

// HasCredentials reports whether private endpoints can be called.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// aliasFile is the YAML layout of ASSET_ALIASES_FILE.
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Kraken API. Missing credentials are allowed; order placement then fails per request.
	cfg.APIKey = strings.TrimSpace(getEnv("KRAKEN_API_KEY", ""))
	cfg.APISecret = strings.TrimSpace(getEnv("KRAKEN_API_SECRET", ""))
	if cfg.APISecret != "" {
		if _, decErr := base64.StdEncoding.DecodeString(cfg.APISecret); decErr != nil {
			errs = append(errs, "KRAKEN_API_SECRET must be base64 encoded")
		}
	}
	if (cfg.APIKey == "") != (cfg.APISecret == "") {
		errs = append(errs, "KRAKEN_API_KEY and KRAKEN_API_SECRET must be set together")
	}

	cfg.BaseURL = strings.TrimRight(getEnv("KRAKEN_BASE_URL", "https://api.kraken.com"), "/")
	if u, parseErr := url.Parse(cfg.BaseURL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("KRAKEN_BASE_URL %q is not an absolute URL", cfg.BaseURL))
	}

	// Webhook
	cfg.WebhookToken = getEnv("WEBHOOK_TOKEN", "")

	cfg.Port, err = getEnvAsIntRequired("PORT", 5000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT: %v", err))
	} else if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	shutdownSeconds, err := getEnvAsFloatRequired("SHUTDOWN_TIMEOUT_SECONDS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SHUTDOWN_TIMEOUT_SECONDS: %v", err))
	} else if shutdownSeconds <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	cfg.ShutdownTimeout = seconds(shutdownSeconds)

	// Translation
	cfg.DefaultPair = getEnv("DEFAULT_PAIR", "XBTUSD")

	cfg.AssetAliases, err = parseAliases(getEnv("ASSET_ALIASES", "BTC=XBT"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ASSET_ALIASES: %v", err))
	}
	if path := getEnv("ASSET_ALIASES_FILE", ""); path != "" {
		fromFile, fileErr := loadAliasFile(path)
		if fileErr != nil {
			errs = append(errs, fmt.Sprintf("invalid ASSET_ALIASES_FILE: %v", fileErr))
		}
		if cfg.AssetAliases == nil {
			cfg.AssetAliases = make(map[string]string, len(fromFile))
		}
		for from, to := range fromFile {
			cfg.AssetAliases[from] = to
		}
	}

	cooldownSeconds, err := getEnvAsFloatRequired("RATE_LIMIT_COOLDOWN_SECONDS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RATE_LIMIT_COOLDOWN_SECONDS: %v", err))
	} else if cooldownSeconds < 0 {
		errs = append(errs, "RATE_LIMIT_COOLDOWN_SECONDS cannot be negative")
	}
	cfg.RateLimit = seconds(cooldownSeconds)

	timeoutSeconds, err := getEnvAsFloatRequired("EXCHANGE_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXCHANGE_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "EXCHANGE_TIMEOUT_SECONDS must be positive")
	}
	cfg.ExchangeTimeout = seconds(timeoutSeconds)

	// Journal
	cfg.JournalDBPath = getEnv("JOURNAL_DB_PATH", "")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", LogFormatText))
	if cfg.LogFormat != LogFormatText && cfg.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be %q or %q", LogFormatText, LogFormatJSON))
	}
	cfg.LogFile = getEnv("LOG_FILE", "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseAliases reads "FROM=TO,FROM=TO". Whitespace around entries is ignored.
func parseAliases(raw string) (map[string]string, error) {
	aliases := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		from, to, found := strings.Cut(entry, "=")
		from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
		if !found || from == "" || to == "" {
			return nil, fmt.Errorf("entry %q is not FROM=TO", entry)
		}
		if prev, ok := aliases[from]; ok && prev != to {
			return nil, fmt.Errorf("asset %s mapped to both %s and %s", from, prev, to)
		}
		aliases[from] = to
	}
	return aliases, nil
}

func loadAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(f.Aliases))
	keys := make([]string, 0, len(f.Aliases))
	for k := range f.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		from, to := strings.ToUpper(strings.TrimSpace(k)), strings.ToUpper(strings.TrimSpace(f.Aliases[k]))
		if from == "" || to == "" {
			return nil, fmt.Errorf("empty alias entry %q=%q in %s", k, f.Aliases[k], path)
		}
		out[from] = to
	}
	return out, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite value '%s' for key %s", valueStr, key)
	}
	return value, nil
}
