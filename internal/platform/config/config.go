package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers understood by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	LogLevel       string
	StoreDriver    string
	MigrationsPath string

	// Balance read cache. Disabled when RedisAddr is empty.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BalanceCacheTTL time.Duration

	RateLimit          string // ulule limiter format, e.g. "100-M"
	CORSAllowedOrigins []string

	JournalRefPrefix string
	ReceiptRefPrefix string

	// Receipt journal posting. Account fields hold account codes.
	ReceiptPostingEnabled    bool
	ReceiptCashAccount       string
	ReceiptBankAccount       string
	ReceiptReceivableAccount string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BALANCE_CACHE_TTL", "30s")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("JOURNAL_REF_PREFIX", "JE")
	viper.SetDefault("RECEIPT_REF_PREFIX", "RCP")
	viper.SetDefault("RECEIPT_POSTING_ENABLED", false)
	viper.SetDefault("RECEIPT_CASH_ACCOUNT", "1000")
	viper.SetDefault("RECEIPT_BANK_ACCOUNT", "1010")
	viper.SetDefault("RECEIPT_RECEIVABLE_ACCOUNT", "1200")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:              viper.GetString("PGSQL_URL"),
		Port:                     viper.GetString("PORT"),
		IsProduction:             viper.GetBool("IS_PRODUCTION"),
		LogLevel:                 strings.ToLower(viper.GetString("LOG_LEVEL")),
		StoreDriver:              strings.ToLower(viper.GetString("STORE_DRIVER")),
		MigrationsPath:           viper.GetString("MIGRATIONS_PATH"),
		RedisAddr:                viper.GetString("REDIS_ADDR"),
		RedisPassword:            viper.GetString("REDIS_PASSWORD"),
		RedisDB:                  viper.GetInt("REDIS_DB"),
		RateLimit:                viper.GetString("RATE_LIMIT"),
		JournalRefPrefix:         strings.ToUpper(viper.GetString("JOURNAL_REF_PREFIX")),
		ReceiptRefPrefix:         strings.ToUpper(viper.GetString("RECEIPT_REF_PREFIX")),
		ReceiptPostingEnabled:    viper.GetBool("RECEIPT_POSTING_ENABLED"),
		ReceiptCashAccount:       strings.TrimSpace(viper.GetString("RECEIPT_CASH_ACCOUNT")),
		ReceiptBankAccount:       strings.TrimSpace(viper.GetString("RECEIPT_BANK_ACCOUNT")),
		ReceiptReceivableAccount: strings.TrimSpace(viper.GetString("RECEIPT_RECEIVABLE_ACCOUNT")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %q", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		log.Println("Warning: STORE_DRIVER=memory keeps all ledger data in process memory.")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	ttlStr := viper.GetString("BALANCE_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 30 * time.Second
		log.Printf("Warning: Invalid value for BALANCE_CACHE_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.BalanceCacheTTL = ttl

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.JournalRefPrefix == "" || cfg.ReceiptRefPrefix == "" {
		return nil, fmt.Errorf("JOURNAL_REF_PREFIX and RECEIPT_REF_PREFIX must not be empty")
	}

	if cfg.ReceiptPostingEnabled && (cfg.ReceiptCashAccount == "" || cfg.ReceiptBankAccount == "" || cfg.ReceiptReceivableAccount == "") {
		return nil, fmt.Errorf("receipt posting requires RECEIPT_CASH_ACCOUNT, RECEIPT_BANK_ACCOUNT and RECEIPT_RECEIVABLE_ACCOUNT")
	}

	return cfg, nil
}
