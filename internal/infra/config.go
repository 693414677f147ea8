package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"tonlotto"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"tonlotto"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"tonlotto"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// TON network
	TonNetwork        string `env:"TON_NETWORK" envDefault:"testnet"`
	TonAPIBaseURL     string `env:"TON_API_BASE_URL"`
	TonAPIKey         string `env:"TON_API_KEY"`
	PlatformWalletKey string `env:"PLATFORM_WALLET_KEY"`
	// DepositAddress is the lottery wallet users send ticket payments to.
	DepositAddress string `env:"LOTTERY_DEPOSIT_ADDRESS"`
	// PayoutAddress is the hot wallet prizes are paid from.
	PayoutAddress string `env:"PLATFORM_PAYOUT_ADDRESS"`
	USDTMaster    string `env:"USDT_JETTON_MASTER"`

	// Scheduler
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	SchedulerBatch    int           `env:"SCHEDULER_BATCH" envDefault:"20"`

	// Payout dispatcher
	PayoutMaxAttempts      int           `env:"PAYOUT_MAX_ATTEMPTS" envDefault:"3"`
	PayoutRetryDelay       time.Duration `env:"PAYOUT_RETRY_DELAY_MS" envDefault:"60000ms"`
	PayoutBatchSize        int           `env:"PAYOUT_BATCH_SIZE" envDefault:"10"`
	PayoutMaxSingleTON     int64         `env:"PAYOUT_MAX_SINGLE_AMOUNT_TON" envDefault:"50"`
	PayoutMaxSingleUSDT    int64         `env:"PAYOUT_MAX_SINGLE_AMOUNT_USDT" envDefault:"250"`
	PayoutMaxDailyTON      int64         `env:"PAYOUT_MAX_DAILY_TOTAL_TON" envDefault:"500"`
	PayoutMaxDailyUSDT     int64         `env:"PAYOUT_MAX_DAILY_TOTAL_USDT" envDefault:"2500"`
	PayoutDispatchInterval time.Duration `env:"PAYOUT_DISPATCH_INTERVAL" envDefault:"30s"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.TonNetwork != "mainnet" && c.TonNetwork != "testnet" {
		return fmt.Errorf("TON_NETWORK must be mainnet or testnet, got %q", c.TonNetwork)
	}
	if c.DepositAddress == "" {
		return fmt.Errorf("LOTTERY_DEPOSIT_ADDRESS is required")
	}
	if c.TonNetwork == "mainnet" && c.PlatformWalletKey == "" {
		return fmt.Errorf("PLATFORM_WALLET_KEY is required on mainnet")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// TonAPIURL returns the chain RPC endpoint, defaulting per network.
func (c *Config) TonAPIURL() string {
	if c.TonAPIBaseURL != "" {
		return c.TonAPIBaseURL
	}
	if c.TonNetwork == "mainnet" {
		return "https://toncenter.com/api/v2"
	}
	return "https://testnet.toncenter.com/api/v2"
}
