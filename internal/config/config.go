// Package config loads and validates the application configuration from a
// YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Market   MarketConfig   `mapstructure:"market"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MarketConfig holds market-data fetch configuration.
type MarketConfig struct {
	LookbackDays   int           `mapstructure:"lookback_days"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ScanConfig holds the alert rule thresholds and universe configuration.
type ScanConfig struct {
	TickersPath   string  `mapstructure:"tickers_path"`
	RSIThreshold  float64 `mapstructure:"rsi_threshold"`
	SuddenDropPct float64 `mapstructure:"sudden_drop_pct"`
	AvgDropPct    float64 `mapstructure:"avg_drop_pct"`
	SupportWindow int     `mapstructure:"support_window"`
	ChunkSize     int     `mapstructure:"chunk_size"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LedgerConfig holds dedup ledger persistence configuration.
type LedgerConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("TSESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.lookback_days", 90)
	v.SetDefault("market.max_retries", 3)
	v.SetDefault("market.retry_delay_base", "1s")

	v.SetDefault("scan.tickers_path", "configs/tickers.txt")
	v.SetDefault("scan.rsi_threshold", 30.0)
	v.SetDefault("scan.sudden_drop_pct", 5.0)
	v.SetDefault("scan.avg_drop_pct", 5.0)
	v.SetDefault("scan.support_window", 20)
	v.SetDefault("scan.chunk_size", 20)

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("ledger.db_path", "./data/ledger.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Market.LookbackDays < 50 {
		return fmt.Errorf("market.lookback_days must be at least 50 (slowest indicator window)")
	}
	if c.Market.MaxRetries < 1 {
		return fmt.Errorf("market.max_retries must be at least 1")
	}

	if c.Scan.TickersPath == "" {
		return fmt.Errorf("scan.tickers_path is required")
	}
	if c.Scan.RSIThreshold <= 0 || c.Scan.RSIThreshold >= 100 {
		return fmt.Errorf("scan.rsi_threshold must be between 0 and 100")
	}
	if c.Scan.SuddenDropPct <= 0 {
		return fmt.Errorf("scan.sudden_drop_pct must be positive")
	}
	if c.Scan.AvgDropPct <= 0 {
		return fmt.Errorf("scan.avg_drop_pct must be positive")
	}
	if c.Scan.SupportWindow < 20 || c.Scan.SupportWindow > 30 {
		return fmt.Errorf("scan.support_window must be between 20 and 30")
	}
	if c.Scan.ChunkSize < 1 {
		return fmt.Errorf("scan.chunk_size must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger.db_path is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
