package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
market:
  lookback_days: 120
  max_retries: 2
  retry_delay_base: 2s

scan:
  tickers_path: "configs/tickers.txt"
  rsi_threshold: 25
  sudden_drop_pct: 4.5
  avg_drop_pct: 6
  support_window: 30
  chunk_size: 10

telegram:
  bot_token: "test_token"
  chat_id: "123456"
  enabled: true

ledger:
  db_path: "./data/test-ledger.db"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Market.LookbackDays != 120 {
		t.Errorf("unexpected lookback days: %d", cfg.Market.LookbackDays)
	}
	if cfg.Market.RetryDelayBase != 2*time.Second {
		t.Errorf("unexpected retry delay: %v", cfg.Market.RetryDelayBase)
	}
	if cfg.Scan.RSIThreshold != 25 {
		t.Errorf("unexpected RSI threshold: %v", cfg.Scan.RSIThreshold)
	}
	if cfg.Scan.SuddenDropPct != 4.5 {
		t.Errorf("unexpected sudden drop pct: %v", cfg.Scan.SuddenDropPct)
	}
	if cfg.Scan.SupportWindow != 30 {
		t.Errorf("unexpected support window: %d", cfg.Scan.SupportWindow)
	}
	if cfg.Telegram.ChatID != "123456" {
		t.Errorf("unexpected chat ID: %q", cfg.Telegram.ChatID)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Market.LookbackDays != 90 {
		t.Errorf("default lookback days = %d, want 90", cfg.Market.LookbackDays)
	}
	if cfg.Scan.RSIThreshold != 30.0 {
		t.Errorf("default RSI threshold = %v, want 30", cfg.Scan.RSIThreshold)
	}
	if cfg.Scan.SuddenDropPct != 5.0 {
		t.Errorf("default sudden drop pct = %v, want 5", cfg.Scan.SuddenDropPct)
	}
	if cfg.Scan.SupportWindow != 20 {
		t.Errorf("default support window = %d, want 20", cfg.Scan.SupportWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			"short lookback",
			func(c *Config) { c.Market.LookbackDays = 30 },
			"lookback_days",
		},
		{
			"missing tickers path",
			func(c *Config) { c.Scan.TickersPath = "" },
			"tickers_path",
		},
		{
			"RSI threshold out of range",
			func(c *Config) { c.Scan.RSIThreshold = 150 },
			"rsi_threshold",
		},
		{
			"support window too wide",
			func(c *Config) { c.Scan.SupportWindow = 40 },
			"support_window",
		},
		{
			"telegram enabled without token",
			func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "" },
			"bot_token",
		},
		{
			"bad log level",
			func(c *Config) { c.Logging.Level = "verbose" },
			"logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Market: MarketConfig{LookbackDays: 90, MaxRetries: 3, RetryDelayBase: time.Second},
		Scan: ScanConfig{
			TickersPath:   "configs/tickers.txt",
			RSIThreshold:  30,
			SuddenDropPct: 5,
			AvgDropPct:    5,
			SupportWindow: 20,
			ChunkSize:     20,
		},
		Telegram: TelegramConfig{BotToken: "token", ChatID: "123", Enabled: true, MaxRetries: 3, RetryDelayBase: time.Second},
		Ledger:   LedgerConfig{DBPath: "./data/ledger.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}
