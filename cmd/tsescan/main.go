package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mtanaka-dev/tsescan/internal/config"
	"github.com/mtanaka-dev/tsescan/internal/ledger"
	"github.com/mtanaka-dev/tsescan/internal/logger"
	"github.com/mtanaka-dev/tsescan/internal/marketdata"
	"github.com/mtanaka-dev/tsescan/internal/scanner"
	"github.com/mtanaka-dev/tsescan/internal/telegram"
	"github.com/mtanaka-dev/tsescan/internal/tickers"
)

var (
	configPath string
	chunkSize  int
)

func main() {
	root := &cobra.Command{
		Use:           "tsescan",
		Short:         "Daily technical-signal scanner and alert bot for TSE equities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Single-shot scan over the full universe; sends nothing when empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *app) error {
				return app.runner.ScanAndNotify(ctx, app.symbols)
			})
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Chunked scan; notifies once even when every chunk is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *app) error {
				size := app.cfg.Scan.ChunkSize
				if chunkSize > 0 {
					size = chunkSize
				}
				return app.runner.ScanBatched(ctx, app.symbols, size)
			})
		},
	}
	batchCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Override configured chunk size")

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Serve on-demand scans via the Telegram /scan command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), runBot)
		},
	}

	root.AddCommand(scanCmd, batchCmd, botCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("tsescan: %v", err)
	}
}

// app holds the wired collaborators for one invocation.
type app struct {
	cfg      *config.Config
	symbols  []string
	runner   *scanner.Runner
	telegram *telegram.Client
}

// withApp loads configuration, wires the collaborators, runs fn, and tears
// everything down. Configuration and ticker-list failures abort here, before
// any evaluation; the library packages never terminate the process.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	// .env is optional; viper still reads the process environment.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", configPath)

	symbols, err := tickers.Load(cfg.Scan.TickersPath)
	if err != nil {
		return fmt.Errorf("failed to load ticker list: %w", err)
	}
	logger.Info("Loaded %d tickers from %s", len(symbols), cfg.Scan.TickersPath)

	store, err := ledger.Open(cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger: %v", err)
		}
	}()

	market := marketdata.NewClient(cfg.Market.LookbackDays, cfg.Market.MaxRetries, cfg.Market.RetryDelayBase)

	var tgClient *telegram.Client
	var notifier scanner.Notifier
	if cfg.Telegram.Enabled {
		tgClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = tgClient
		logger.Info("Telegram client initialized")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	thresholds := scanner.Thresholds{
		RSI:           cfg.Scan.RSIThreshold,
		SuddenDropPct: cfg.Scan.SuddenDropPct,
		AvgDropPct:    cfg.Scan.AvgDropPct,
		SupportWindow: cfg.Scan.SupportWindow,
	}
	runner := scanner.New(market, market, notifier, store, thresholds)

	return fn(ctx, &app{cfg: cfg, symbols: symbols, runner: runner, telegram: tgClient})
}

// runBot serves the interactive mode: /scan triggers an on-demand cycle
// through the same classifier and ledger as the other modes.
func runBot(ctx context.Context, app *app) error {
	if app.telegram == nil {
		return fmt.Errorf("bot mode requires telegram to be enabled")
	}

	app.telegram.ListenForCommands(ctx, func(ctx context.Context) (string, error) {
		return app.runner.RunInteractive(ctx, app.symbols)
	})
	logger.Info("Bot up, waiting for /scan commands")

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping bot")
	return nil
}
