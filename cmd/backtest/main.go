package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alejandrodnm/predictsim/config"
	"github.com/alejandrodnm/predictsim/internal/adapters/chain"
	"github.com/alejandrodnm/predictsim/internal/adapters/export"
	"github.com/alejandrodnm/predictsim/internal/adapters/notify"
	"github.com/alejandrodnm/predictsim/internal/adapters/predictor"
	"github.com/alejandrodnm/predictsim/internal/adapters/storage"
	"github.com/alejandrodnm/predictsim/internal/application/backtest"
	"github.com/alejandrodnm/predictsim/internal/application/engine"
	"github.com/alejandrodnm/predictsim/internal/domain"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply if empty)")
	workers := flag.Int("workers", 0, "worker count (overrides config; 0 = NumCPU-1)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	importRange := flag.String("import", "", "import rounds from chain, epochs as from:to")
	exportPath := flag.String("export", "", "export ledger to a parquet file and exit")
	summaryOnly := flag.Bool("summary", false, "print stored ledger summary and exit")
	table := flag.Bool("table", false, "print summary as a table")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *workers > 0 {
		cfg.Backtest.Workers = *workers
	}
	setupLogger(cfg.Log)

	db, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer db.Close()

	rounds := storage.NewRoundStore(db)
	checkpoints := storage.NewCheckpointStore(db)
	ledger := storage.NewLedgerStore(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *importRange != "":
		runImport(ctx, cfg, rounds, *importRange)
		return
	case *exportPath != "":
		runExport(ctx, ledger, *exportPath)
		return
	case *summaryOnly:
		printSummary(ctx, ledger, *table)
		return
	}

	coord := backtest.New(
		backtest.Config{
			Workers: cfg.Backtest.Workers,
			Worker: backtest.WorkerConfig{
				BatchSize:      cfg.Backtest.BatchSize,
				FlushThreshold: cfg.Backtest.FlushThreshold,
				WindowCapacity: cfg.Backtest.WindowCapacity,
			},
			MemoryCeilingFraction: cfg.Backtest.MemoryCeilingFraction,
		},
		rounds,
		checkpoints,
		ledger,
		engineFactory(cfg),
	)

	summary, err := coord.Run(ctx)
	if notifyErr := notify.NewConsole(*table).NotifySummary(ctx, summary); notifyErr != nil {
		slog.Warn("notifier error", "err", notifyErr)
	}
	if err != nil {
		slog.Error("backtest exited with error", "err", err)
		os.Exit(1)
	}
}

// engineFactory construye un engine (con su propio ensemble) por worker.
func engineFactory(cfg *config.Config) backtest.EngineFactory {
	engCfg := engine.Config{
		Thresholds: domain.Thresholds{
			RSIOversold:     cfg.Strategy.RSIOversold,
			RSIOverbought:   cfg.Strategy.RSIOverbought,
			StochOversold:   cfg.Strategy.StochOversold,
			StochOverbought: cfg.Strategy.StochOverbought,
		},
		Sizer: domain.BetSizer{
			MinStake: cfg.Strategy.MinStake,
			MaxStake: cfg.Strategy.MaxStake,
			MinScore: cfg.Strategy.MinScore,
			MaxScore: cfg.Strategy.MaxScore,
		},
		BullThreshold: cfg.Strategy.BullThreshold,
		BearThreshold: cfg.Strategy.BearThreshold,
	}
	return func() *engine.Engine {
		return engine.New(engCfg, predictor.NewEnsemble(cfg.Strategy.EnsembleSize))
	}
}

func runImport(ctx context.Context, cfg *config.Config, rounds *storage.RoundStore, spec string) {
	from, to, err := parseEpochRange(spec)
	if err != nil {
		slog.Error("invalid -import range", "err", err, "spec", spec)
		os.Exit(1)
	}

	importer, err := chain.NewImporter(ctx, cfg.Chain.RPCURL, cfg.Chain.Contract, cfg.Chain.RatePerSec, rounds)
	if err != nil {
		slog.Error("failed to connect to chain", "err", err)
		os.Exit(1)
	}
	defer importer.Close()

	if _, err := importer.Import(ctx, from, to); err != nil {
		slog.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, ledger *storage.LedgerStore, path string) {
	bets, err := ledger.AllBets(ctx)
	if err != nil {
		slog.Error("failed to read ledger", "err", err)
		os.Exit(1)
	}
	if err := export.WriteParquet(path, bets); err != nil {
		slog.Error("export failed", "err", err)
		os.Exit(1)
	}
	slog.Info("ledger exported", "path", path, "bets", len(bets))
}

func printSummary(ctx context.Context, ledger *storage.LedgerStore, table bool) {
	summary, err := ledger.Summary(ctx)
	if err != nil {
		slog.Error("failed to read summary", "err", err)
		os.Exit(1)
	}
	if err := notify.NewConsole(table).NotifySummary(ctx, summary); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// parseEpochRange interpreta "from:to" como rango inclusivo de epochs.
func parseEpochRange(spec string) (int64, int64, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want from:to, got %q", spec)
	}
	from, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse from: %w", err)
	}
	to, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse to: %w", err)
	}
	return from, to, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
