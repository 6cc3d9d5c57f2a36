package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/hedgebot/config"
	"github.com/alejandrodnm/hedgebot/internal/adapters/notify"
	"github.com/alejandrodnm/hedgebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/hedgebot/internal/adapters/storage"
	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/metrics"
	"github.com/alejandrodnm/hedgebot/internal/ports"
	"github.com/alejandrodnm/hedgebot/internal/runner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full dashboard table (default: compact 1-line)")
	yes := flag.Bool("yes", false, "skip the live trading confirmation pause")
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
	setupLogger(cfg.Log)

	if cfg.Wallet.PrivateKey == "" {
		slog.Error("POLY_PRIVATE_KEY is not set — live trading needs a signing key")
		os.Exit(1)
	}

	slog.Info("hedgebot starting",
		"config", *configPath,
		"symbols", cfg.Bot.Symbols,
		"target_spread", cfg.Strategy.TargetSpread,
		"clip_usdc", cfg.Strategy.ClipSizeUSDC,
		"max_exposure_usdc", cfg.Strategy.MaxExposureUSDC,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*yes && !confirmLive(ctx, cfg) {
		slog.Info("aborted by user")
		return
	}

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase)

	auth, err := polymarket.NewAuthClient(client, cfg.Wallet.PrivateKey, cfg.Wallet.Funder)
	if err != nil {
		slog.Error("failed to create auth client", "err", err)
		os.Exit(1)
	}
	if err := auth.EnsureCreds(ctx); err != nil {
		slog.Error("failed to derive API credentials — check POLY_PRIVATE_KEY", "err", err)
		os.Exit(1)
	}
	slog.Info("authenticated with Polymarket CLOB", "address", auth.Address())

	// Las posiciones viven en la cuenta que custodia los fondos
	positionsUser := cfg.Wallet.Funder
	if positionsUser == "" {
		positionsUser = auth.Address()
	}

	trading := polymarket.NewTradingClient(auth)
	dataClient := polymarket.NewDataClient(client, positionsUser)
	feed := polymarket.NewWSFeed(cfg.API.WSBase)

	var store ports.FillStorage
	if cfg.Storage.DSN != "" {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	limits := domain.Limits{
		TargetSpread:       cfg.Strategy.TargetSpread,
		ClipSizeUSDC:       cfg.Strategy.ClipSizeUSDC,
		MaxExposureUSDC:    cfg.Strategy.MaxExposureUSDC,
		MaxImbalanceShares: cfg.Strategy.MaxImbalance,
		MinRepriceInterval: cfg.MinRepriceInterval(),
		MinOrderShares:     cfg.Strategy.MinOrderShares,
		EntryPriceMax:      cfg.Strategy.EntryPriceMax,
	}
	timing := runner.Timing{
		DiscoveryRetry: cfg.DiscoveryRetry(),
		ReadTimeout:    cfg.ReadTimeout(),
		OrderTTL:       cfg.OrderTTL(),
	}

	runners := make([]*runner.MarketRunner, 0, len(cfg.Bot.Symbols))
	for _, symbol := range cfg.Bot.Symbols {
		runners = append(runners, runner.NewMarketRunner(symbol, runner.Deps{
			Markets:   client,
			Positions: dataClient,
			Feed:      feed,
			Executor:  trading,
			Storage:   store,
		}, limits, timing))
	}

	notifier := notify.NewConsole(*table)
	sup := runner.NewBotSupervisor(runners, notifier, cfg.RenderInterval())

	sup.Run(ctx)

	if store != nil {
		printSessionSummary(store)
	}
	slog.Info("hedgebot stopped cleanly")
}

// printSessionSummary resume al apagar lo operado en las últimas 24h según
// el journal, para cotejar contra el venue sin abrir la base a mano.
func printSessionSummary(store ports.FillStorage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fills, err := store.RecentFills(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		slog.Warn("failed to read fill journal", "err", err)
		return
	}

	var notional float64
	for _, f := range fills {
		notional += f.Price * f.Size
	}
	slog.Info("session summary (last 24h)",
		"fills", len(fills),
		"notional_usdc", fmt.Sprintf("%.2f", notional),
	)
}

// confirmLive da 5 segundos para abortar antes de gastar dinero real.
func confirmLive(ctx context.Context, cfg *config.Config) bool {
	fmt.Printf("\n⚠️  LIVE TRADING — REAL MONEY WILL BE SPENT\n")
	fmt.Printf("   Symbols: %v | Clip: $%.2f | Max exposure: $%.2f per market\n",
		cfg.Bot.Symbols, cfg.Strategy.ClipSizeUSDC, cfg.Strategy.MaxExposureUSDC)
	fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics server stopped", "err", err)
	}
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
