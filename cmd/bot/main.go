// Package main is the entry point of the spread alert bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/your-org/spread-alert-bot/internal/alert"
	"github.com/your-org/spread-alert-bot/internal/cache"
	"github.com/your-org/spread-alert-bot/internal/config"
	"github.com/your-org/spread-alert-bot/internal/exchange/binancef"
	"github.com/your-org/spread-alert-bot/internal/http/handler"
	"github.com/your-org/spread-alert-bot/internal/journal"
	sig "github.com/your-org/spread-alert-bot/internal/signal"
	"github.com/your-org/spread-alert-bot/internal/stats"
	"github.com/your-org/spread-alert-bot/internal/stream"
	"github.com/your-org/spread-alert-bot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	listenAddr := flag.String("listen", ":8080", "Address for the health/diagnostics HTTP server")
	flag.Parse()

	// Secrets come from the environment; a .env file is a convenience
	// for local runs and may be absent.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.SetGlobalLogLevel(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("Spread alert bot starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)
	logger.Infof("Policy: %s, entry %.4f%%, exit %.4f%%, cooldown %s",
		cfg.Policy, cfg.EntryThresholdPct, cfg.ExitThresholdPct, cfg.SignalCooldown.Duration())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Signal journal (optional) ---
	var journalWriter *journal.Writer
	var recorder sig.EventRecorder
	if cfg.Database.URL != "" {
		journalWriter, err = journal.NewWriter(ctx, cfg.Database, logger.Zap())
		if err != nil {
			logger.Fatalf("Failed to initialize signal journal: %v", err)
		}
		recorder = journalWriter
		logger.Info("Signal journal initialized")
	}

	// --- Notification sink ---
	var notifier alert.Notifier
	if cfg.Discord.Enabled {
		notifier, err = alert.NewDiscordNotifier(cfg.Discord, logger.Zap())
		if err != nil {
			logger.Fatalf("Failed to initialize Discord notifier: %v", err)
		}
		logger.Info("Discord notifier initialized")
	} else {
		notifier = alert.NewNoOpNotifier()
		logger.Info("Alerting disabled, using no-op notifier")
	}
	dispatcher := alert.NewDispatcher(notifier, 256)

	// --- Core: cache and signal engine ---
	store := cache.New()
	engine, err := sig.NewEngine(cfg, dispatcher.Enqueue, recorder)
	if err != nil {
		logger.Fatalf("Failed to initialize signal engine: %v", err)
	}

	// --- Startup diagnostic (non-fatal) ---
	symbolCount := "unknown"
	diagCtx, diagCancel := context.WithTimeout(ctx, 15*time.Second)
	if count, err := binancef.CountTradableSymbols(diagCtx, cfg.Stream.RestURL, cfg.QuoteAsset); err != nil {
		logger.Warnf("Symbol count diagnostic failed: %v", err)
	} else {
		symbolCount = fmt.Sprintf("%d", count)
	}
	diagCancel()
	logger.Infof("Tradable %s symbols: %s", cfg.QuoteAsset, symbolCount)

	// --- Health / diagnostics server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.HealthCheckHandler)
	mux.Handle("/signals", handler.NewSignalsHandler(engine))
	go func() {
		logger.Infof("Diagnostics server starting on %s", *listenAddr)
		if err := http.ListenAndServe(*listenAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Diagnostics server failed: %v", err)
		}
	}()

	// --- Stream supervisors ---
	markSup := stream.New(stream.Config{
		Name:            "mark-stream",
		URL:             cfg.Stream.MarkURL,
		ForcedReconnect: cfg.Stream.ForcedReconnect.Duration(),
		RetryDelay:      cfg.Stream.RetryDelay.Duration(),
	}, binancef.MarkPriceHandler(store, engine))

	// Only the book stream carries the idle watchdog: its natural message
	// rate can silently stop, while the mark stream ticks on a schedule.
	bookSup := stream.New(stream.Config{
		Name:            "book-stream",
		URL:             cfg.Stream.BookURL,
		ForcedReconnect: cfg.Stream.ForcedReconnect.Duration(),
		RetryDelay:      cfg.Stream.RetryDelay.Duration(),
		WatchdogSilence: cfg.Stream.WatchdogSilence.Duration(),
		WatchdogCheck:   cfg.Stream.WatchdogCheck.Duration(),
	}, binancef.BookTickerHandler(store, engine))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		markSup.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		bookSup.Run(ctx)
	}()

	// --- Stats reporter ---
	reporter := stats.NewReporter(cfg.Stats.Interval.Duration(), stats.Snapshotter{
		Feeds: []stats.Feed{
			{Name: "mark", Frames: markSup.Frames},
			{Name: "book", Frames: bookSup.Frames, WatchdogReconnects: bookSup.WatchdogReconnects},
		},
		ActiveCount: engine.ActiveCount,
		SymbolCount: store.Symbols,
		ActiveLines: func(now time.Time) []string {
			active := engine.Active()
			lines := make([]string, 0, len(active))
			for _, s := range active {
				lines = append(lines, fmt.Sprintf("%s %s age=%s entry=%.4f%%",
					s.Symbol, s.Direction, now.Sub(s.EntryTime).Round(time.Second), s.EntrySpread))
			}
			return lines
		},
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		reporter.Run(ctx)
	}()

	// --- Graceful shutdown ---
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	received := <-sigs
	logger.Infof("Received signal: %s, initiating shutdown...", received)

	cancel()
	wg.Wait()

	dispatcher.Enqueue("Spread alert bot shutting down")
	if err := dispatcher.Close(); err != nil {
		logger.Errorf("Failed to close notifier: %v", err)
	}
	if journalWriter != nil {
		journalWriter.Close()
	}
	logger.Info("Spread alert bot shut down gracefully")
}
