package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"FXInsight/internal/api"
	"FXInsight/internal/collector"
	"FXInsight/internal/config"
	"FXInsight/internal/dashboard"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/forecast"
	"FXInsight/internal/model"
	"FXInsight/internal/notifier"
	"FXInsight/internal/recorder"
	"FXInsight/internal/scheduler"
	"FXInsight/pkg/logger"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(lg)

	if err := cfg.Validate(); err != nil {
		lg.Fatal().Err(err).Msg("config validation")
	}
	lg.Info().Str("config", cfgPath).Str("pair", cfg.Market.Pair).Msg("FXInsight starting")

	// Source priority chain
	var sources []collector.Fetcher
	if *cfg.Sources.Yahoo.Enabled {
		sources = append(sources, collector.NewYahooFetcher(cfg.Sources.Yahoo.BaseURL, cfg.Proxy))
	}
	if cfg.Sources.AlphaVantage.APIKey != "" {
		sources = append(sources, collector.NewAlphaVantageFetcher(cfg.Sources.AlphaVantage.BaseURL, cfg.Sources.AlphaVantage.APIKey, cfg.Proxy))
	}

	popts := []collector.ProviderOption{
		collector.WithLogger(lg),
		collector.WithCacheTTL(cfg.Market.CacheTTL),
		collector.WithMinObservations(cfg.Market.MinObservations),
		collector.WithFlatFallbackPrice(cfg.Market.FlatFallbackPrice),
	}
	if *cfg.Synthetic.Enabled {
		popts = append(popts, collector.WithSynthetic(&collector.SyntheticGenerator{
			Anchor:    cfg.Synthetic.Anchor,
			Sigma:     cfg.Synthetic.Sigma,
			Reversion: cfg.Synthetic.Reversion,
			Seed:      cfg.Synthetic.Seed,
		}))
	}
	provider := collector.NewProvider(sources, popts...)
	lg.Info().Strs("sources", provider.SourceNames()).Bool("synthetic", *cfg.Synthetic.Enabled).Msg("data sources configured")

	// Fair value models
	models := fairvalue.DefaultRegistry()
	for _, m := range cfg.FairValue.Models {
		if err := models.Register(m); err != nil {
			lg.Fatal().Err(err).Msg("register fair value model")
		}
	}
	if cfg.FairValue.Default != "" {
		if err := models.SetDefault(cfg.FairValue.Default); err != nil {
			lg.Fatal().Err(err).Msg("select default fair value model")
		}
	}

	// Dashboard pipeline (Validate already checked pairs and policy)
	pair, _ := model.ParsePair(cfg.Market.Pair)
	policy, _ := forecast.ParsePolicy(cfg.Forecast.Policy)
	peers := make([]collector.PeerSpec, 0, len(cfg.Market.Peers))
	for _, p := range cfg.Market.Peers {
		pp, _ := model.ParsePair(p.Pair)
		peers = append(peers, collector.PeerSpec{Pair: pp, Fallback: p.Fallback})
	}
	svc := dashboard.NewService(provider, models, dashboard.Config{
		Pair:            pair,
		LookbackDays:    cfg.Market.LookbackDays,
		Peers:           peers,
		Horizon:         cfg.Forecast.Horizon,
		Policy:          policy,
		ForecastOptions: cfg.ForecastOptions(),
	}, lg)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, lg)
		if err != nil {
			lg.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, lg)
		sender = tn
	} else {
		lg.Info().Msg("telegram not configured, reports are journaled only")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, sender, rec, lg)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ReportCron); err != nil {
		lg.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		lg.Info().Msg("telegram polling started")
	}

	// Warm the cache so the first request does not wait on the chain
	go func() {
		if _, err := svc.Market(ctx); err != nil {
			lg.Warn().Err(err).Msg("initial market load")
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		lg.Info().Msg("RUN_ON_START enabled, executing report task now")
		go sched.RunReportNow()
	}

	// HTTP API
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(svc, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	lg.Info().Msg("FXInsight is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		lg.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http server shutdown")
	}
	cancel()
	lg.Info().Msg("FXInsight stopped")
}
