package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mentoresestrategicos/kontify-brain/internal/config"
	"github.com/mentoresestrategicos/kontify-brain/internal/diagnostic"
	"github.com/mentoresestrategicos/kontify-brain/internal/ledger"
	"github.com/mentoresestrategicos/kontify-brain/internal/logging"
	"github.com/mentoresestrategicos/kontify-brain/internal/notify"
	"github.com/mentoresestrategicos/kontify-brain/internal/questionbank"
	"github.com/mentoresestrategicos/kontify-brain/internal/report"
	"github.com/mentoresestrategicos/kontify-brain/internal/server"
	"github.com/mentoresestrategicos/kontify-brain/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	var caller diagnostic.LLMCaller
	if c, err := diagnostic.NewAnthropicCaller(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout); err != nil {
		logger.Warn("scoring disabled, every lead will get the degraded diagnostic", zap.Error(err))
	} else {
		caller = c
	}
	engine := diagnostic.NewEngine(caller, cfg.Banks.SOPDir, logger)

	var renderer report.Renderer
	chromium := report.NewChromiumRenderer()
	if chromium.Available() {
		renderer = chromium
	} else {
		logger.Warn("no chromium binary found, using the basic text renderer")
		renderer = report.NewBasicRenderer()
	}

	leads, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logger.Fatal("open lead ledger", zap.Error(err))
	}
	defer leads.Close()

	sheets := notify.NewSheetsClient(cfg.Sheets.SpreadsheetID, cfg.Sheets.Token)
	if cfg.Sheets.BaseURL != "" {
		sheets.SetBaseURL(cfg.Sheets.BaseURL)
	}
	notifier := notify.NewNotifier(
		notify.NewSlackWebhook(cfg.Slack.WebhookURL),
		sheets,
		notify.NewSendGridClient(cfg.SendGrid.APIKey, cfg.SendGrid.Sender),
		logger,
	)

	handler := server.New(server.Options{
		Bank:       questionbank.NewBank(cfg.Banks.Dir),
		Scorer:     engine,
		Renderer:   renderer,
		Notifier:   notifier,
		Leads:      leads,
		Tracer:     telemetry.Tracer("kontify-brain/server"),
		Log:        logger,
		PublicDir:  cfg.Server.PublicDir,
		ReportsDir: cfg.Server.ReportsDir,
		PublicURL:  cfg.Server.PublicURL,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("kontify-brain listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("banks_dir", cfg.Banks.Dir),
		zap.String("reports_dir", cfg.Server.ReportsDir))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
