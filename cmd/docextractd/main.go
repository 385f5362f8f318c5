package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldstack/docextract/internal/classify"
	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/evaluate"
	"github.com/fieldstack/docextract/internal/export"
	"github.com/fieldstack/docextract/internal/extract"
	"github.com/fieldstack/docextract/internal/llm/openai"
	"github.com/fieldstack/docextract/internal/metrics"
	"github.com/fieldstack/docextract/internal/pipeline"
	"github.com/fieldstack/docextract/internal/server"
	"github.com/fieldstack/docextract/internal/store"
	"github.com/fieldstack/docextract/internal/store/jsonfile"
	"github.com/fieldstack/docextract/internal/store/postgres"
	"github.com/fieldstack/docextract/internal/store/sqlitestore"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	documents, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer documents.Close()

	client := openai.NewClient(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Timeout:        cfg.LLM.Timeout,
		RateLimitRPS:   cfg.LLM.RateLimitRPS,
		BreakerEnabled: cfg.LLM.BreakerEnabled,
	}, logger)
	logger.Info("model client initialized", "model", cfg.LLM.Model)

	m := metrics.New()
	p := pipeline.New(
		logger,
		classify.New(client, logger),
		extract.New(client, logger),
		evaluate.New(client, logger),
		documents,
		m,
	)
	exporter := export.NewService(documents, logger)

	srv := server.New(cfg.Server.HTTPAddr, logger, p, documents, exporter, m)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return sqlitestore.Open(ctx, cfg.Store.Path, logger)
	case "postgres":
		return postgres.Open(ctx, cfg.Store.DSN, logger)
	default:
		return jsonfile.New(cfg.Store.Path, logger), nil
	}
}
