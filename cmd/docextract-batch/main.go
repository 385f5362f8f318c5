package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldstack/docextract/internal/classify"
	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/evaluate"
	"github.com/fieldstack/docextract/internal/export"
	"github.com/fieldstack/docextract/internal/extract"
	"github.com/fieldstack/docextract/internal/llm/openai"
	"github.com/fieldstack/docextract/internal/pipeline"
	"github.com/fieldstack/docextract/internal/store"
	"github.com/fieldstack/docextract/internal/store/jsonfile"
	"github.com/fieldstack/docextract/internal/store/sqlitestore"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory to process documents from (required)")
		exts     = flag.String("exts", "", "comma-separated extensions to include (default pdf,txt)")
		out      = flag.String("out", "", "output XLSX file path (optional)")
		inmem    = flag.Bool("inmem", false, "use an in-memory SQLite store instead of the configured backend")
		evalFlag = flag.Bool("evaluate", true, "run the quality evaluator on each document")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		documents store.Store
		err       error
	)
	if *inmem {
		documents, err = sqlitestore.Open(ctx, ":memory:", logger)
	} else {
		documents = jsonfile.New(cfg.Store.Path, logger)
	}
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

	p := pipeline.New(
		logger,
		classify.New(client, logger),
		extract.New(client, logger),
		evaluate.New(client, logger),
		documents,
		nil,
	)

	var includeExts []string
	if *exts != "" {
		includeExts = strings.Split(*exts, ",")
	}

	logger.Info("starting batch processing", "dir", *dir)
	results, stats, err := p.RunDirectory(ctx, *dir, includeExts, pipeline.Options{
		Evaluate: *evalFlag,
		Query:    cfg.Pipeline.EvaluateQuery,
	})
	if err != nil {
		logger.Error("batch processing failed", "error", err)
		os.Exit(1)
	}

	for _, r := range results {
		if r.Err != "" {
			logger.Warn("file failed", "path", r.Path, "error", r.Err)
		}
	}

	if *out != "" {
		exporter := export.NewService(documents, logger)
		xlsxBytes, err := exporter.ExportXLSX(ctx, "")
		if err != nil {
			logger.Error("failed to export documents", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
		logger.Info("exported workbook", "output", filepath.Clean(*out))
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Total files: %d\n", stats.Total)
	fmt.Printf("- Succeeded:   %d\n", stats.Success)
	fmt.Printf("- Failed:      %d\n", stats.Errors)
	fmt.Printf("- Duration:    %s\n", stats.Duration.Round(time.Millisecond))
}
