package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/textextract"
)

// FileResult is the per-file outcome of a batch run.
type FileResult struct {
	Path         string `json:"path"`
	DocumentID   int64  `json:"document_id,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	Err          string `json:"error,omitempty"`
}

// BatchStats accumulates aggregate accounting for a directory run.
type BatchStats struct {
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// RunDirectory walks root and runs the pipeline for each matching file,
// sequentially. A document-level failure is logged, counted, and does not
// abort the batch.
func (p *Pipeline) RunDirectory(ctx context.Context, root string, includeExts []string, opts Options) ([]FileResult, BatchStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, BatchStats{}, errors.New("root path is required")
	}
	start := time.Now()

	exts := map[string]struct{}{}
	if len(includeExts) == 0 {
		exts = constants.AllowedExtensions
	} else {
		for _, e := range includeExts {
			if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
				exts[e] = struct{}{}
			}
		}
	}

	var results []FileResult
	var stats BatchStats

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Total++
			stats.Errors++
			return nil // continue walking
		}
		if d.IsDir() {
			if isHidden(path) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) {
			return nil
		}
		if _, ok := exts[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Total++

		text, err := textextract.FromFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Errors++
			p.logger.Error("pipeline.batch.text_extract_failed", "path", path, "error", err)
			return nil
		}

		res, err := p.Run(ctx, text, filepath.Base(path), opts)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Errors++
			return nil
		}

		results = append(results, FileResult{
			Path:         path,
			DocumentID:   res.Document.ID,
			DocumentType: res.Document.DocumentType,
		})
		stats.Success++
		return nil
	})

	stats.Duration = time.Since(start)

	p.logger.Info("pipeline.batch.done",
		"root", root,
		"total", stats.Total,
		"success", stats.Success,
		"errors", stats.Errors,
		"elapsed_ms", stats.Duration.Milliseconds(),
	)

	if walkErr != nil {
		return results, stats, fmt.Errorf("walk: %w", walkErr)
	}
	return results, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
