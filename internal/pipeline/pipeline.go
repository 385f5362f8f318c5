// Package pipeline sequences classification, extraction, persistence, and the
// optional quality evaluation for one document at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/classify"
	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/evaluate"
	"github.com/fieldstack/docextract/internal/extract"
	"github.com/fieldstack/docextract/internal/metrics"
	"github.com/fieldstack/docextract/internal/store"
)

// Result is the outcome of one successful pipeline run.
type Result struct {
	Document       entity.Document          `json:"document"`
	Classification classify.Result          `json:"classification"`
	Evaluation     *entity.EvaluationResult `json:"evaluation,omitempty"`
	Location       string                   `json:"storage_location"`
}

// Options control the optional evaluation step.
type Options struct {
	Evaluate bool
	// Query describes the extraction intent for the evaluator's confidence
	// signal; empty skips the model-derived confidence.
	Query string
}

// Pipeline wires the core components together. Single-threaded per document;
// retries exist only inside the extractor's primary/fallback pair and are
// invisible at this layer.
type Pipeline struct {
	logger     *slog.Logger
	classifier *classify.Classifier
	extractor  *extract.Extractor
	evaluator  *evaluate.Evaluator
	documents  store.Store
	metrics    *metrics.Metrics // optional
}

func New(
	logger *slog.Logger,
	classifier *classify.Classifier,
	extractor *extract.Extractor,
	evaluator *evaluate.Evaluator,
	documents store.Store,
	m *metrics.Metrics,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		classifier: classifier,
		extractor:  extractor,
		evaluator:  evaluator,
		documents:  documents,
		metrics:    m,
	}
}

// Run processes one document's text. Persistence happens only after a fully
// schema-valid record exists; a terminal failure at any stage aborts this
// document only.
func (p *Pipeline) Run(ctx context.Context, text, sourceLabel string, opts Options) (Result, error) {
	start := time.Now()
	stage := constants.StageValidated

	p.logger.Info("pipeline.document.start", "source", sourceLabel, "text_len", len(text))

	classification, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return Result{}, p.fail(sourceLabel, "", stage, start, err)
	}
	stage = constants.StageClassified

	rec, err := p.extractor.Extract(ctx, classification.Type, text)
	if err != nil {
		return Result{}, p.fail(sourceLabel, string(classification.Type), stage, start, err)
	}
	stage = constants.StageExtracted

	doc := entity.Document{
		ProcessedAt:  time.Now().UTC(),
		SourceLabel:  sourceLabel,
		DocumentType: string(classification.Type),
		Extracted:    rec,
		Metadata:     entity.DocumentMetadata{ExtractedFieldCount: rec.FieldCount()},
	}
	doc, location, err := p.documents.Append(ctx, doc)
	if err != nil {
		return Result{}, p.fail(sourceLabel, doc.DocumentType, stage, start, fmt.Errorf("persist document: %w", err))
	}
	stage = constants.StagePersisted

	res := Result{
		Document:       doc,
		Classification: classification,
		Location:       location,
	}

	if opts.Evaluate && p.evaluator != nil {
		eval := p.evaluator.Evaluate(ctx, rec, text, opts.Query)
		res.Evaluation = &eval
		stage = constants.StageEvaluated
		if p.metrics != nil {
			p.metrics.ObserveEvaluation(eval.Score)
		}
	}

	if p.metrics != nil {
		p.metrics.ObserveDocument(doc.DocumentType, "success", time.Since(start))
	}
	p.logger.Info("pipeline.document.ok",
		"source", sourceLabel,
		"document_type", doc.DocumentType,
		"document_id", doc.ID,
		"stage", string(stage),
		"confidence", classification.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) fail(sourceLabel, docType string, stage constants.Stage, start time.Time, err error) error {
	if p.metrics != nil {
		label := docType
		if label == "" {
			label = "unknown"
		}
		p.metrics.ObserveDocument(label, "error", time.Since(start))
	}
	p.logger.Error("pipeline.document.failed",
		"source", sourceLabel,
		"stage", string(stage),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return err
}
