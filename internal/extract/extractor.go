package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/llm"
	"github.com/fieldstack/docextract/internal/schema"
)

const (
	primaryTemperature  = 0.1
	fallbackTemperature = 0.3
)

// Extractor turns classified document text into a schema-valid Record via the
// model. Two attempts per document: a strict primary prompt and one permissive
// fallback. Models intermittently violate output-format instructions; the
// fallback converts a class of formatting failures into a single retry while
// bounding total cost to at most two model calls.
type Extractor struct {
	client llm.CompletionClient
	logger *slog.Logger
	now    func() time.Time
}

func New(client llm.CompletionClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger, now: time.Now}
}

// Extract produces a stamped, schema-valid Record for docType. Fails with
// ErrExtractionFailed only when both the primary and fallback attempts are
// exhausted; the error carries both underlying causes.
func (e *Extractor) Extract(ctx context.Context, docType constants.DocumentType, text string) (entity.Record, error) {
	rid := uuid.New().String()
	start := time.Now()

	s, err := schema.For(docType)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extract.start",
		"req_id", rid,
		"document_type", string(docType),
		"text_len", len(text),
	)

	rec, primaryErr := e.attempt(ctx, s, buildPrimaryPrompt(s, text), primaryTemperature)
	if primaryErr == nil {
		e.logger.Info("extract.primary.ok",
			"req_id", rid,
			"fields", rec.FieldCount(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return rec, nil
	}
	e.logger.Warn("extract.primary.failed", "req_id", rid, "error", primaryErr)

	rec, fallbackErr := e.attempt(ctx, s, buildFallbackPrompt(s, text), fallbackTemperature)
	if fallbackErr == nil {
		e.logger.Info("extract.fallback.ok",
			"req_id", rid,
			"fields", rec.FieldCount(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return rec, nil
	}
	e.logger.Error("extract.failed",
		"req_id", rid,
		"primary_error", primaryErr,
		"fallback_error", fallbackErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return nil, fmt.Errorf("%w: %w", common.ErrExtractionFailed, errors.Join(
		fmt.Errorf("primary: %w", primaryErr),
		fmt.Errorf("fallback: %w", fallbackErr),
	))
}

// attempt runs one model call and carries its output through carve-out,
// stamping, and schema validation. Any failure along the way is local to the
// attempt and reported to the caller for the fallback decision.
func (e *Extractor) attempt(ctx context.Context, s schema.DocumentSchema, prompt string, temperature float32) (entity.Record, error) {
	reply, err := e.client.Complete(ctx, prompt, llm.CompletionOptions{
		Temperature: temperature,
		MaxTokens:   maxTokensFor(s.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	object, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return nil, fmt.Errorf("parse model json: %w", err)
	}

	rec := e.stamp(s, parsed)

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if err := llm.ValidateJSONAgainstSchema(s.JSONSchema(), raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// stamp coerces parsed values to strings, drops keys outside the schema, and
// adds the two reserved keys. Validation afterwards decides acceptance.
func (e *Extractor) stamp(s schema.DocumentSchema, parsed map[string]any) entity.Record {
	rec := make(entity.Record, len(s.Fields)+2)
	for _, f := range s.Fields {
		v, ok := parsed[f.Name]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				rec[f.Name] = trimmed
			}
		case float64:
			rec[f.Name] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			rec[f.Name] = strconv.FormatBool(t)
		}
	}
	for k := range parsed {
		if _, ok := s.Field(k); !ok {
			e.logger.Debug("extract.drop_unknown_key", "key", k)
		}
	}
	rec[schema.KeyDocumentType] = string(s.Type)
	rec[schema.KeyExtractedAt] = e.now().UTC().Format(time.RFC3339)
	return rec
}
