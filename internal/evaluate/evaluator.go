package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/llm"
	"github.com/fieldstack/docextract/internal/schema"
)

// Sub-score weights for the heuristic composite. Confidence, when measured,
// is blended at confidenceWeight while the heuristics scale down to the rest.
const (
	weightCompleteness  = 0.35
	weightFieldAccuracy = 0.30
	weightFormat        = 0.20
	weightDataQuality   = 0.15

	confidenceWeight = 0.10

	warningPenalty = 2.0
	errorPenalty   = 8.0
)

// Evaluator scores extracted records without ground truth, purely from surface
// properties of the values: presence, placeholder-ness, and shape conformance.
// Evaluate never fails; all problems degrade to entries in the error and
// warning lists.
type Evaluator struct {
	scorer llm.RelevancyScorer // optional; nil disables the confidence step
	logger *slog.Logger
}

func New(scorer llm.RelevancyScorer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{scorer: scorer, logger: logger}
}

// Evaluate computes the composite quality score for rec. sourceText and
// sourceQuery are optional; when both are supplied and a relevancy scorer is
// configured, a model-derived confidence is blended into the composite.
// Failure of that call is downgraded to a warning, never propagated.
func (e *Evaluator) Evaluate(ctx context.Context, rec entity.Record, sourceText, sourceQuery string) entity.EvaluationResult {
	start := time.Now()

	res := entity.EvaluationResult{
		Errors:        []string{},
		Warnings:      []string{},
		QualityIssues: []string{},
		MissingFields: []string{},
	}

	// Structural short-circuit: anything but a non-nil field map scores zero.
	if rec == nil {
		res.Errors = append(res.Errors, "record is not a field map")
		return res
	}
	res.DocumentType = rec.DocumentType()

	docType, ok := constants.ParseDocumentType(res.DocumentType)
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unsupported document type: %q", res.DocumentType))
		return res
	}
	s, err := schema.For(docType)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	e.validate(s, rec, &res)
	res.IsValid = len(res.Errors) == 0

	res.Completeness = e.completeness(s, rec)
	res.FieldAccuracy = e.fieldAccuracy(s, rec)
	res.FormatCompliance = e.formatCompliance(s, rec, &res)
	res.DataQuality = e.dataQuality(s, rec)
	e.collectWarnings(s, rec, &res)
	e.confidence(ctx, rec, sourceText, sourceQuery, &res)

	heuristic := weightCompleteness*res.Completeness +
		weightFieldAccuracy*res.FieldAccuracy +
		weightFormat*res.FormatCompliance +
		weightDataQuality*res.DataQuality

	score := heuristic
	if res.Confidence != nil {
		score = (1-confidenceWeight)*heuristic + confidenceWeight**res.Confidence
	}
	score -= warningPenalty * float64(len(res.Warnings))
	score -= errorPenalty * float64(len(res.Errors))
	res.Score = clamp(score)

	e.logger.Info("evaluate.ok",
		"document_type", res.DocumentType,
		"score", res.Score,
		"is_valid", res.IsValid,
		"errors", len(res.Errors),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// validate collects one error per violated field constraint and fills
// FieldsPresent and MissingFields.
func (e *Evaluator) validate(s schema.DocumentSchema, rec entity.Record, res *entity.EvaluationResult) {
	for _, f := range s.Fields {
		v, ok := rec[f.Name]
		if !ok || strings.TrimSpace(v) == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("required field %q is missing or empty", f.Name))
			res.MissingFields = append(res.MissingFields, f.Name)
			continue
		}
		res.FieldsPresent++
	}
	for k := range rec {
		if k == schema.KeyDocumentType || k == schema.KeyExtractedAt {
			continue
		}
		if _, ok := s.Field(k); !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("unexpected field %q not in schema", k))
		}
	}
}

// completeness: fraction of required fields whose value is non-empty and not a
// recognized placeholder sentinel. 100 iff every field is present and real.
func (e *Evaluator) completeness(s schema.DocumentSchema, rec entity.Record) float64 {
	filled := 0
	for _, f := range s.Fields {
		v := strings.TrimSpace(rec[f.Name])
		if v != "" && !schema.IsPlaceholder(v) {
			filled++
		}
	}
	return ratio(filled, len(s.Fields))
}

// fieldAccuracy applies the extended placeholder set and a minimum length of
// two characters.
func (e *Evaluator) fieldAccuracy(s schema.DocumentSchema, rec entity.Record) float64 {
	accurate := 0
	for _, f := range s.Fields {
		v := strings.TrimSpace(rec[f.Name])
		if v != "" && !schema.IsPlaceholderExtended(v) && utf8.RuneCountInString(v) > 1 {
			accurate++
		}
	}
	return ratio(accurate, len(s.Fields))
}

// formatCompliance checks field-kind format rules over fields carrying real
// values. A field holding only a placeholder is excluded from both numerator
// and denominator; with nothing checkable the sub-score defaults to 100.
func (e *Evaluator) formatCompliance(s schema.DocumentSchema, rec entity.Record, res *entity.EvaluationResult) float64 {
	checkable := 0
	passing := 0
	for _, f := range s.Fields {
		v := strings.TrimSpace(rec[f.Name])
		if v == "" || schema.IsPlaceholder(v) {
			continue
		}
		checkable++
		if ok, reason := schema.MatchesKind(f.Kind, v); ok {
			passing++
		} else {
			res.QualityIssues = append(res.QualityIssues, fmt.Sprintf("%s: %s", f.Name, reason))
		}
	}
	if checkable == 0 {
		return 100
	}
	return ratio(passing, checkable)
}

// dataQuality is a 3-point rubric per required field: non-empty,
// non-placeholder, and "reasonable" content.
func (e *Evaluator) dataQuality(s schema.DocumentSchema, rec entity.Record) float64 {
	points := 0
	for _, f := range s.Fields {
		v := strings.TrimSpace(rec[f.Name])
		if v == "" {
			continue
		}
		points++
		if !schema.IsPlaceholder(v) {
			points++
		}
		if isReasonable(v) {
			points++
		}
	}
	return ratio(points, 3*len(s.Fields))
}

func isReasonable(v string) bool {
	n := utf8.RuneCountInString(v)
	if n < 2 || n > 100 {
		return false
	}
	if schema.IsPlaceholder(v) {
		return false
	}
	lower := strings.ToLower(v)
	return !strings.Contains(lower, "placeholder") && !strings.Contains(lower, "example")
}

// collectWarnings emits one human-readable warning per field that is missing,
// a placeholder, or shorter than two characters.
func (e *Evaluator) collectWarnings(s schema.DocumentSchema, rec entity.Record, res *entity.EvaluationResult) {
	for _, f := range s.Fields {
		v, ok := rec[f.Name]
		v = strings.TrimSpace(v)
		switch {
		case !ok || v == "":
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %q is missing", f.Name))
		case schema.IsPlaceholderExtended(v):
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %q contains a placeholder value", f.Name))
		case utf8.RuneCountInString(v) < 2:
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %q value is too short", f.Name))
		}
	}
}

// confidence runs the optional best-effort relevancy step. Absence or failure
// leaves res.Confidence nil, which is distinct from a measured zero.
func (e *Evaluator) confidence(ctx context.Context, rec entity.Record, sourceText, sourceQuery string, res *entity.EvaluationResult) {
	if e.scorer == nil || sourceText == "" || sourceQuery == "" {
		return
	}
	serialized, err := json.Marshal(rec)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("confidence scoring unavailable: %v", err))
		return
	}
	score, err := e.scorer.Score(ctx, sourceQuery, string(serialized))
	if err != nil {
		e.logger.Warn("evaluate.confidence.failed", "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("confidence scoring unavailable: %v", err))
		return
	}
	pct := clamp(score * 100)
	res.Confidence = &pct
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
