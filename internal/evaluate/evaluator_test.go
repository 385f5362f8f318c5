package evaluate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/fieldstack/docextract/internal/entity"
)

type fakeScorer struct {
	score float64
	err   error
	calls int
}

func (f *fakeScorer) Score(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.score, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validReceipt() entity.Record {
	return entity.Record{
		"date":          "2025-08-01",
		"customerEmail": "jane@example.com",
		"amount":        "$10.00",
		"description":   "Coffee and pastry",
		"documentType":  "receipt",
		"extractedAt":   "2025-08-01T12:00:00Z",
	}
}

func validInvoice() entity.Record {
	return entity.Record{
		"client":        "Acme Corp",
		"invoiceNumber": "INV-42",
		"totalAmount":   "$500.00",
		"currency":      "USD",
		"dueDate":       "2025-09-01",
		"documentType":  "invoice",
		"extractedAt":   "2025-08-01T12:00:00Z",
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestEvaluateValidRecord(t *testing.T) {
	e := New(nil, testLogger())

	res := e.Evaluate(context.Background(), validReceipt(), "", "")
	if !res.IsValid {
		t.Fatalf("isValid = false, errors: %v", res.Errors)
	}
	if !approx(res.Completeness, 100) || !approx(res.FieldAccuracy, 100) ||
		!approx(res.FormatCompliance, 100) || !approx(res.DataQuality, 100) {
		t.Errorf("sub-scores = %v/%v/%v/%v, want all 100",
			res.Completeness, res.FieldAccuracy, res.FormatCompliance, res.DataQuality)
	}
	if !approx(res.Score, 100) {
		t.Errorf("score = %v, want 100", res.Score)
	}
	if res.Confidence != nil {
		t.Error("confidence should not be measured without a scorer")
	}
	if res.FieldsPresent != 4 {
		t.Errorf("fieldsPresent = %d, want 4", res.FieldsPresent)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := New(nil, testLogger())
	rec := validInvoice()

	first := e.Evaluate(context.Background(), rec, "", "")
	second := e.Evaluate(context.Background(), rec, "", "")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation differs:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateNilRecord(t *testing.T) {
	e := New(nil, testLogger())

	res := e.Evaluate(context.Background(), nil, "", "")
	if res.IsValid {
		t.Error("nil record must not be valid")
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0", res.Score)
	}
	if len(res.Errors) == 0 {
		t.Error("expected a structural error")
	}
}

func TestEvaluateUnsupportedType(t *testing.T) {
	e := New(nil, testLogger())
	rec := entity.Record{"documentType": "memo", "extractedAt": "2025-08-01T12:00:00Z"}

	res := e.Evaluate(context.Background(), rec, "", "")
	if res.IsValid {
		t.Error("unsupported type must not be valid")
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0", res.Score)
	}
}

func TestEvaluateBadEmailFormat(t *testing.T) {
	rec := validReceipt()
	rec["customerEmail"] = "not-an-email"
	e := New(nil, testLogger())

	res := e.Evaluate(context.Background(), rec, "", "")
	if !res.IsValid {
		t.Fatalf("format problems are quality issues, not errors; got errors %v", res.Errors)
	}
	if !approx(res.FormatCompliance, 75) {
		t.Errorf("formatCompliance = %v, want 75", res.FormatCompliance)
	}
	if len(res.QualityIssues) != 1 || !strings.Contains(res.QualityIssues[0], "customerEmail") {
		t.Errorf("qualityIssues = %v, want exactly one naming customerEmail", res.QualityIssues)
	}
	if !approx(res.Score, 95) {
		t.Errorf("score = %v, want 95", res.Score)
	}
}

func TestEvaluateMissingField(t *testing.T) {
	rec := validInvoice()
	delete(rec, "dueDate")
	e := New(nil, testLogger())

	res := e.Evaluate(context.Background(), rec, "", "")
	if res.IsValid {
		t.Error("missing required field must invalidate the record")
	}
	if !reflect.DeepEqual(res.MissingFields, []string{"dueDate"}) {
		t.Errorf("missingFields = %v, want [dueDate]", res.MissingFields)
	}
	if res.FieldsPresent != 4 {
		t.Errorf("fieldsPresent = %d, want 4", res.FieldsPresent)
	}
	if !approx(res.Completeness, 80) {
		t.Errorf("completeness = %v, want 80", res.Completeness)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "dueDate") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming dueDate", res.Warnings)
	}
}

func TestEvaluateAllPlaceholders(t *testing.T) {
	rec := entity.Record{
		"date":          "Not found",
		"customerEmail": "Not found",
		"amount":        "Not found",
		"description":   "Not found",
		"documentType":  "receipt",
		"extractedAt":   "2025-08-01T12:00:00Z",
	}
	e := New(nil, testLogger())

	res := e.Evaluate(context.Background(), rec, "", "")
	if !approx(res.Completeness, 0) {
		t.Errorf("completeness = %v, want 0", res.Completeness)
	}
	if !approx(res.FieldAccuracy, 0) {
		t.Errorf("fieldAccuracy = %v, want 0", res.FieldAccuracy)
	}
	// No field carries a checkable value, so format compliance defaults to 100.
	if !approx(res.FormatCompliance, 100) {
		t.Errorf("formatCompliance = %v, want 100", res.FormatCompliance)
	}
	if len(res.Warnings) != 4 {
		t.Errorf("warnings = %v, want one per placeholder field", res.Warnings)
	}
	if !res.IsValid {
		t.Errorf("placeholders satisfy presence; errors = %v", res.Errors)
	}
}

func TestEvaluateMonotonicity(t *testing.T) {
	weaker := validInvoice()
	weaker["dueDate"] = "Unknown"
	e := New(nil, testLogger())

	low := e.Evaluate(context.Background(), weaker, "", "")
	high := e.Evaluate(context.Background(), validInvoice(), "", "")
	if low.Score >= high.Score {
		t.Errorf("replacing a placeholder with a real value must raise the score: %v >= %v", low.Score, high.Score)
	}
}

func TestEvaluateScoreBounds(t *testing.T) {
	records := []entity.Record{
		validReceipt(),
		validInvoice(),
		{"documentType": "invoice", "extractedAt": "2025-08-01T12:00:00Z"},
		nil,
	}
	e := New(nil, testLogger())
	for _, rec := range records {
		res := e.Evaluate(context.Background(), rec, "", "")
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("score %v out of [0,100] for %v", res.Score, rec)
		}
	}
}

func TestEvaluateConfidenceBlend(t *testing.T) {
	scorer := &fakeScorer{score: 0.5}
	e := New(scorer, testLogger())

	res := e.Evaluate(context.Background(), validReceipt(), "receipt text", "extract receipt fields")
	if scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1", scorer.calls)
	}
	if res.Confidence == nil {
		t.Fatal("confidence not measured")
	}
	if !approx(*res.Confidence, 50) {
		t.Errorf("confidence = %v, want 50", *res.Confidence)
	}
	// Heuristics scale to 90% and the measured confidence contributes 10%.
	if !approx(res.Score, 95) {
		t.Errorf("score = %v, want 95", res.Score)
	}
}

func TestEvaluateConfidenceFailureIsWarning(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("model unavailable")}
	e := New(scorer, testLogger())

	res := e.Evaluate(context.Background(), validReceipt(), "receipt text", "extract receipt fields")
	if res.Confidence != nil {
		t.Error("failed scoring must leave confidence unmeasured")
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "confidence scoring unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a confidence warning", res.Warnings)
	}
}

func TestEvaluateConfidenceSkippedWithoutQuery(t *testing.T) {
	scorer := &fakeScorer{score: 0.9}
	e := New(scorer, testLogger())

	res := e.Evaluate(context.Background(), validReceipt(), "receipt text", "")
	if scorer.calls != 0 {
		t.Errorf("scorer calls = %d, want 0", scorer.calls)
	}
	if res.Confidence != nil {
		t.Error("confidence should be skipped without a query")
	}
}
