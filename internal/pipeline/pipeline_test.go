package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldstack/docextract/internal/classify"
	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/evaluate"
	"github.com/fieldstack/docextract/internal/extract"
	"github.com/fieldstack/docextract/internal/llm"
	"github.com/fieldstack/docextract/internal/store"
)

// routerClient answers classification and extraction prompts based on markers
// in the document text carried inside the prompt.
type routerClient struct{}

func (routerClient) Complete(_ context.Context, prompt string, _ llm.CompletionOptions) (string, error) {
	if strings.HasPrefix(prompt, "Classify this document") {
		if strings.Contains(prompt, "Bill To") {
			return "invoice", nil
		}
		return "unclear", nil
	}
	if strings.Contains(prompt, "Bill To") {
		return `{
			"client": "Acme Corp",
			"invoiceNumber": "INV-42",
			"totalAmount": "$500.00",
			"currency": "USD",
			"dueDate": "2025-09-01"
		}`, nil
	}
	return "nothing extractable", nil
}

// memStore keeps documents in memory and counts appends.
type memStore struct {
	docs []entity.Document
}

func (m *memStore) Append(_ context.Context, doc entity.Document) (entity.Document, string, error) {
	doc.ID = int64(len(m.docs) + 1)
	m.docs = append(m.docs, doc)
	return doc, fmt.Sprintf("mem#%d", doc.ID), nil
}

func (m *memStore) Query(_ context.Context, f store.Filter) ([]entity.Document, error) {
	out := make([]entity.Document, 0, len(m.docs))
	for i := len(m.docs) - 1; i >= 0; i-- {
		d := m.docs[i]
		if f.Type != "" && d.DocumentType != f.Type {
			continue
		}
		out = append(out, d)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context) (store.Stats, error) {
	counts := map[string]int{}
	for _, d := range m.docs {
		counts[d.DocumentType]++
	}
	return store.Stats{TotalDocuments: len(m.docs), CountsByType: counts}, nil
}

func (m *memStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(docs store.Store) *Pipeline {
	logger := testLogger()
	client := routerClient{}
	return New(
		logger,
		classify.New(client, logger),
		extract.New(client, logger),
		evaluate.New(nil, logger),
		docs,
		nil,
	)
}

const goodText = "INVOICE #A-17\nBill To: Acme Corp\nTotal: $500.00 due 2025-09-01\n"

// badText carries no classification keywords, so the run fails before
// extraction.
const badText = "zzz nothing recognizable here\n"

func TestRunSuccess(t *testing.T) {
	docs := &memStore{}
	p := newTestPipeline(docs)

	res, err := p.Run(context.Background(), goodText, "test.txt", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Document.ID != 1 {
		t.Errorf("document id = %d, want 1", res.Document.ID)
	}
	if res.Document.DocumentType != "invoice" {
		t.Errorf("document type = %q, want invoice", res.Document.DocumentType)
	}
	if res.Classification.Confidence != 0.8 {
		t.Errorf("classification confidence = %v, want 0.8", res.Classification.Confidence)
	}
	if res.Document.Metadata.ExtractedFieldCount != 5 {
		t.Errorf("extracted field count = %d, want 5", res.Document.Metadata.ExtractedFieldCount)
	}
	if res.Evaluation != nil {
		t.Error("evaluation should be nil unless requested")
	}
	if res.Location == "" {
		t.Error("storage location missing")
	}
	if len(docs.docs) != 1 {
		t.Errorf("persisted %d documents, want 1", len(docs.docs))
	}
}

func TestRunEvaluates(t *testing.T) {
	docs := &memStore{}
	p := newTestPipeline(docs)

	res, err := p.Run(context.Background(), goodText, "test.txt", Options{Evaluate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Evaluation == nil {
		t.Fatal("expected an evaluation result")
	}
	if !res.Evaluation.IsValid {
		t.Errorf("evaluation invalid: %v", res.Evaluation.Errors)
	}
	if res.Evaluation.Score <= 0 {
		t.Errorf("score = %v, want > 0", res.Evaluation.Score)
	}
}

func TestRunFailureDoesNotPersist(t *testing.T) {
	docs := &memStore{}
	p := newTestPipeline(docs)

	_, err := p.Run(context.Background(), badText, "test.txt", Options{})
	if !errors.Is(err, common.ErrClassificationFailed) {
		t.Fatalf("expected ErrClassificationFailed, got %v", err)
	}
	if len(docs.docs) != 0 {
		t.Errorf("persisted %d documents on failure, want 0", len(docs.docs))
	}
}

func TestRunDirectoryAccounting(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":       goodText,
		"b.txt":       goodText,
		"c.txt":       goodText,
		"broken1.txt": badText,
		"broken2.txt": badText,
		"notes.md":    goodText, // extension not allowed
		".hidden.txt": goodText, // hidden files are skipped
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	docs := &memStore{}
	p := newTestPipeline(docs)

	results, stats, err := p.RunDirectory(context.Background(), dir, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 5 {
		t.Errorf("total = %d, want 5", stats.Total)
	}
	if stats.Success != 3 {
		t.Errorf("success = %d, want 3", stats.Success)
	}
	if stats.Errors != 2 {
		t.Errorf("errors = %d, want 2", stats.Errors)
	}
	if stats.Success+stats.Errors != stats.Total {
		t.Errorf("accounting mismatch: %d + %d != %d", stats.Success, stats.Errors, stats.Total)
	}
	if len(results) != 5 {
		t.Errorf("results = %d, want 5", len(results))
	}
	if len(docs.docs) != 3 {
		t.Errorf("persisted %d documents, want 3", len(docs.docs))
	}
	for _, r := range results {
		if r.Err == "" && r.DocumentID == 0 {
			t.Errorf("successful result %q has no document id", r.Path)
		}
	}
}

func TestRunDirectoryEmptyRoot(t *testing.T) {
	p := newTestPipeline(&memStore{})
	if _, _, err := p.RunDirectory(context.Background(), "  ", nil, Options{}); err == nil {
		t.Fatal("expected an error for a blank root")
	}
}
