package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/llm"
)

// Result is the classifier output: a category plus a confidence value in [0,1].
// Not persisted independently; folded into the extraction request.
type Result struct {
	Type       constants.DocumentType `json:"document_type"`
	Confidence float64                `json:"confidence"`
}

const (
	// excerptLimit bounds the model prompt; the keyword fallback still scans
	// the full document text.
	excerptLimit = 2000

	modelConfidence   = 0.8
	keywordConfidence = 0.6
)

// keywordSets are checked in order; the first matching set wins.
var keywordSets = []struct {
	docType  constants.DocumentType
	keywords []string
}{
	{constants.Invoice, []string{"invoice", "bill to", "amount due"}},
	{constants.Contract, []string{"agreement", "contract", "terms"}},
	{constants.Receipt, []string{"receipt", "stripe", "payment"}},
}

// Classifier assigns one of the three document categories to raw text.
// Model-first with a keyword fallback: the model call may return conversational
// filler or an out-of-vocabulary token, and the fallback keeps the pipeline
// degrading gracefully instead of stalling on every ambiguous response.
type Classifier struct {
	client llm.CompletionClient
	logger *slog.Logger
}

func New(client llm.CompletionClient, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify maps document text to a category. Fails with ErrClassificationFailed
// when neither the model response nor the keyword fallback can assign one.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	start := time.Now()

	excerpt := text
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}

	prompt := "Classify this document as exactly one of: invoice, contract, receipt.\n" +
		"Respond with only the single word.\n\nDocument:\n" + excerpt

	reply, modelErr := c.client.Complete(ctx, prompt, llm.CompletionOptions{
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if modelErr == nil {
		normalized := strings.ToLower(strings.TrimSpace(reply))
		for _, t := range constants.AllDocumentTypes() {
			if strings.Contains(normalized, string(t)) {
				c.logger.Info("classify.model.ok",
					"document_type", string(t),
					"confidence", modelConfidence,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return Result{Type: t, Confidence: modelConfidence}, nil
			}
		}
		c.logger.Warn("classify.model.ambiguous", "reply", normalized)
	} else {
		c.logger.Warn("classify.model.error", "error", modelErr)
	}

	// Keyword fallback over the full text, not just the excerpt.
	lower := strings.ToLower(text)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				c.logger.Info("classify.fallback.ok",
					"document_type", string(set.docType),
					"keyword", kw,
					"confidence", keywordConfidence,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return Result{Type: set.docType, Confidence: keywordConfidence}, nil
			}
		}
	}

	if modelErr != nil {
		return Result{}, fmt.Errorf("%w: model error and no keyword match: %v", common.ErrClassificationFailed, modelErr)
	}
	return Result{}, fmt.Errorf("%w: ambiguous model reply and no keyword match", common.ErrClassificationFailed)
}
