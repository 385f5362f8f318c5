package llm

import "context"

// CompletionOptions bound a single model call.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// CompletionClient is the model-completion boundary the pipeline depends on.
// Implementations own timeouts, backoff, and rate limiting; callers treat every
// call as blocking, potentially slow, and fallible.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// RelevancyScorer rates how well a piece of text answers a query, in [0,1].
// Used only for the evaluator's optional confidence signal.
type RelevancyScorer interface {
	Score(ctx context.Context, query, text string) (float64, error)
}
