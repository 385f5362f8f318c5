package store

import (
	"context"

	"github.com/fieldstack/docextract/internal/entity"
)

// Filter narrows Query results.
type Filter struct {
	// Type restricts results to one document type when non-empty.
	Type string
	// Limit caps the number of results; 0 means no cap.
	Limit int
}

// Stats is the running per-type accounting kept by every backend.
type Stats struct {
	TotalDocuments int            `json:"total_documents"`
	CountsByType   map[string]int `json:"counts_by_type"`
}

// Store is the persistence collaborator the pipeline appends to. Ids are
// monotonically increasing per backend; implementations serialize concurrent
// writers themselves (the pipeline does not).
type Store interface {
	// Append persists doc, assigns its id, and returns the stored document
	// plus a human-readable storage location.
	Append(ctx context.Context, doc entity.Document) (entity.Document, string, error)

	// Query returns documents sorted newest-first.
	Query(ctx context.Context, f Filter) ([]entity.Document, error)

	Stats(ctx context.Context) (Stats, error)

	Close() error
}
