// Package postgres persists documents in PostgreSQL for multi-writer
// deployments; BIGSERIAL ids and transactional inserts give the serialization
// the flat-file backend gets from its mutex.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/store"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id             BIGSERIAL PRIMARY KEY,
	processed_at   TIMESTAMPTZ NOT NULL,
	source_label   TEXT NOT NULL,
	document_type  TEXT NOT NULL,
	extracted_json JSONB NOT NULL,
	field_count    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
`

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Append(ctx context.Context, doc entity.Document) (entity.Document, string, error) {
	raw, err := json.Marshal(doc.Extracted)
	if err != nil {
		return entity.Document{}, "", fmt.Errorf("encode record: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO documents (processed_at, source_label, document_type, extracted_json, field_count)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		doc.ProcessedAt, doc.SourceLabel, doc.DocumentType, raw, doc.Metadata.ExtractedFieldCount,
	).Scan(&doc.ID)
	if err != nil {
		return entity.Document{}, "", fmt.Errorf("insert document: %w", err)
	}

	s.logger.Info("store.postgres.append", "id", doc.ID, "document_type", doc.DocumentType)
	return doc, fmt.Sprintf("documents/%d", doc.ID), nil
}

func (s *Store) Query(ctx context.Context, f store.Filter) ([]entity.Document, error) {
	query := `SELECT id, processed_at, source_label, document_type, extracted_json, field_count
	          FROM documents`
	args := []any{}
	if f.Type != "" {
		query += ` WHERE document_type = $1`
		args = append(args, f.Type)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		var (
			doc entity.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.ProcessedAt, &doc.SourceLabel, &doc.DocumentType, &raw, &doc.Metadata.ExtractedFieldCount); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Extracted); err != nil {
			return nil, fmt.Errorf("decode record for document %d: %w", doc.ID, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_type, COUNT(*) FROM documents GROUP BY document_type`)
	if err != nil {
		return store.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := store.Stats{CountsByType: map[string]int{}}
	for rows.Next() {
		var (
			docType string
			count   int
		)
		if err := rows.Scan(&docType, &count); err != nil {
			return store.Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.CountsByType[docType] = count
		stats.TotalDocuments += count
	}
	return stats, rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
