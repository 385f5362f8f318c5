// Package sqlitestore persists documents in a local SQLite database.
// AUTOINCREMENT keeps ids monotonic even after deletes; the driver serializes
// writers at the connection level.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/store"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	processed_at   TEXT NOT NULL,
	source_label   TEXT NOT NULL,
	document_type  TEXT NOT NULL,
	extracted_json TEXT NOT NULL,
	field_count    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
`

type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (and if needed creates) the database at path. Use ":memory:" for
// an ephemeral store in tests and one-shot batch runs.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path, logger: logger}, nil
}

func (s *Store) Append(ctx context.Context, doc entity.Document) (entity.Document, string, error) {
	raw, err := json.Marshal(doc.Extracted)
	if err != nil {
		return entity.Document{}, "", fmt.Errorf("encode record: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (processed_at, source_label, document_type, extracted_json, field_count)
		 VALUES (?, ?, ?, ?, ?)`,
		doc.ProcessedAt.UTC().Format(time.RFC3339Nano),
		doc.SourceLabel,
		doc.DocumentType,
		string(raw),
		doc.Metadata.ExtractedFieldCount,
	)
	if err != nil {
		return entity.Document{}, "", fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return entity.Document{}, "", fmt.Errorf("last insert id: %w", err)
	}
	doc.ID = id

	s.logger.Info("store.sqlite.append", "id", id, "document_type", doc.DocumentType)
	return doc, fmt.Sprintf("%s#documents/%d", s.path, id), nil
}

func (s *Store) Query(ctx context.Context, f store.Filter) ([]entity.Document, error) {
	query := `SELECT id, processed_at, source_label, document_type, extracted_json, field_count
	          FROM documents`
	args := []any{}
	if f.Type != "" {
		query += ` WHERE document_type = ?`
		args = append(args, f.Type)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		var (
			doc       entity.Document
			processed string
			raw       string
		)
		if err := rows.Scan(&doc.ID, &processed, &doc.SourceLabel, &doc.DocumentType, &raw, &doc.Metadata.ExtractedFieldCount); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, processed); err == nil {
			doc.ProcessedAt = t
		}
		if err := json.Unmarshal([]byte(raw), &doc.Extracted); err != nil {
			return nil, fmt.Errorf("decode record for document %d: %w", doc.ID, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	rows, err := s.db.QueryContext(ctx,
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

func (s *Store) Close() error { return s.db.Close() }
