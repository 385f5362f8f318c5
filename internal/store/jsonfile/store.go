// Package jsonfile persists documents in a single flat JSON database file.
// Suited to local batch runs; a single-writer mutex serializes appends so ids
// stay monotonic and the running counts stay accurate.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fieldstack/docextract/internal/entity"
	"github.com/fieldstack/docextract/internal/store"
)

type database struct {
	TotalDocuments int               `json:"total_documents"`
	CountsByType   map[string]int    `json:"counts_by_type"`
	LastID         int64             `json:"last_id"`
	Documents      []entity.Document `json:"documents"`
}

type Store struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Append(ctx context.Context, doc entity.Document) (entity.Document, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return entity.Document{}, "", err
	}

	db, err := s.load()
	if err != nil {
		return entity.Document{}, "", err
	}

	db.LastID++
	doc.ID = db.LastID
	db.Documents = append(db.Documents, doc)
	db.TotalDocuments = len(db.Documents)
	if db.CountsByType == nil {
		db.CountsByType = map[string]int{}
	}
	db.CountsByType[doc.DocumentType]++

	if err := s.save(db); err != nil {
		return entity.Document{}, "", err
	}

	s.logger.Info("store.jsonfile.append",
		"id", doc.ID,
		"document_type", doc.DocumentType,
		"path", s.path,
	)
	return doc, fmt.Sprintf("%s#%d", s.path, doc.ID), nil
}

func (s *Store) Query(ctx context.Context, f store.Filter) ([]entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.load()
	if err != nil {
		return nil, err
	}

	// Documents are stored in append order; walk backwards for newest-first.
	out := make([]entity.Document, 0, len(db.Documents))
	for i := len(db.Documents) - 1; i >= 0; i-- {
		d := db.Documents[i]
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

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return store.Stats{}, err
	}

	db, err := s.load()
	if err != nil {
		return store.Stats{}, err
	}
	counts := make(map[string]int, len(db.CountsByType))
	for k, v := range db.CountsByType {
		counts[k] = v
	}
	return store.Stats{TotalDocuments: db.TotalDocuments, CountsByType: counts}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) load() (*database, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &database{CountsByType: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read database file: %w", err)
	}
	var db database
	if err := json.Unmarshal(raw, &db); err != nil {
		return nil, fmt.Errorf("decode database file: %w", err)
	}
	return &db, nil
}

// save writes to a temp file and renames so a crash never leaves a truncated
// database behind.
func (s *Store) save(db *database) error {
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".docdb-*.json")
	if err != nil {
		return fmt.Errorf("create temp database file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close database file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace database file: %w", err)
	}
	return nil
}
