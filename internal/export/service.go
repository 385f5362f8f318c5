package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/schema"
	"github.com/fieldstack/docextract/internal/store"
)

// Service is a tiny façade over the document store that produces XLSX bytes
// for exports.
type Service struct {
	documents store.Store
	logger    *slog.Logger
}

func NewService(documents store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{documents: documents, logger: logger}
}

// ExportXLSX returns a workbook with one sheet per document type. Columns are
// the schema's required fields in schema order, prefixed by the envelope
// columns (id, processed at, source).
func (s *Service) ExportXLSX(ctx context.Context, typeFilter string) ([]byte, error) {
	start := time.Now()

	docs, err := s.documents.Query(ctx, store.Filter{Type: typeFilter})
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	firstSheet := true
	rows := 0

	for _, docType := range constants.AllDocumentTypes() {
		if typeFilter != "" && typeFilter != string(docType) {
			continue
		}
		sc, err := schema.For(docType)
		if err != nil {
			return nil, err
		}

		sheet := sheetName(docType)
		if firstSheet {
			// excelize starts with "Sheet1"; rename it for the first type.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
			firstSheet = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}

		headers := append([]string{"ID", "Processed At", "Source"}, sc.FieldNames()...)
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}

		row := 2
		for _, d := range docs {
			if d.DocumentType != string(docType) {
				continue
			}
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, d.ID)
			write(2, d.ProcessedAt.Format("2006-01-02 15:04:05"))
			write(3, d.SourceLabel)
			for i, name := range sc.FieldNames() {
				write(4+i, d.Extracted[name])
			}
			row++
			rows++
		}

		_ = f.SetColWidth(sheet, "B", "B", 20)
		_ = f.SetColWidth(sheet, "C", "C", 32)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", rows,
		"type_filter", typeFilter,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func sheetName(t constants.DocumentType) string {
	switch t {
	case constants.Invoice:
		return "Invoices"
	case constants.Contract:
		return "Contracts"
	case constants.Receipt:
		return "Receipts"
	}
	return string(t)
}
