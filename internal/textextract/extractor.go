// Package textextract produces a flat text dump from source documents.
// PDF parsing uses github.com/ledongthuc/pdf; no OCR or layout-aware parsing.
package textextract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/common"
)

// FromFile extracts text from a local file, dispatching on extension.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(data, constants.NormalizeExt(filepath.Ext(path)))
}

// FromBytes extracts text from an in-memory payload. Fails with ErrNoTextFound
// when extraction yields nothing usable.
func FromBytes(data []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case "pdf":
		text, err = fromPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
	default:
		// Treat everything else as plain text.
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", common.ErrNoTextFound
	}
	return text, nil
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
