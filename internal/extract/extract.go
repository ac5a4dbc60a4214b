// Package extract converts source documents into ordered page records.
//
// Supported formats:
//   - .pdf       one record per page with extractable text
//   - .docx      whole document as a single page numbered 1
//   - .eml/.msg  email message as a single page numbered 1
//   - .txt/.md   whole file as a single page numbered 1
//
// Pages whose text is empty after trimming are skipped; they carry no
// answerable content. A document yielding zero non-empty pages is an error,
// because it almost always means a wrong URL or a corrupted file.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat indicates the file extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText indicates the document produced no extractable text.
	ErrNoText = errors.New("no extractable text")
)

// Page is one page of extracted text with its origin.
type Page struct {
	Text   string
	Number int    // 1-based page number
	Source string // origin filename
}

// Extract reads a document file and returns its non-empty pages in order.
// Formats without page structure are returned as exactly one page numbered 1.
func Extract(path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	source := filepath.Base(path)

	var pages []Page
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err = extractPDF(path, source)
	case ".docx":
		pages, err = extractDOCX(path, source)
	case ".eml", ".msg":
		pages, err = extractEmail(path, source)
	case ".txt", ".md":
		pages, err = extractPlain(path, source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, source)
	}
	return pages, nil
}

// extractPlain reads a plaintext or markdown file as a single page.
func extractPlain(path, source string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Page{{Text: text, Number: 1, Source: source}}, nil
}
