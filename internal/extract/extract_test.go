package extract

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "absent.pdf"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Extract() = %v, want fs.ErrNotExist", err)
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.xlsx", "not really a spreadsheet")

	_, err := Extract(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Extract() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtract_PlainText_SinglePage(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "  The policy covers water damage.  \n")

	pages, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("page number = %d, want 1", pages[0].Number)
	}
	if pages[0].Source != "notes.txt" {
		t.Errorf("source = %q, want notes.txt", pages[0].Source)
	}
	if pages[0].Text != "The policy covers water damage." {
		t.Errorf("text not trimmed: %q", pages[0].Text)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "blank.txt", "   \n\t  ")

	_, err := Extract(path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Extract() on whitespace-only file = %v, want ErrNoText", err)
	}
}

func TestExtract_Email(t *testing.T) {
	raw := "From: broker@example.com\r\n" +
		"To: claims@example.com\r\n" +
		"Subject: Coverage question\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Does the policy cover hail damage?\r\n"
	path := writeFile(t, t.TempDir(), "question.eml", raw)

	pages, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}

	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("email must extract as one page numbered 1, got %+v", pages)
	}
	if !strings.HasPrefix(pages[0].Text, "Subject: Coverage question\n\n") {
		t.Errorf("missing subject header line: %q", pages[0].Text)
	}
	if !strings.Contains(pages[0].Text, "hail damage") {
		t.Errorf("missing body text: %q", pages[0].Text)
	}
}

func TestExtract_Email_MissingSubjectAndBody(t *testing.T) {
	raw := "From: someone@example.com\r\n\r\n"
	path := writeFile(t, t.TempDir(), "empty.eml", raw)

	pages, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}
	if pages[0].Text != "Subject: No Subject\n\nNo Body" {
		t.Errorf("placeholder text = %q", pages[0].Text)
	}
}

// writeDocx builds a minimal WordprocessingML archive.
func writeDocx(t *testing.T, dir, name string, paragraphs []string) string {
	t.Helper()

	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>`)
		doc.WriteString(p)
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating docx fixture: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("closing docx fixture: %v", err)
		}
	}()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write([]byte(doc.String())); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return path
}

func TestExtract_DOCX(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "policy.docx", []string{
		"Section 1: Definitions.",
		"Section 2: Exclusions.",
	})

	pages, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract() = %v", err)
	}

	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("docx must extract as one page numbered 1, got %+v", pages)
	}
	want := "Section 1: Definitions.\nSection 2: Exclusions."
	if pages[0].Text != want {
		t.Errorf("text = %q, want %q", pages[0].Text, want)
	}
}

func TestExtract_DOCX_Empty(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "empty.docx", nil)

	_, err := Extract(path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Extract() on empty docx = %v, want ErrNoText", err)
	}
}
