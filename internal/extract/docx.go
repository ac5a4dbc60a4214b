package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDOCX returns the document's paragraph text as a single page.
// A .docx file is a zip archive; the body lives in word/document.xml as
// WordprocessingML, with paragraphs in <w:p> and text runs in <w:t>.
func extractDOCX(path, source string) ([]Page, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}
	defer func() {
		_ = zr.Close()
	}()

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening document body in %s: %w", path, err)
			}
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: %s has no word/document.xml", ErrUnsupportedFormat, source)
	}
	defer func() {
		_ = body.Close()
	}()

	paragraphs, err := docxParagraphs(body)
	if err != nil {
		return nil, fmt.Errorf("parsing docx body of %s: %w", path, err)
	}

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if text == "" {
		return nil, nil
	}
	return []Page{{Text: text, Number: 1, Source: source}}, nil
}

// docxParagraphs streams the WordprocessingML body and collects the text of
// each non-empty paragraph.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
