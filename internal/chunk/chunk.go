// Package chunk splits page text into overlapping fixed-size chunks with
// stable, deterministic identifiers.
//
// Chunk IDs have the form "{source}_p{page}_c{position}" and depend only on
// the input, so re-ingesting the same document overwrites rather than
// duplicates earlier index entries.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raglet/raglet/internal/extract"
)

// ErrInvalidChunking indicates an inconsistent size/overlap configuration.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// Chunk is a bounded span of document text, the unit of retrieval.
type Chunk struct {
	ID     string `json:"chunk_id"`
	Text   string `json:"text"`
	Page   int    `json:"page_number"`
	Source string `json:"source"`
}

// boundaries tried within the tail window, in preference order.
// Paragraph breaks beat sentence enders.
var boundaries = []string{"\n\n", ". ", "! ", "? ", "\n"}

// Split chunks the given pages. Each page is chunked independently: text is
// packed greedily into windows of at most maxSize characters, and each
// following window begins overlap characters before the previous window's
// end, so adjacent chunks share an overlap-sized span. Sizes count runes,
// not bytes, so multi-byte text is never cut inside a character.
//
// When a paragraph or sentence boundary falls inside the tail window (the
// last overlap characters of a window), the cut moves back to it; otherwise
// the cut is at the character limit. A single whitespace-free token longer
// than maxSize is passed through as one oversized chunk rather than split
// mid-token.
//
// Output order is page order, then position within page, which makes the
// assigned IDs reproducible across runs.
func Split(pages []extract.Page, maxSize, overlap int) ([]Chunk, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidChunking, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, max size), got overlap=%d size=%d",
			ErrInvalidChunking, overlap, maxSize)
	}

	var chunks []Chunk
	for _, page := range pages {
		for pos, text := range splitText(page.Text, maxSize, overlap) {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s_p%d_c%d", page.Source, page.Number, pos),
				Text:   text,
				Page:   page.Number,
				Source: page.Source,
			})
		}
	}
	return chunks, nil
}

// splitText produces the overlapping windows for a single page. All offsets
// are rune positions, never byte positions, so multi-byte text is never cut
// mid-rune.
func splitText(text string, maxSize, overlap int) []string {
	runes := []rune(text)
	var out []string

	start := 0
	for start < len(runes) {
		if len(runes)-start <= maxSize {
			out = append(out, string(runes[start:]))
			break
		}

		cut := start + maxSize

		if tok := tokenEnd(runes, start, cut); tok > cut {
			// Oversized indivisible token: emit it whole.
			cut = tok
		} else if b := boundaryCut(runes, cut-overlap, cut); b > start {
			cut = b
		}

		out = append(out, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			// Overlap would revisit the same window forever.
			next = cut
		}
		start = next
	}

	return out
}

// tokenEnd reports where the whitespace-free token covering [start, limit)
// ends, or limit when the window contains any whitespace. Used to detect
// tokens too large to split.
func tokenEnd(runes []rune, start, limit int) int {
	for _, r := range runes[start:limit] {
		if unicode.IsSpace(r) {
			return limit
		}
	}
	end := limit
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return end
}

// boundaryCut returns the rightmost preferred boundary inside [lo, hi) as a
// rune position, placing the cut just after the boundary marker. Returns -1
// when the window holds no boundary. Boundary kinds are tried in preference
// order, so a paragraph break wins even when a sentence ender sits further
// right.
func boundaryCut(runes []rune, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	window := string(runes[lo:hi])
	for _, b := range boundaries {
		if idx := strings.LastIndex(window, b); idx >= 0 {
			// idx is a byte offset inside window; the markers themselves
			// are ASCII, so their byte and rune lengths agree.
			return lo + utf8.RuneCountInString(window[:idx]) + len(b)
		}
	}
	return -1
}
