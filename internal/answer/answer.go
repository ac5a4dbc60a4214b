// Package answer turns retrieved chunks into a grounded answer for one
// question. The model is instructed to quote the document verbatim and to
// refuse when the chunks do not contain the answer.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raglet/raglet/internal/index"
	"github.com/raglet/raglet/internal/log"
)

// Refusal is the exact sentence returned when the retrieved context does not
// contain the answer. Callers compare against it verbatim.
const Refusal = "The information is not available in the provided document."

// FailureMarker is returned in place of an answer when generation itself
// fails, so one broken question never aborts a batch.
const FailureMarker = "ERROR: answer generation failed"

// ErrGeneration wraps model backend failures during answer synthesis.
var ErrGeneration = errors.New("answer generation failed")

const systemPrompt = `You are a document question answering assistant.
Answer using ONLY the provided context.
Reply with the exact sentence from the document that answers the question, followed by the page number in the form (page N).
If the context does not contain the answer, reply with exactly: ` + Refusal

// Answer pairs a question with its synthesized answer. Source carries the
// concatenated grounding text the answer was generated from.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"`
}

// Generator produces a completion from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Synthesizer builds grounding prompts and delegates completion to a
// Generator.
type Synthesizer struct {
	generator Generator
	logger    log.Logger
}

// NewSynthesizer creates a Synthesizer backed by the given Generator.
func NewSynthesizer(generator Generator, logger log.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, logger: logger}
}

// Synthesize answers one question from the retrieved matches. With no matches
// it returns the refusal without calling the model. A generator failure is
// reported as an ErrGeneration-wrapped error alongside an Answer carrying the
// failure marker, so callers can keep going.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, matches []index.Match) (Answer, error) {
	if len(matches) == 0 {
		return Answer{Question: question, Answer: Refusal}, nil
	}

	grounding := buildGrounding(matches)
	text, err := s.generator.Generate(ctx, systemPrompt, buildPrompt(question, grounding))
	if err != nil {
		s.logger.Error("answer generation failed",
			"question", question,
			"error", err)
		return Answer{Question: question, Answer: FailureMarker, Source: grounding},
			fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return Answer{
		Question: question,
		Answer:   strings.TrimSpace(text),
		Source:   grounding,
	}, nil
}

// buildGrounding joins match texts with their origin and page, one line per
// match, in retrieval order. The same block is sent to the model and
// returned as the Answer's source.
func buildGrounding(matches []index.Match) string {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("[%s, page %d] %s", m.Source, m.Page, m.Text)
	}
	return strings.Join(lines, "\n")
}

func buildPrompt(question, grounding string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(grounding)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
