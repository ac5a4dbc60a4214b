package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"
)

// extractEmail returns the subject and plaintext body of an email message as
// a single page, keeping the page-record shape of the other loaders.
func extractEmail(path, source string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening email %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	env, err := enmime.ReadEnvelope(f)
	if err != nil {
		return nil, fmt.Errorf("parsing email %s: %w", path, err)
	}

	subject := strings.TrimSpace(env.GetHeader("Subject"))
	if subject == "" {
		subject = "No Subject"
	}

	body := strings.TrimSpace(env.Text)
	if body == "" {
		body = "No Body"
	}

	text := fmt.Sprintf("Subject: %s\n\n%s", subject, body)
	return []Page{{Text: text, Number: 1, Source: source}}, nil
}
