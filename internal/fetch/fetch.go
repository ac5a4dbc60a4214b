// Package fetch downloads remote documents to local temporary files so the
// extractors can work on paths.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/raglet/raglet/internal/log"
)

// ErrUnavailable indicates the document could not be downloaded.
var ErrUnavailable = errors.New("document unavailable")

// Fetcher downloads documents over HTTP with a bounded timeout.
type Fetcher struct {
	client *http.Client
	logger log.Logger
}

// New creates a Fetcher whose requests time out after the given duration.
func New(timeout time.Duration, logger log.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Download fetches rawURL into a temporary file and returns its path. The
// file keeps the URL's extension so format dispatch still works. The caller
// removes the file when done.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrUnavailable, rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "raglet-*"+extensionOf(rawURL))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("%w: downloading %s: %w", ErrUnavailable, rawURL, err)
	}
	if closeErr != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}

	f.logger.Debug("document downloaded",
		"url", rawURL,
		"path", tmp.Name(),
		"bytes", written)
	return tmp.Name(), nil
}

// extensionOf returns the extension of the URL path, ignoring the query
// string.
func extensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return path.Ext(rawURL)
	}
	return path.Ext(u.Path)
}
