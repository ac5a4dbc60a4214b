package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/raglet/raglet/internal/answer"
	"github.com/raglet/raglet/internal/fetch"
	"github.com/raglet/raglet/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRunner struct {
	answers   []answer.Answer
	err       error
	documents []string
	questions []string
}

func (s *stubRunner) Run(_ context.Context, documents, questions []string) ([]answer.Answer, error) {
	s.documents = documents
	s.questions = questions
	if s.err != nil {
		return nil, s.err
	}
	return s.answers, nil
}

const testToken = "test-token"

func newTestServer(runner Runner) *Server {
	return NewServer(runner, nil, Config{
		Token:     testToken,
		RateLimit: 1000,
		RateBurst: 1000,
	}, log.NewNop())
}

func runRequest(t *testing.T, handler http.Handler, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestServer(&stubRunner{}).Handler()

	for path, want := range map[string]string{"/health": "ok", "/ready": "ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, rec.Code)
		}
		if got := rec.Body.String(); got != want {
			t.Errorf("%s: body %q, want %q", path, got, want)
		}
	}
}

func TestRunRequiresBearerToken(t *testing.T) {
	runner := &stubRunner{}
	handler := newTestServer(runner).Handler()

	body := `{"documents":["http://example.com/a.pdf"],"questions":["q"]}`
	for name, token := range map[string]string{
		"missing token": "",
		"wrong token":   "not-the-token",
	} {
		rec := runRequest(t, handler, token, body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", name, rec.Code)
		}
	}
	if runner.documents != nil {
		t.Error("runner should not be called without valid auth")
	}
}

func TestRunHappyPath(t *testing.T) {
	runner := &stubRunner{answers: []answer.Answer{
		{Question: "q1", Answer: "a1", Source: "doc.pdf"},
		{Question: "q2", Answer: answer.Refusal},
	}}
	handler := newTestServer(runner).Handler()

	body := `{"documents":["http://example.com/doc.pdf"],"questions":["q1","q2"]}`
	rec := runRequest(t, handler, testToken, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(resp.Answers))
	}
	if resp.Answers[1].Answer != answer.Refusal {
		t.Errorf("refusal not passed through: %q", resp.Answers[1].Answer)
	}
	if len(runner.documents) != 1 || runner.documents[0] != "http://example.com/doc.pdf" {
		t.Errorf("unexpected documents passed to runner: %v", runner.documents)
	}
}

func TestRunRejectsBadBodies(t *testing.T) {
	handler := newTestServer(&stubRunner{}).Handler()

	tests := map[string]string{
		"malformed JSON":  `{"documents":`,
		"unknown field":   `{"documents":["d"],"questions":["q"],"extra":true}`,
		"empty documents": `{"documents":[],"questions":["q"]}`,
		"empty questions": `{"documents":["d"],"questions":[]}`,
	}
	for name, body := range tests {
		rec := runRequest(t, handler, testToken, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, rec.Code)
		}
	}
}

func TestRunDocumentUnavailable(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("ingest document x: %w", fetch.ErrUnavailable)}
	handler := newTestServer(runner).Handler()

	rec := runRequest(t, handler, testToken, `{"documents":["d"],"questions":["q"]}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status %d, want 502", rec.Code)
	}
}

func TestRunIngestFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("ingest document x: unsupported format")}
	handler := newTestServer(runner).Handler()

	rec := runRequest(t, handler, testToken, `{"documents":["d"],"questions":["q"]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", rec.Code)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil, Config{
		Token:     testToken,
		RateLimit: 0.001,
		RateBurst: 1,
	}, log.NewNop())
	handler := srv.Handler()

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status %d, want 200", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/health", nil)
	second.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}

	// A different IP has its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP: status %d, want 200", rec.Code)
	}
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	handler := newTestServer(&stubRunner{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("incoming request ID not honored, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.5:4321",
			want:       "192.168.1.5",
		},
		{
			name:       "x-real-ip ignored without trust",
			remoteAddr: "192.168.1.5:4321",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "192.168.1.5",
		},
		{
			name:       "x-real-ip honored with trust",
			remoteAddr: "192.168.1.5:4321",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "x-forwarded-for first entry",
			remoteAddr: "192.168.1.5:4321",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "invalid header falls back",
			remoteAddr: "192.168.1.5:4321",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			trustProxy: true,
			want:       "192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
