package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketing-captain/internal/llm"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestGenerateSkipsThoughtParts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/"+DefaultModel+":generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"maxOutputTokens":8000`) {
			t.Errorf("body = %s", body)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"plan","thought":true},{"text":"결과"}]}}]}`)
	})

	got, err := c.Generate(context.Background(), llm.Step.WithPrompt("hi"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "결과" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	got, err := c.Generate(context.Background(), llm.Step.WithPrompt("hi"))
	if err != nil || got != llm.NoContentText {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.Generate(context.Background(), llm.Step.WithPrompt("hi"))
	var pe *llm.ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusTooManyRequests {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	c := New(Options{HTTPClient: http.DefaultClient})
	if _, err := c.Generate(context.Background(), llm.Step); !errors.Is(err, llm.ErrConfigurationMissing) {
		t.Fatalf("err = %v", err)
	}
}
