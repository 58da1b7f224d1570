package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"marketing-captain/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{APIKey: "k", BaseURL: srv.URL + "/v1", HTTPClient: srv.Client()})
	return c, &calls
}

func completion(content string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` +
		jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGenerateSendsPrompt(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != DefaultModel || len(body.Messages) != 1 || body.Messages[0].Content != "p" {
			t.Errorf("body = %+v", body)
		}
		_, _ = io.WriteString(w, completion("결과 본문"))
	})

	got, err := c.Generate(context.Background(), llm.Rewrite.WithPrompt("p"))
	if err != nil || got != "결과 본문" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}

	if _, err := c.Generate(context.Background(), llm.Rewrite.WithPrompt("p")); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls after reuse = %d", calls.Load())
	}
}

func TestGenerateNoContent(t *testing.T) {
	cases := map[string]string{
		"no choices": `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`,
		"blank":      completion("  \n"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			got, err := c.Generate(context.Background(), llm.Rewrite.WithPrompt("p"))
			if err != nil || got != llm.NoContentText {
				t.Fatalf("got %q, %v", got, err)
			}
		})
	}
}

func TestGenerateServerErrorSingleAttempt(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	_, err := c.Generate(context.Background(), llm.Rewrite.WithPrompt("p"))

	var pe *llm.ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusInternalServerError || pe.Provider != Name {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("request retried: calls = %d", calls.Load())
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	c := New(Options{})
	_, err := c.Generate(context.Background(), llm.Rewrite.WithPrompt("p"))
	if !errors.Is(err, llm.ErrConfigurationMissing) {
		t.Fatalf("err = %v", err)
	}
}
