// Package providers owns the constructed provider clients for a running
// process. A Set is built from saved settings and replaced wholesale on the
// next save; nothing reads provider handles from package globals.
package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"marketing-captain/internal/config"
	"marketing-captain/internal/llm"
	"marketing-captain/internal/llm/providers/claude"
	"marketing-captain/internal/llm/providers/gemini"
	"marketing-captain/internal/llm/providers/openai"
	"marketing-captain/internal/metrics"
)

type Endpoint struct {
	BaseURL    string
	APIVersion string
	Model      string
}

type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Gemini     Endpoint
	Claude     Endpoint
	OpenAI     Endpoint
}

// Set holds one client per provider and the active selection.
type Set struct {
	active     string
	generators map[string]llm.Generator
	keys       map[string]bool
}

func NewSet(s config.Settings, opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}

	set := &Set{
		active:     s.Provider,
		generators: make(map[string]llm.Generator, 3),
		keys:       make(map[string]bool, 3),
	}

	set.generators[config.ProviderGoogle] = gemini.New(gemini.Options{
		APIKey:     s.GoogleAPIKey,
		BaseURL:    opts.Gemini.BaseURL,
		APIVersion: opts.Gemini.APIVersion,
		Model:      opts.Gemini.Model,
		HTTPClient: opts.HTTPClient,
		Logger:     logger.With("provider", gemini.Name),
	})
	set.generators[config.ProviderClaude] = claude.New(claude.Options{
		APIKey:     s.ClaudeAPIKey,
		BaseURL:    opts.Claude.BaseURL,
		Model:      opts.Claude.Model,
		HTTPClient: opts.HTTPClient,
		Logger:     logger.With("provider", claude.Name),
	})
	set.generators[config.ProviderOpenAI] = openai.New(openai.Options{
		APIKey:     s.OpenAIAPIKey,
		BaseURL:    opts.OpenAI.BaseURL,
		Model:      opts.OpenAI.Model,
		HTTPClient: opts.HTTPClient,
		Logger:     logger.With("provider", openai.Name),
	})

	for _, p := range config.Providers() {
		set.keys[p] = s.KeyFor(p) != ""
	}
	return set
}

func (s *Set) Active() string {
	return s.active
}

func (s *Set) Configured() bool {
	return s.keys[s.active]
}

func (s *Set) Generate(ctx context.Context, req llm.Request) (string, error) {
	if !s.Configured() {
		return "", llm.ErrConfigurationMissing
	}
	g, ok := s.generators[s.active]
	if !ok {
		return "", fmt.Errorf("%w: %q", config.ErrUnknownProvider, s.active)
	}

	started := time.Now()
	text, err := g.Generate(ctx, req)
	metrics.RecordProviderCall(s.active, err, started)
	return text, err
}

// Holder is the long-lived llm.Generator handed to wizard sessions. It
// forwards to the current Set, which Apply swaps atomically.
type Holder struct {
	opts     Options
	current  atomic.Pointer[Set]
	settings atomic.Pointer[config.Settings]

	// saveMu keeps the settings file and the applied set in the same order.
	saveMu sync.Mutex
}

func NewHolder(s config.Settings, opts Options) *Holder {
	h := &Holder{opts: opts}
	h.Apply(s)
	return h
}

func (h *Holder) Apply(s config.Settings) {
	h.settings.Store(&s)
	h.current.Store(NewSet(s, h.opts))
}

// Save validates and persists s, then rebuilds the clients.
func (h *Holder) Save(path string, s config.Settings) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	if err := config.SaveSettings(path, s); err != nil {
		return err
	}
	h.Apply(s)
	return nil
}

func (h *Holder) Settings() config.Settings {
	return *h.settings.Load()
}

func (h *Holder) Active() string {
	return h.current.Load().Active()
}

func (h *Holder) Configured() bool {
	return h.current.Load().Configured()
}

func (h *Holder) Generate(ctx context.Context, req llm.Request) (string, error) {
	return h.current.Load().Generate(ctx, req)
}

// OptionsFromConfig maps process configuration onto provider endpoints.
func OptionsFromConfig(cfg config.Config, httpClient *http.Client, logger *slog.Logger) Options {
	return Options{
		HTTPClient: httpClient,
		Logger:     logger,
		Gemini: Endpoint{
			BaseURL:    cfg.GeminiBaseURL,
			APIVersion: cfg.GeminiAPIVersion,
			Model:      cfg.GeminiModel,
		},
		Claude: Endpoint{BaseURL: cfg.ClaudeBaseURL, Model: cfg.ClaudeModel},
		OpenAI: Endpoint{BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel},
	}
}
