package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ProviderGoogle = "google"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Settings is the persisted provider document. Field names match the
// config.json written by earlier releases so existing files keep working.
type Settings struct {
	Provider     string `json:"api_provider"`
	GoogleAPIKey string `json:"api_key"`
	ClaudeAPIKey string `json:"claude_api_key"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{Provider: ProviderGoogle}
}

func Providers() []string {
	return []string{ProviderGoogle, ProviderClaude, ProviderOpenAI}
}

func (s Settings) KeyFor(provider string) string {
	switch provider {
	case ProviderGoogle:
		return s.GoogleAPIKey
	case ProviderClaude:
		return s.ClaudeAPIKey
	case ProviderOpenAI:
		return s.OpenAIAPIKey
	default:
		return ""
	}
}

// WithKey returns a copy with the credential for provider replaced.
func (s Settings) WithKey(provider, key string) (Settings, error) {
	key = strings.TrimSpace(key)
	switch provider {
	case ProviderGoogle:
		s.GoogleAPIKey = key
	case ProviderClaude:
		s.ClaudeAPIKey = key
	case ProviderOpenAI:
		s.OpenAIAPIKey = key
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return s, nil
}

// Validate is applied before saving: the selected provider must have a key.
func (s Settings) Validate() error {
	if !knownProvider(s.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
	if strings.TrimSpace(s.KeyFor(s.Provider)) == "" {
		return fmt.Errorf("api key for %s is empty", s.Provider)
	}
	return nil
}

// LoadSettings never fails hard: a missing file yields defaults and a nil
// error, a corrupt file yields defaults and the decode error for logging.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if !knownProvider(s.Provider) {
		s.Provider = ProviderGoogle
	}
	return s, nil
}

func SaveSettings(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func knownProvider(name string) bool {
	for _, p := range Providers() {
		if p == name {
			return true
		}
	}
	return false
}
