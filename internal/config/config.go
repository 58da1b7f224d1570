package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string
	WebAddr       string

	// WebAllowedOrigins is empty when any origin may call the API.
	WebAllowedOrigins []string

	// AdminUserIDs may change provider settings from the bot. WebAdminToken
	// is the bearer token for PUT /api/settings; empty keeps it read-only.
	AdminUserIDs  []int64
	WebAdminToken string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	SettingsFile string
	ExportDir    string

	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string
	ClaudeBaseURL    string
	ClaudeModel      string
	OpenAIBaseURL    string
	OpenAIModel      string

	// Keys from the environment only seed an empty settings file.
	GeminiAPIKey string
	ClaudeAPIKey string
	OpenAIAPIKey string

	BurstDebounce time.Duration
	RevealChunk   int
	RevealDelay   time.Duration
}

// Load reads process configuration from the environment. Provider
// credentials are optional here: a missing key only blocks generation.
func Load() (Config, error) {
	cfg := Config{
		WebAddr:          strings.TrimSpace(getEnv("WEB_ADDR", ":8080")),
		LogLevel:         strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:            getEnvBool("DEBUG", false),
		PreferIPv4:       getEnvBool("PREFER_IPV4", true),
		MaxConcurrent:    getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 300)) * time.Second,
		SettingsFile:     getEnv("SETTINGS_FILE", "config.json"),
		ExportDir:        getEnv("EXPORT_DIR", "exports"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", "v1beta"),
		GeminiModel:      getEnv("GEMINI_MODEL", ""),
		ClaudeBaseURL:    getEnv("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		ClaudeModel:      getEnv("CLAUDE_MODEL", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", ""),
		BurstDebounce:    time.Duration(getEnvInt("BURST_DEBOUNCE_MS", 1200)) * time.Millisecond,
		RevealChunk:      getEnvInt("REVEAL_CHUNK", 0),
		RevealDelay:      time.Duration(getEnvInt("REVEAL_DELAY_MS", 0)) * time.Millisecond,
	}

	cfg.WebAllowedOrigins = splitCSV(getEnv("WEB_ALLOWED_ORIGINS", ""))
	cfg.AdminUserIDs = getEnvInt64List("ADMIN_USER_IDS")
	cfg.WebAdminToken = strings.TrimSpace(os.Getenv("WEB_ADMIN_TOKEN"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.ClaudeAPIKey = strings.TrimSpace(os.Getenv("CLAUDE_API_KEY"))
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 300 * time.Second
	}
	if cfg.SettingsFile == "" {
		return Config{}, errors.New("SETTINGS_FILE must not be empty")
	}

	return cfg, nil
}

// RequireTelegram is used by the bot entry point only.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// SeedSettings fills credentials missing from the settings file with the
// environment values.
func (c Config) SeedSettings(s Settings) Settings {
	if s.GoogleAPIKey == "" {
		s.GoogleAPIKey = c.GeminiAPIKey
	}
	if s.ClaudeAPIKey == "" {
		s.ClaudeAPIKey = c.ClaudeAPIKey
	}
	if s.OpenAIAPIKey == "" {
		s.OpenAIAPIKey = c.OpenAIAPIKey
	}
	return s
}

func splitCSV(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvInt64List reads a comma separated list, skipping entries that are
// not integers.
func getEnvInt64List(key string) []int64 {
	var out []int64
	for _, p := range splitCSV(os.Getenv(key)) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
