package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"marketing-captain/internal/llm"
)

const (
	Name         = "openai"
	DefaultModel = "gpt-4o-mini"
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements llm.Generator with the official openai-go SDK.
type Client struct {
	apiKey string
	model  string
	client oai.Client
	logger *slog.Logger
}

func New(opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	// The SDK retries by default; the wizard makes exactly one attempt.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		apiKey: apiKey,
		model:  model,
		client: oai.NewClient(reqOpts...),
		logger: logger,
	}
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	if c.apiKey == "" {
		return "", llm.ErrConfigurationMissing
	}

	params := oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(req.Prompt),
		},
		Temperature: oai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = oai.Int(int64(req.MaxOutputTokens))
	}

	c.logger.Debug("openai request", "model", c.model, "prompt_len", len(req.Prompt))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", llm.NewProviderError(Name, apiErr.StatusCode, err)
		}
		return "", llm.NewProviderError(Name, 0, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return llm.NoContentText, nil
	}
	return resp.Choices[0].Message.Content, nil
}
