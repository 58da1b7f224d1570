package llm

import (
	"context"
	"errors"
	"fmt"
)

// NoContentText is returned in place of an empty completion. Safety filters
// routinely produce empty candidates, so this is a result, not a failure.
const NoContentText = "(AI가 반환한 내용이 없습니다. 안전 필터나 기타 이유일 수 있습니다.)"

var ErrConfigurationMissing = errors.New("llm: no api key configured for the active provider")

type Request struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// Step and Rewrite are the two call profiles used by the wizard.
var (
	Step    = Request{MaxOutputTokens: 8000, Temperature: 0.7}
	Rewrite = Request{MaxOutputTokens: 800, Temperature: 0.6}
)

func (r Request) WithPrompt(prompt string) Request {
	r.Prompt = prompt
	return r
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ProviderError wraps a transport, auth or quota failure from a backend.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Err: err}
}

// IsProviderError reports whether err came from a remote backend call.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
