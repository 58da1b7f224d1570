package wizard

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"marketing-captain/internal/llm"
)

const rewriteInstruction = "Rewrite the following into a single English-only image prompt. " +
	"No Korean, no quotes, no markdown, no extra commentary:\n"

// Rewriter normalizes an image description into one English-only prompt.
// It never fails: errors come back as visible text.
type Rewriter struct {
	gen    llm.Generator
	logger *slog.Logger
}

func NewRewriter(gen llm.Generator, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rewriter{gen: gen, logger: logger}
}

func RewritePrompt(desc string) string {
	return rewriteInstruction + desc
}

func (r *Rewriter) Rewrite(ctx context.Context, desc string) string {
	out, err := r.gen.Generate(ctx, llm.Rewrite.WithPrompt(RewritePrompt(desc)))
	if err != nil {
		r.logger.Warn("image prompt rewrite failed", "err", err)
		return "[Error] " + err.Error()
	}
	out = strings.TrimSpace(out)
	if out == "" || out == llm.NoContentText {
		return EmptyPromptText
	}
	return out
}

// FormatImagePrompt is the text shown in an image slot.
func FormatImagePrompt(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = EmptyPromptText
	}
	return "[Image Prompt]\n" + text
}
