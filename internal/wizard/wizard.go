// Package wizard implements the five-step marketing copy pipeline: the field
// store, per-step prompt builders, the section-prompt extractor, the image
// prompt rewriter and the per-session step orchestrator.
package wizard

import "errors"

var (
	ErrUnknownStep     = errors.New("wizard: unknown step")
	ErrUnknownSlot     = errors.New("wizard: unknown display slot")
	ErrInvalidField    = errors.New("wizard: invalid field")
	ErrInvalidStyle    = errors.New("wizard: invalid style option")
	ErrUnknownDocument = errors.New("wizard: unknown document kind")
	ErrMissingProduct  = errors.New("wizard: Q1. 누구를 도와주고 싶나요? (상품/서비스) 항목은 필수입니다")
	ErrNothingToSave   = errors.New("wizard: 저장할 내용이 없습니다")
	ErrClosed          = errors.New("wizard: session closed")
)

// Texts written to display surfaces while work is in flight.
const (
	PendingText        = "⏳ AI 캡틴이 열심히 글을 쓰고 있습니다... (잠시만 기다려주세요)"
	PromptPendingText  = "프롬프트 생성 중..."
	EmptyPromptText    = "(empty prompt)"
	errorSurfaceFormat = "\n\n[Error]: %s"
)
