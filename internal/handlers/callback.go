package handlers

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"marketing-captain/internal/wizard"
)

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}

	ownerID, action, args, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "이 메뉴는 다른 사용자의 것입니다.", true)
		return nil
	}

	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	wz := h.wizardFor(chatID, ownerID)

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch action {
	case "persona":
		styles, err := wz.UpdateStyles(func(s *wizard.Styles) { s.Persona = arg })
		if err != nil {
			_ = h.tg.AnswerCallback(q.ID, "알 수 없는 선택입니다.", true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "✅ "+styles.PersonaName(), false)
		kb := personaKeyboard(ownerID, styles)
		return h.tg.EditText(chatID, msgID, q.Message.Text, &kb)

	case "strategy":
		styles, err := wz.UpdateStyles(func(s *wizard.Styles) { s.Strategy = arg })
		if err != nil {
			_ = h.tg.AnswerCallback(q.ID, "알 수 없는 선택입니다.", true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "✅ "+styles.StrategyKey(), false)
		kb := strategyKeyboard(ownerID, styles)
		return h.tg.EditText(chatID, msgID, q.Message.Text, &kb)

	case "run", "next":
		n, err := strconv.Atoi(arg)
		step := wizard.Step(n)
		if err != nil || !step.Valid() {
			_ = h.tg.AnswerCallback(q.ID, "알 수 없는 단계입니다.", true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, step.Title(), false)
		if action == "next" {
			return h.startStep(chatID, ownerID, step)
		}
		return h.runStep(chatID, ownerID, step)

	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return nil
	}
}
