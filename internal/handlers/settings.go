package handlers

import (
	"errors"
	"fmt"
	"strings"

	"marketing-captain/internal/config"
)

// settingsCommand handles "/settings", "/settings <provider>" and
// "/settings <provider> <key>". The settings are shared by every chat, so only
// admins may change them. A message carrying a key is deleted once it has
// been read, whoever sent it.
func (h *Handler) settingsCommand(chatID, userID int64, messageID int, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return h.tg.SendText(chatID, settingsText(h.providers.Settings()))
	}
	if !h.isAdmin(userID) {
		if len(fields) > 1 {
			_ = h.tg.DeleteMessage(chatID, messageID)
		}
		h.logger.Warn("settings change refused", "user_id", userID)
		return h.tg.SendText(chatID, "⛔ API 설정은 관리자만 변경할 수 있습니다.")
	}

	provider := strings.ToLower(fields[0])
	next := h.providers.Settings()
	next.Provider = provider

	if len(fields) > 1 {
		_ = h.tg.DeleteMessage(chatID, messageID)

		var err error
		next, err = next.WithKey(provider, strings.Join(fields[1:], " "))
		if err != nil {
			return h.tg.SendText(chatID, "❌ 제공자는 google, claude, openai 중 하나입니다.")
		}
	}

	if err := h.providers.Save(h.settingsFile, next); err != nil {
		if errors.Is(err, config.ErrUnknownProvider) {
			return h.tg.SendText(chatID, "❌ 제공자는 google, claude, openai 중 하나입니다.")
		}
		h.logger.Warn("settings save rejected", "provider", provider, "err", err)
		return h.tg.SendText(chatID, fmt.Sprintf("❌ 저장 실패: %s 키를 먼저 입력해주세요. 예: /settings %s <API 키>", provider, provider))
	}

	h.logger.Info("settings saved", "provider", provider)
	return h.tg.SendText(chatID, "✅ 저장 완료: "+providerLabel(provider)+" 을(를) 사용합니다.")
}

func (h *Handler) isAdmin(userID int64) bool {
	_, ok := h.admins[userID]
	return ok
}

func settingsText(s config.Settings) string {
	var b strings.Builder
	b.WriteString("⚙️ API 설정\n\n")
	for _, p := range config.Providers() {
		mark := "  "
		if p == s.Provider {
			mark = "▶ "
		}
		key := "없음"
		if s.KeyFor(p) != "" {
			key = maskKey(s.KeyFor(p))
		}
		fmt.Fprintf(&b, "%s%s: %s\n", mark, providerLabel(p), key)
	}
	b.WriteString("\n변경: /settings <google|claude|openai> [API 키]")
	return b.String()
}

func providerLabel(p string) string {
	switch p {
	case config.ProviderGoogle:
		return "Google Gemini"
	case config.ProviderClaude:
		return "Anthropic Claude"
	case config.ProviderOpenAI:
		return "OpenAI"
	default:
		return p
	}
}

func maskKey(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}
