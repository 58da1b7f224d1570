package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"marketing-captain/internal/wizard"
)

const callbackPrefix = "mc"

func personaKeyboard(ownerID int64, styles wizard.Styles) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range wizard.Personas() {
		label := opt.Name
		if strings.EqualFold(opt.Key, styles.Persona) {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "persona", opt.Key)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func strategyKeyboard(ownerID int64, styles wizard.Styles) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range wizard.Strategies() {
		label := opt.Name
		if opt.Key == styles.StrategyKey() {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "strategy", opt.Key)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func runKeyboard(ownerID int64, step wizard.Step) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🚀 "+step.Title()+" 실행", cb(ownerID, "run", strconv.Itoa(int(step)))),
	}
	if next := step + 1; next.Valid() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡ 다음 단계", cb(ownerID, "next", strconv.Itoa(int(next)))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}

// parseCallback splits data produced by cb. ok is false for foreign or
// malformed data.
func parseCallback(data string) (ownerID int64, action string, args []string, ok bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return 0, "", nil, false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", nil, false
	}
	return ownerID, parts[2], parts[3:], true
}
