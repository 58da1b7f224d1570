package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"marketing-captain/internal/burst"
	"marketing-captain/internal/llm"
	"marketing-captain/internal/llm/providers"
	"marketing-captain/internal/session"
	"marketing-captain/internal/telegram"
	"marketing-captain/internal/wizard"
)

// Messenger is the part of the Telegram client the handler uses.
type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb *telegram.Keyboard) (int, error)
	EditText(chatID int64, messageID int, text string, kb *telegram.Keyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	DeleteMessage(chatID int64, messageID int) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type Options struct {
	Telegram     Messenger
	Sessions     *session.Store
	Providers    *providers.Holder
	SettingsFile string
	Logger       *slog.Logger

	// Admins are the Telegram user IDs allowed to change provider settings.
	Admins []int64
	// Context bounds the surface watchers, which outlive single updates.
	Context context.Context
	// EditInterval is the minimum gap between edits of one chat's surfaces.
	EditInterval time.Duration
}

type Handler struct {
	tg           Messenger
	sessions     *session.Store
	providers    *providers.Holder
	settingsFile string
	admins       map[int64]struct{}
	logger       *slog.Logger
	baseCtx      context.Context
	editInterval time.Duration

	conv       *conversations
	aggregator *burst.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.EditInterval
	if interval <= 0 {
		interval = time.Second
	}
	admins := make(map[int64]struct{}, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = struct{}{}
	}

	h := &Handler{
		tg:           opts.Telegram,
		sessions:     opts.Sessions,
		providers:    opts.Providers,
		settingsFile: opts.SettingsFile,
		admins:       admins,
		logger:       logger,
		baseCtx:      ctx,
		editInterval: interval,
		conv:         newConversations(),
	}
	if h.sessions != nil {
		h.sessions.OnEvict(h.conv.Delete)
	}
	return h
}

func (h *Handler) SetBurstAggregator(ag *burst.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		if h.aggregator != nil {
			if pending, ok := h.aggregator.Take(chatID, userID); ok {
				if err := h.handleText(ctx, chatID, userID, pending.Text()); err != nil {
					h.logger.Error("pending answer failed", "err", err)
				}
			}
		}
		return h.handleCommand(ctx, chatID, userID, msg)
	}

	if msg.Document != nil {
		return h.handleDocument(ctx, chatID, userID, msg)
	}

	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	if h.aggregator != nil {
		h.aggregator.Add(burst.Item{
			ChatID:   chatID,
			UserID:   userID,
			Username: msg.From.UserName,
			Text:     msg.Text,
		})
		return nil
	}
	return h.handleText(ctx, chatID, userID, msg.Text)
}

// HandleBurst receives joined text from the burst aggregator.
func (h *Handler) HandleBurst(ctx context.Context, m burst.Message) {
	if err := h.handleText(ctx, m.ChatID, m.UserID, m.Text()); err != nil {
		h.logger.Error("burst handling failed", "err", err)
	}
}

func (h *Handler) wizardFor(chatID, userID int64) *wizard.Session {
	return h.sessions.GetOrCreate(session.ChatKey(chatID, userID)).Wizard
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, msg *tgbotapi.Message) error {
	key := session.ChatKey(chatID, userID)
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd := msg.Command(); cmd {
	case "start":
		return h.tg.SendText(chatID, introText)
	case "help":
		return h.tg.SendText(chatID, helpText)
	case "step1", "step2", "step3", "step4", "step5":
		step, _ := wizard.ParseStep(cmd)
		return h.startStep(chatID, userID, step)
	case "skip":
		return h.answer(chatID, userID, "")
	case "run":
		conv := h.conv.Get(key)
		step := conv.Step
		if args != "" {
			parsed, err := wizard.ParseStep(args)
			if err != nil {
				return h.tg.SendText(chatID, "❌ 단계는 1~5 중 하나입니다. 예: /run 3")
			}
			step = parsed
		}
		return h.runStep(chatID, userID, step)
	case "persona", "rules":
		kind, _ := wizard.ParseDocumentKind(cmd)
		return h.documentCommand(chatID, userID, kind, args)
	case "settings":
		return h.settingsCommand(chatID, userID, msg.MessageID, args)
	case "show":
		return h.showSurface(chatID, userID, args)
	case "save":
		return h.saveSurface(chatID, userID, args)
	case "status":
		return h.sendStatus(chatID, userID)
	default:
		return h.tg.SendText(chatID, "❌ 알 수 없는 명령입니다. /help 를 확인해주세요.")
	}
}

func (h *Handler) startStep(chatID, userID int64, step wizard.Step) error {
	key := session.ChatKey(chatID, userID)
	h.conv.Update(key, func(c *Conversation) {
		c.Step = step
		c.Question = 0
		c.AwaitingDocument = ""
	})

	header := fmt.Sprintf("🧭 %s\n%s", step.Title(), step.Subtitle())
	if err := h.tg.SendText(chatID, header); err != nil {
		return err
	}
	return h.askCurrent(chatID, userID)
}

func (h *Handler) askCurrent(chatID, userID int64) error {
	conv := h.conv.Get(session.ChatKey(chatID, userID))
	q, ok := conv.Current()
	if !ok {
		return h.finishQuestions(chatID, userID, conv.Step)
	}
	return h.tg.SendText(chatID, questionText(q))
}

// answer stores text for the current question and moves to the next one.
// Blank text skips the question.
func (h *Handler) answer(chatID, userID int64, text string) error {
	key := session.ChatKey(chatID, userID)
	conv := h.conv.Get(key)
	q, ok := conv.Current()
	if !ok {
		return h.tg.SendText(chatID, "ℹ️ 지금은 답변할 질문이 없습니다. /step1 부터 시작해보세요.")
	}

	if err := h.wizardFor(chatID, userID).SetField(q.Field, text); err != nil {
		return h.replyError(chatID, err)
	}
	h.conv.Update(key, func(c *Conversation) { c.Question++ })
	return h.askCurrent(chatID, userID)
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) error {
	key := session.ChatKey(chatID, userID)
	conv := h.conv.Get(key)
	if conv.AwaitingDocument != "" {
		return h.storeDocument(chatID, userID, conv.AwaitingDocument, text)
	}
	return h.answer(chatID, userID, text)
}

// finishQuestions offers the style choice for steps 2 and 3, then the run
// button.
func (h *Handler) finishQuestions(chatID, userID int64, step wizard.Step) error {
	styles := wizard.DefaultStyles()
	if in, err := h.wizardFor(chatID, userID).Inputs(); err == nil {
		styles = in.Styles
	}

	switch step {
	case wizard.StepCharacter:
		kb := personaKeyboard(userID, styles)
		_, err := h.tg.SendTextWithKeyboard(chatID, "🎭 어떤 분위기의 캐릭터를 원하시나요?", &kb)
		if err != nil {
			return err
		}
	case wizard.StepSynopsis:
		kb := strategyKeyboard(userID, styles)
		_, err := h.tg.SendTextWithKeyboard(chatID, "🎬 어떤 방식의 이야기를 원하시나요?", &kb)
		if err != nil {
			return err
		}
	case wizard.StepFinalScript:
		_ = h.tg.SendText(chatID, "📎 페르소나/작성 규칙 파일이 있다면 /persona, /rules 로 불러올 수 있습니다.")
	}

	kb := runKeyboard(userID, step)
	_, err := h.tg.SendTextWithKeyboard(chatID, fmt.Sprintf("✅ %s 질문이 끝났습니다.", step.Title()), &kb)
	return err
}

func (h *Handler) runStep(chatID, userID int64, step wizard.Step) error {
	key := session.ChatKey(chatID, userID)
	wz := h.wizardFor(chatID, userID)

	if err := h.ensureWatcher(chatID, userID, wz); err != nil {
		return h.replyError(chatID, err)
	}
	// A rerun gets fresh messages instead of editing ones far up the chat.
	h.conv.Update(key, func(c *Conversation) {
		c.Step = step
		c.Question = -1
		for _, slot := range slotsProducedBy(step) {
			delete(c.Surfaces, slot)
		}
	})
	if err := wz.RunStep(step); err != nil {
		return h.replyError(chatID, err)
	}
	h.tg.SendTyping(chatID)
	return nil
}

func (h *Handler) documentCommand(chatID, userID int64, kind wizard.DocumentKind, args string) error {
	key := session.ChatKey(chatID, userID)
	if strings.EqualFold(args, "clear") {
		if err := h.wizardFor(chatID, userID).ClearDocument(kind); err != nil {
			return h.replyError(chatID, err)
		}
		h.conv.Update(key, func(c *Conversation) { c.AwaitingDocument = "" })
		return h.tg.SendText(chatID, "🗑 "+documentLabel(kind)+" 파일을 비웠습니다.")
	}

	h.conv.Update(key, func(c *Conversation) { c.AwaitingDocument = kind })
	return h.tg.SendText(chatID, "📄 "+documentLabel(kind)+" 파일(.md)을 보내주세요. 텍스트로 붙여넣어도 됩니다.")
}

func (h *Handler) handleDocument(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	conv := h.conv.Get(session.ChatKey(chatID, userID))
	kind := conv.AwaitingDocument
	if kind == "" {
		return h.tg.SendText(chatID, "ℹ️ 먼저 /persona 또는 /rules 로 어떤 파일인지 알려주세요.")
	}

	data, err := h.tg.DownloadFile(ctx, msg.Document.FileID)
	if err != nil {
		h.logger.Error("document download failed", "err", err)
		return h.tg.SendText(chatID, "❌ 파일을 불러오지 못했습니다.")
	}
	return h.storeDocument(chatID, userID, kind, string(data))
}

func (h *Handler) storeDocument(chatID, userID int64, kind wizard.DocumentKind, text string) error {
	if err := h.wizardFor(chatID, userID).SetDocument(kind, text); err != nil {
		return h.replyError(chatID, err)
	}
	h.conv.Update(session.ChatKey(chatID, userID), func(c *Conversation) { c.AwaitingDocument = "" })
	return h.tg.SendText(chatID, fmt.Sprintf("✅ %s 파일을 불러왔습니다. (%d자)", documentLabel(kind), len([]rune(text))))
}

func (h *Handler) showSurface(chatID, userID int64, args string) error {
	slot, err := slotArg(args)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+slotUsage)
	}
	text, err := h.wizardFor(chatID, userID).Surface(slot)
	if err != nil {
		return h.replyError(chatID, err)
	}
	if strings.TrimSpace(text) == "" {
		return h.tg.SendText(chatID, "ℹ️ 아직 내용이 없습니다.")
	}
	return h.tg.SendText(chatID, text)
}

func (h *Handler) saveSurface(chatID, userID int64, args string) error {
	slot, err := slotArg(args)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+slotUsage)
	}
	text, err := h.wizardFor(chatID, userID).Surface(slot)
	if err != nil {
		return h.replyError(chatID, err)
	}
	if strings.TrimSpace(text) == "" {
		return h.replyError(chatID, wizard.ErrNothingToSave)
	}
	name := wizard.MarkdownPath(string(slot))
	return h.tg.SendDocument(chatID, name, []byte(text), "💾 "+slot.Title())
}

func (h *Handler) sendStatus(chatID, userID int64) error {
	snap, err := h.wizardFor(chatID, userID).Snapshot()
	if err != nil {
		return h.replyError(chatID, err)
	}
	return h.tg.SendText(chatID, statusText(snap, h.providers.Active(), h.providers.Configured()))
}

// replyError turns a wizard or provider error into a chat message.
func (h *Handler) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, llm.ErrConfigurationMissing):
		return h.tg.SendText(chatID, "⚙️ 설정 필요: 먼저 /settings <google|claude|openai> <API 키> 로 키를 저장해주세요.")
	case errors.Is(err, wizard.ErrMissingProduct):
		return h.tg.SendText(chatID, "⚠️ 필수 입력: Q1. 누구를 도와주고 싶나요? (상품/서비스) 항목은 필수입니다. /step1 로 입력해주세요.")
	case errors.Is(err, wizard.ErrNothingToSave):
		return h.tg.SendText(chatID, "⚠️ 저장할 내용이 없습니다.")
	case errors.Is(err, wizard.ErrClosed):
		return h.tg.SendText(chatID, "ℹ️ 세션이 만료되었습니다. /start 로 다시 시작해주세요.")
	default:
		h.logger.Warn("request rejected", "err", err)
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}
}
