package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"marketing-captain/internal/burst"
	"marketing-captain/internal/config"
	"marketing-captain/internal/llm"
	"marketing-captain/internal/llm/providers"
	"marketing-captain/internal/session"
	"marketing-captain/internal/telegram"
	"marketing-captain/internal/wizard"
)

type sentDoc struct {
	name string
	data string
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	texts     []string
	edits     map[int]string
	docs      []sentDoc
	deleted   []int
	callbacks []string
	alerts    int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, edits: make(map[int]string)}
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, _ *telegram.Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.texts = append(f.texts, text)
	f.edits[f.nextID] = text
	return f.nextID, nil
}

func (f *fakeMessenger) EditText(_ int64, messageID int, text string, _ *telegram.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[messageID] = text
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, text)
	if alert {
		f.alerts++
	}
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) SendDocument(_ int64, name string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, sentDoc{name: name, data: string(data)})
	return nil
}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	return []byte("file:" + fileID), nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// shown reports whether any sent or edited message contains substr.
func (f *fakeMessenger) shown(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.edits {
		if strings.Contains(t, substr) {
			return true
		}
	}
	for _, t := range f.texts {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

type stubClient struct {
	configured bool
	output     string
}

func (s stubClient) Configured() bool { return s.configured }

func (s stubClient) Generate(context.Context, llm.Request) (string, error) {
	return s.output, nil
}

type testEnv struct {
	h        *Handler
	tg       *fakeMessenger
	sessions *session.Store
	settings string
}

func newTestEnv(t *testing.T, client stubClient) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	tg := newFakeMessenger()
	store := session.NewStore(session.Options{
		New: func() *wizard.Session {
			return wizard.New(wizard.Options{
				Client: client,
				Pacing: wizard.Pacing{Chunk: 1000, Delay: time.Millisecond},
			})
		},
	})
	settings := filepath.Join(t.TempDir(), "config.json")

	h := New(Options{
		Telegram:     tg,
		Sessions:     store,
		Providers:    providers.NewHolder(config.DefaultSettings(), providers.Options{}),
		SettingsFile: settings,
		Admins:       []int64{testUser},
		Context:      ctx,
		EditInterval: time.Millisecond,
	})

	t.Cleanup(func() {
		cancel()
		store.Close()
	})
	return &testEnv{h: h, tg: tg, sessions: store, settings: settings}
}

const (
	testChat int64 = 10
	testUser int64 = 20
)

func textUpdate(text string) telegram.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUser, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return telegram.Update{Message: msg}
}

func callbackUpdate(from int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: from},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: testChat},
			Text:      "menu",
		},
	}}
}

func (e *testEnv) send(t *testing.T, u telegram.Update) {
	t.Helper()
	if err := e.h.HandleUpdate(context.Background(), u); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
}

func (e *testEnv) wizard() *wizard.Session {
	return e.sessions.GetOrCreate(session.ChatKey(testChat, testUser)).Wizard
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestQuestionFlowStoresAnswers(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, textUpdate("/step1"))
	first := wizard.Questions(wizard.StepCustomer)
	if !strings.Contains(env.tg.lastText(), first[0].Label) {
		t.Fatalf("first question not asked: %q", env.tg.lastText())
	}

	env.send(t, textUpdate("블로그 강의"))
	if !strings.Contains(env.tg.lastText(), first[1].Label) {
		t.Fatalf("second question not asked: %q", env.tg.lastText())
	}

	for range first[1:] {
		env.send(t, textUpdate("/skip"))
	}
	if !strings.Contains(env.tg.lastText(), "질문이 끝났습니다") {
		t.Fatalf("expected run prompt, got %q", env.tg.lastText())
	}

	in, err := env.wizard().Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if got := in.Fields.Get(wizard.FieldProduct); got != "블로그 강의" {
		t.Fatalf("product = %q", got)
	}
}

func TestCommandAppliesBufferedAnswerFirst(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	// Same shape as the bot loop: every update and every timed flush
	// needs a slot, and there is only one.
	sem := make(chan struct{}, 1)
	ag := burst.New(burst.Options{
		Debounce: time.Hour,
		OnFlush: func(m burst.Message) {
			sem <- struct{}{}
			defer func() { <-sem }()
			env.h.HandleBurst(context.Background(), m)
		},
	})
	env.h.SetBurstAggregator(ag)

	dispatch := func(u telegram.Update) {
		t.Helper()
		done := make(chan error, 1)
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			done <- env.h.HandleUpdate(context.Background(), u)
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("HandleUpdate: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("update %q did not return", u.Message.Text)
		}
	}

	dispatch(textUpdate("/step1"))
	dispatch(textUpdate("블로그 강의"))
	dispatch(textUpdate("/skip"))

	in, err := env.wizard().Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if got := in.Fields.Get(wizard.FieldProduct); got != "블로그 강의" {
		t.Fatalf("product = %q", got)
	}
	if got := in.Fields.Get(wizard.FieldPain); got != "" {
		t.Fatalf("pain = %q, the skip must apply to the second question", got)
	}
	if !strings.Contains(env.tg.lastText(), "질문이 끝났습니다") {
		t.Fatalf("expected run prompt, got %q", env.tg.lastText())
	}
}

func TestRunWithoutKeyAsksForSettings(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: false})

	env.send(t, textUpdate("/run 1"))
	if !strings.Contains(env.tg.lastText(), "/settings") {
		t.Fatalf("expected settings hint, got %q", env.tg.lastText())
	}
}

func TestRunRequiresProduct(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, textUpdate("/run 1"))
	if !strings.Contains(env.tg.lastText(), "필수") {
		t.Fatalf("expected required-field warning, got %q", env.tg.lastText())
	}
}

func TestRunMirrorsSurface(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true, output: "고객 프로필 결과"})
	if err := env.wizard().SetField(wizard.FieldProduct, "다이어트 도시락"); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	env.send(t, textUpdate("/run 1"))
	eventually(t, func() bool { return env.tg.shown("고객 프로필 결과") })

	env.send(t, textUpdate("/status"))
	if !strings.Contains(env.tg.lastText(), "✅ "+wizard.StepCustomer.Title()) {
		t.Fatalf("status does not show completion: %q", env.tg.lastText())
	}
}

func TestSweptSessionDropsConversation(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true, output: "결과"})
	if err := env.wizard().SetField(wizard.FieldProduct, "도시락"); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	env.send(t, textUpdate("/step1"))
	env.send(t, textUpdate("/run 1"))
	eventually(t, func() bool { return env.tg.shown("결과") })
	if env.h.conv.Len() != 1 {
		t.Fatalf("conversations = %d, want 1", env.h.conv.Len())
	}

	if n := env.sessions.Sweep(time.Now().Add(24 * time.Hour)); n != 1 {
		t.Fatalf("Sweep removed %d", n)
	}

	// The watcher exits on the closed wizard and must not bring the entry back.
	time.Sleep(50 * time.Millisecond)
	if env.h.conv.Len() != 0 {
		t.Fatalf("conversation kept after sweep: %d", env.h.conv.Len())
	}
}

func TestCallbackOwnership(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, callbackUpdate(testUser+1, cb(testUser, "persona", wizard.PersonaAnalyst)))
	if env.tg.alerts != 1 {
		t.Fatalf("foreign callback should alert, alerts=%d", env.tg.alerts)
	}

	env.send(t, callbackUpdate(testUser, cb(testUser, "persona", wizard.PersonaAnalyst)))
	env.send(t, callbackUpdate(testUser, cb(testUser, "strategy", wizard.StrategySoap)))

	in, err := env.wizard().Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if in.Styles.Persona != wizard.PersonaAnalyst || in.Styles.Strategy != wizard.StrategySoap {
		t.Fatalf("styles = %+v", in.Styles)
	}
}

func TestSettingsSavesAndDeletesKeyMessage(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, textUpdate("/settings claude sk-test-1234"))
	if len(env.tg.deleted) != 1 {
		t.Fatalf("key message not deleted: %v", env.tg.deleted)
	}

	saved, err := config.LoadSettings(env.settings)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if saved.Provider != config.ProviderClaude || saved.ClaudeAPIKey != "sk-test-1234" {
		t.Fatalf("saved settings = %+v", saved)
	}
	if env.h.providers.Active() != config.ProviderClaude || !env.h.providers.Configured() {
		t.Fatalf("holder not updated")
	}

	env.send(t, textUpdate("/settings"))
	if strings.Contains(env.tg.lastText(), "sk-test-1234") {
		t.Fatalf("settings listing leaks the key: %q", env.tg.lastText())
	}
}

func TestSettingsChangeRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	u := textUpdate("/settings claude sk-intruder")
	u.Message.From.ID = testUser + 1
	env.send(t, u)

	if len(env.tg.deleted) != 1 {
		t.Fatalf("key message from non-admin not deleted: %v", env.tg.deleted)
	}
	if !strings.Contains(env.tg.lastText(), "관리자") {
		t.Fatalf("expected admin refusal, got %q", env.tg.lastText())
	}
	if env.h.providers.Active() != config.ProviderGoogle || env.h.providers.Configured() {
		t.Fatalf("holder changed by non-admin: %s", env.h.providers.Active())
	}
	if _, err := os.Stat(env.settings); !os.IsNotExist(err) {
		t.Fatalf("settings file written by non-admin: %v", err)
	}

	u = textUpdate("/settings")
	u.Message.From.ID = testUser + 1
	env.send(t, u)
	if !strings.Contains(env.tg.lastText(), "API 설정") {
		t.Fatalf("listing should stay available, got %q", env.tg.lastText())
	}
}

func TestSettingsRejectsProviderWithoutKey(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, textUpdate("/settings openai"))
	if !strings.Contains(env.tg.lastText(), "저장 실패") {
		t.Fatalf("expected rejection, got %q", env.tg.lastText())
	}
}

func TestDocumentUploadAndSave(t *testing.T) {
	env := newTestEnv(t, stubClient{configured: true})

	env.send(t, textUpdate("/persona"))
	upload := textUpdate("")
	upload.Message.Document = &tgbotapi.Document{FileID: "abc", FileName: "persona.md"}
	env.send(t, upload)

	snap, err := env.wizard().Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Documents[wizard.DocumentPersona] {
		t.Fatalf("persona document not stored")
	}

	env.send(t, textUpdate("/save poster"))
	if len(env.tg.docs) != 1 || env.tg.docs[0].name != "poster.md" {
		t.Fatalf("docs = %+v", env.tg.docs)
	}

	env.send(t, textUpdate("/save final_script"))
	if !strings.Contains(env.tg.lastText(), "저장할 내용이 없습니다") {
		t.Fatalf("expected nothing-to-save, got %q", env.tg.lastText())
	}
}

func TestSurfaceTextTruncates(t *testing.T) {
	long := strings.Repeat("가", 3000)
	out := surfaceText(wizard.StepFinalScript.Slot(), long)
	if len(out) > 4096 {
		t.Fatalf("surface text is %d bytes", len(out))
	}
	if !strings.Contains(out, "/save "+string(wizard.StepFinalScript.Slot())) {
		t.Fatalf("missing save hint")
	}
}

func TestParseCallback(t *testing.T) {
	owner, action, args, ok := parseCallback(cb(42, "run", "3"))
	if !ok || owner != 42 || action != "run" || fmt.Sprint(args) != "[3]" {
		t.Fatalf("parseCallback = %d %q %v %v", owner, action, args, ok)
	}
	if _, _, _, ok := parseCallback("pv:1:x"); ok {
		t.Fatalf("foreign prefix accepted")
	}
}
