// Package burst joins text messages that arrive in quick succession from
// the same user. Telegram clients split long pastes into several messages;
// the wizard stores them as one answer.
package burst

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Item struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

type Message struct {
	ChatID   int64
	UserID   int64
	Username string
	Parts    []string
}

// Text joins the parts with newlines.
func (m Message) Text() string {
	return strings.Join(m.Parts, "\n")
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Message)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Message)
	pending  map[string]*pendingMessage
}

type pendingMessage struct {
	msg   Message
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		pending:  make(map[string]*pendingMessage),
	}
}

// Add buffers item and restarts the quiet-period timer for its sender.
func (a *Aggregator) Add(item Item) {
	if strings.TrimSpace(item.Text) == "" {
		return
	}

	key := makeKey(item.ChatID, item.UserID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pm, ok := a.pending[key]
	if !ok {
		pm = &pendingMessage{
			msg: Message{
				ChatID:   item.ChatID,
				UserID:   item.UserID,
				Username: item.Username,
			},
		}
		a.pending[key] = pm
	}
	pm.msg.Parts = append(pm.msg.Parts, item.Text)

	if pm.timer != nil {
		pm.timer.Stop()
	}
	pm.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

// Take removes and returns whatever is buffered for the sender without
// calling OnFlush. Commands use it to apply a pending answer on their own
// goroutine before they run.
func (a *Aggregator) Take(chatID, userID int64) (Message, bool) {
	key := makeKey(chatID, userID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pm, ok := a.pending[key]
	if !ok {
		return Message{}, false
	}
	if pm.timer != nil {
		pm.timer.Stop()
	}
	delete(a.pending, key)
	return pm.msg, true
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pm, ok := a.pending[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	msg := pm.msg
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(msg)
	}
}

func makeKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}
