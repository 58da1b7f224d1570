package handlers

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"marketing-captain/internal/session"
	"marketing-captain/internal/wizard"
)

// surfaceMaxBytes leaves room under Telegram's 4096 byte limit for the
// header and the truncation hint.
const surfaceMaxBytes = 3800

// ensureWatcher starts one goroutine per chat that mirrors the wizard's
// display surfaces into bot messages. The subscription's initial replay is
// discarded so only changes made after this call are sent.
func (h *Handler) ensureWatcher(chatID, userID int64, wz *wizard.Session) error {
	key := session.ChatKey(chatID, userID)

	start := false
	h.conv.Update(key, func(c *Conversation) {
		if !c.Watching {
			c.Watching = true
			start = true
		}
	})
	if !start {
		return nil
	}

	sub, err := wz.Subscribe()
	if err != nil {
		h.conv.Update(key, func(c *Conversation) { c.Watching = false })
		return err
	}
	if _, err := sub.Next(h.baseCtx); err != nil {
		sub.Close()
		h.conv.UpdateExisting(key, func(c *Conversation) { c.Watching = false })
		return err
	}

	go h.watch(chatID, userID, sub)
	return nil
}

func (h *Handler) watch(chatID, userID int64, sub *wizard.Subscription) {
	key := session.ChatKey(chatID, userID)
	defer func() {
		sub.Close()
		h.conv.UpdateExisting(key, func(c *Conversation) {
			c.Watching = false
			c.Surfaces = make(map[wizard.Slot]int)
		})
	}()

	for {
		updates, err := sub.Next(h.baseCtx)
		if err != nil {
			if !errors.Is(err, wizard.ErrClosed) && !errors.Is(err, context.Canceled) {
				h.logger.Warn("surface watcher stopped", "chat_id", chatID, "err", err)
			}
			return
		}
		for _, u := range updates {
			h.publish(chatID, key, u)
		}

		select {
		case <-h.baseCtx.Done():
			return
		case <-time.After(h.editInterval):
		}
	}
}

// publish sends or edits the message mirroring one surface.
func (h *Handler) publish(chatID int64, key string, u wizard.Update) {
	if strings.TrimSpace(u.Text) == "" {
		return
	}
	text := surfaceText(u.Slot, u.Text)

	conv, ok := h.conv.Lookup(key)
	if !ok {
		return
	}
	if msgID, ok := conv.Surfaces[u.Slot]; ok {
		err := h.tg.EditText(chatID, msgID, text, nil)
		if err == nil {
			return
		}
		h.logger.Warn("surface edit failed", "chat_id", chatID, "slot", u.Slot, "err", err)
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, nil)
	if err != nil {
		h.logger.Error("surface send failed", "chat_id", chatID, "slot", u.Slot, "err", err)
		return
	}
	h.conv.UpdateExisting(key, func(c *Conversation) { c.Surfaces[u.Slot] = msgID })
}

func surfaceText(slot wizard.Slot, text string) string {
	out := "📌 " + slot.Title() + "\n\n" + text
	if len(out) <= surfaceMaxBytes {
		return out
	}

	cut := surfaceMaxBytes
	for cut > 0 && !utf8.RuneStart(out[cut]) {
		cut--
	}
	return out[:cut] + "\n\n… (전체 내용: /save " + string(slot) + ")"
}

// slotsProducedBy lists the surfaces a run of step rewrites.
func slotsProducedBy(step wizard.Step) []wizard.Slot {
	slots := []wizard.Slot{step.Slot()}
	switch step {
	case wizard.StepSynopsis:
		slots = append(slots, wizard.SlotPoster)
	case wizard.StepFinalScript:
		slots = append(slots, wizard.SectionSlots()...)
	}
	return slots
}
