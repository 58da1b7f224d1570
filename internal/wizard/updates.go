package wizard

import (
	"context"
	"sync"
)

// Update carries the full current text of one display surface.
type Update struct {
	Slot Slot   `json:"slot"`
	Text string `json:"text"`
}

// Subscription coalesces surface updates per slot so a slow consumer only
// ever sees the latest text of each surface, never a stale one.
type Subscription struct {
	mu      sync.Mutex
	pending map[Slot]string
	order   []Slot
	notify  chan struct{}
	closed  bool
	cancel  func()
}

func newSubscription() *Subscription {
	return &Subscription{
		pending: make(map[Slot]string),
		notify:  make(chan struct{}, 1),
	}
}

func (s *Subscription) push(u Update) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[u.Slot]; !ok {
		s.order = append(s.order, u.Slot)
	}
	s.pending[u.Slot] = u.Text
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until at least one update is pending and returns all of them
// in first-changed order.
func (s *Subscription) Next(ctx context.Context) ([]Update, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if len(s.order) > 0 {
			out := make([]Update, 0, len(s.order))
			for _, slot := range s.order {
				out = append(out, Update{Slot: slot, Text: s.pending[slot]})
			}
			s.order = nil
			s.pending = make(map[Slot]string)
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		}
	}
}

// Close detaches the subscription from its session.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	if cancel != nil {
		cancel()
	}
}
