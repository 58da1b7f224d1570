package handlers

import (
	"sync"
	"time"

	"marketing-captain/internal/wizard"
)

// Conversation is the bot-side position in the question flow. The answers
// themselves live in the wizard session.
type Conversation struct {
	Step     wizard.Step
	Question int // index into wizard.Questions(Step), -1 when idle

	AwaitingDocument wizard.DocumentKind

	// Surfaces maps display slots to the bot message that shows them.
	Surfaces map[wizard.Slot]int
	Watching bool

	UpdatedAt time.Time
}

// Current returns the question being asked, if any.
func (c Conversation) Current() (wizard.Question, bool) {
	qs := wizard.Questions(c.Step)
	if c.Question < 0 || c.Question >= len(qs) {
		return wizard.Question{}, false
	}
	return qs[c.Question], true
}

type conversations struct {
	mu sync.Mutex
	m  map[string]*Conversation
}

func newConversations() *conversations {
	return &conversations{m: make(map[string]*Conversation)}
}

func (s *conversations) Get(key string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(key).clone()
}

func (s *conversations) Update(key string, fn func(*Conversation)) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(key)
	if fn != nil {
		fn(c)
	}
	c.UpdatedAt = time.Now()
	return c.clone()
}

// Lookup is Get without creating a missing conversation.
func (s *conversations) Lookup(key string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.m[key]
	if !ok {
		return Conversation{}, false
	}
	return c.clone(), true
}

// UpdateExisting is Update for a conversation that may have been pruned; it
// does not recreate one.
func (s *conversations) UpdateExisting(key string, fn func(*Conversation)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.m[key]
	if !ok {
		return false
	}
	fn(c)
	c.UpdatedAt = time.Now()
	return true
}

// Delete drops the conversation of an evicted session.
func (s *conversations) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

func (s *conversations) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *conversations) getOrCreateLocked(key string) *Conversation {
	if c, ok := s.m[key]; ok {
		return c
	}
	c := defaultConversation()
	s.m[key] = &c
	return s.m[key]
}

func (c *Conversation) clone() Conversation {
	out := *c
	out.Surfaces = make(map[wizard.Slot]int, len(c.Surfaces))
	for k, v := range c.Surfaces {
		out.Surfaces[k] = v
	}
	return out
}

func defaultConversation() Conversation {
	return Conversation{
		Step:      wizard.StepCustomer,
		Question:  -1,
		Surfaces:  make(map[wizard.Slot]int),
		UpdatedAt: time.Now(),
	}
}
