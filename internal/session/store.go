package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketing-captain/internal/metrics"
	"marketing-captain/internal/wizard"
)

type Session struct {
	ID           string
	Wizard       *wizard.Session
	LastActivity time.Time
}

type Options struct {
	// New builds the wizard for a fresh session.
	New     func() *wizard.Session
	IdleTTL time.Duration
}

// Store maps session ids (web uuids or Telegram chat keys) to wizard
// sessions and closes the ones left idle.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	newFn    func() *wizard.Session
	idleTTL  time.Duration
	onEvict  []func(id string)
}

func NewStore(opts Options) *Store {
	idleTTL := opts.IdleTTL
	if idleTTL <= 0 {
		idleTTL = 6 * time.Hour
	}

	return &Store{
		sessions: make(map[string]*Session),
		newFn:    opts.New,
		idleTTL:  idleTTL,
	}
}

// ChatKey is the session id used by the Telegram front end.
func ChatKey(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}

// OnEvict registers fn to run with the id of every session removed by
// Delete or Sweep, after its wizard has been closed.
func (s *Store) OnEvict(fn func(id string)) {
	s.mu.Lock()
	s.onEvict = append(s.onEvict, fn)
	s.mu.Unlock()
}

// Create starts a session under a new random id.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(uuid.NewString())
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.LastActivity = time.Now()
	return sess, true
}

func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = time.Now()
		return sess
	}
	return s.createLocked(id)
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	hooks := s.onEvict
	s.mu.Unlock()

	if ok {
		sess.Wizard.Close()
		notify(hooks, id)
	}
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle since before now-IdleTTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	var stale []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.idleTTL {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	hooks := s.onEvict
	s.mu.Unlock()

	for _, sess := range stale {
		sess.Wizard.Close()
		notify(hooks, sess.ID)
	}
	return len(stale)
}

func notify(hooks []func(id string), id string) {
	for _, fn := range hooks {
		fn(id)
	}
}

// Run sweeps on every interval until ctx is done, then closes everything.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (s *Store) Close() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Wizard.Close()
	}
}

func (s *Store) createLocked(id string) *Session {
	sess := &Session{
		ID:           id,
		Wizard:       s.newFn(),
		LastActivity: time.Now(),
	}
	s.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return sess
}
