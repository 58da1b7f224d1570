package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketing-captain/internal/llm"
	"marketing-captain/internal/wizard"
)

type idleClient struct{}

func (idleClient) Configured() bool { return false }

func (idleClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	return "", llm.ErrConfigurationMissing
}

func newStore(ttl time.Duration) *Store {
	return NewStore(Options{
		New:     func() *wizard.Session { return wizard.New(wizard.Options{Client: idleClient{}}) },
		IdleTTL: ttl,
	})
}

func TestStoreCreateAndGet(t *testing.T) {
	s := newStore(time.Hour)
	defer s.Close()

	a := s.Create()
	b := s.Create()
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids must be unique and non-empty: %q %q", a.ID, b.ID)
	}
	got, ok := s.Get(a.ID)
	if !ok || got != a {
		t.Fatalf("Get(%q) = %v, %v", a.ID, got, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("unexpected session for unknown id")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestStoreGetOrCreateIsStable(t *testing.T) {
	s := newStore(time.Hour)
	defer s.Close()

	key := ChatKey(10, 20)
	if key != "tg:10:20" {
		t.Fatalf("ChatKey = %q", key)
	}
	first := s.GetOrCreate(key)
	second := s.GetOrCreate(key)
	if first != second {
		t.Fatalf("GetOrCreate returned a different session for the same key")
	}
}

func TestStoreSweepClosesIdle(t *testing.T) {
	s := newStore(time.Minute)
	defer s.Close()

	old := s.Create()
	fresh := s.Create()
	old.LastActivity = time.Now().Add(-2 * time.Minute)

	if n := s.Sweep(time.Now()); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, ok := s.Get(old.ID); ok {
		t.Fatalf("idle session still present")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Fatalf("fresh session removed")
	}
	if err := old.Wizard.SetField(wizard.FieldPain, "x"); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("expected swept wizard to be closed, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := newStore(time.Hour)
	defer s.Close()

	sess := s.Create()
	if !s.Delete(sess.ID) {
		t.Fatalf("Delete returned false")
	}
	if s.Delete(sess.ID) {
		t.Fatalf("second Delete returned true")
	}
}

func TestStoreEvictHooks(t *testing.T) {
	s := newStore(time.Minute)
	defer s.Close()

	var evicted []string
	s.OnEvict(func(id string) { evicted = append(evicted, id) })

	idle := s.GetOrCreate(ChatKey(1, 2))
	idle.LastActivity = time.Now().Add(-2 * time.Minute)
	kept := s.Create()
	gone := s.Create()

	s.Sweep(time.Now())
	s.Delete(gone.ID)
	s.Delete("missing")

	if len(evicted) != 2 || evicted[0] != idle.ID || evicted[1] != gone.ID {
		t.Fatalf("evicted = %v", evicted)
	}
	if _, ok := s.Get(kept.ID); !ok {
		t.Fatalf("active session evicted")
	}
}
