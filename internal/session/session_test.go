package session

import (
	"errors"
	"testing"
)

func TestLoginRejectsEmptyIdentity(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"", "   ", "\t\n"} {
		if _, err := s.Login(id); !errors.Is(err, ErrEmptyIdentity) {
			t.Fatalf("identity %q: want ErrEmptyIdentity, got %v", id, err)
		}
	}
}

func TestLoginTrimsAndStarts(t *testing.T) {
	s := NewStore()
	sess, err := s.Login("  001  ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Identity != "001" {
		t.Fatalf("identity not trimmed: %q", sess.Identity)
	}
	if sess.StartTime.IsZero() {
		t.Fatalf("start time not set")
	}
	got, err := s.Get("001")
	if err != nil || got != sess {
		t.Fatalf("get returned %v, %v", got, err)
	}
}

func TestAppendAndTurnsCopySemantics(t *testing.T) {
	s := NewStore()
	if _, err := s.Login("001"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.AppendTurns("001", Turn{Role: "user", Content: "hello"}, Turn{Role: "assistant", Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns := s.Turns("001")
	if len(turns) != 2 {
		t.Fatalf("want 2 turns, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "hello" {
		t.Fatalf("unexpected turns[0]: %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Content != "hi" {
		t.Fatalf("unexpected turns[1]: %+v", turns[1])
	}

	// Mutating the returned slice must not touch internal state.
	turns[0] = Turn{Role: "user", Content: "mutated"}
	if s.Turns("001")[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestEndClearsStateAndReloginIsFresh(t *testing.T) {
	s := NewStore()
	if _, err := s.Login("001"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.AppendTurns("001", Turn{Role: "user", Content: "q"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.End("001")

	if _, err := s.Get("001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after end, got %v", err)
	}
	if turns := s.Turns("001"); turns != nil {
		t.Fatalf("turns survived logout: %+v", turns)
	}

	sess, err := s.Login("001")
	if err != nil {
		t.Fatalf("relogin: %v", err)
	}
	if sess.Conv != nil || len(s.Turns("001")) != 0 {
		t.Fatalf("relogin not fresh")
	}
}

func TestAppendToUnknownIdentityFails(t *testing.T) {
	s := NewStore()
	if err := s.AppendTurns("ghost", Turn{Role: "user", Content: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
