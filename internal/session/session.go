package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/llm"
)

var (
	ErrEmptyIdentity = errors.New("identity must not be empty")
	ErrNotFound      = errors.New("no active session")
)

type Turn struct {
	Role    string
	Content string
}

// Session is the page state for one logged-in learner. Fields other than the
// turn history are mutated only by the single interaction goroutine of that
// learner; the turn history goes through the store so reads get copies.
type Session struct {
	Identity  string
	Language  string
	Model     string
	StartTime time.Time
	Conv      llm.Conversation

	turns []Turn
}

// Store holds live sessions keyed by identity.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Login starts a fresh session for identity, replacing any previous one for
// the same identity. Whitespace-only identities are rejected.
func (s *Store) Login(identity string) (*Session, error) {
	id := strings.TrimSpace(identity)
	if id == "" {
		return nil, ErrEmptyIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{Identity: id, StartTime: s.now()}
	s.sessions[id] = sess
	return sess, nil
}

func (s *Store) Get(identity string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[strings.TrimSpace(identity)]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// End removes the session and its turn history.
func (s *Store) End(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, strings.TrimSpace(identity))
}

func (s *Store) AppendTurns(identity string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[strings.TrimSpace(identity)]
	if !ok {
		return ErrNotFound
	}
	sess.turns = append(sess.turns, turns...)
	return nil
}

// Turns returns a copy of the session's turn history in insertion order.
func (s *Store) Turns(identity string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[strings.TrimSpace(identity)]
	if !ok {
		return nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}
