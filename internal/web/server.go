package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/export"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/llm"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/material"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/tutor"
)

// ClientFunc builds an LLM client for a provider and learner-supplied key.
type ClientFunc func(ctx context.Context, provider, apiKey string) (llm.Client, error)

type MaterialSource interface {
	Load() (*material.Material, error)
}

// Languages the tutor can answer in, in display order.
var Languages = []string{"繁體中文", "粵語", "English"}

type Options struct {
	Port            int
	Material        MaterialSource
	Store           *session.Store
	Tutor           *tutor.Controller
	Recorder        export.Recorder // nil disables the remote export
	Clients         ClientFunc
	DefaultProvider string
	DefaultModel    string
}

// Server serves the single-page tutor UI and its command endpoints.
type Server struct {
	opts       Options
	httpServer *http.Server
	startTime  time.Time

	mu      sync.Mutex
	clients map[string]llm.Client
}

func New(opts Options) *Server {
	return &Server{
		opts:      opts,
		startTime: time.Now(),
		clients:   make(map[string]llm.Client),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/send", s.handleSend)
	mux.HandleFunc("/api/transcript", s.handleTranscript)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("🌐 Starting tutor web server on http://localhost:%d", s.opts.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// clientFor caches clients per provider+key so repeated sends from the same
// learner reuse one underlying connection.
func (s *Server) clientFor(ctx context.Context, provider, apiKey string) (llm.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := provider + "\x00" + apiKey
	if c, ok := s.clients[key]; ok {
		return c, nil
	}
	c, err := s.opts.Clients(ctx, provider, apiKey)
	if err != nil {
		return nil, err
	}
	s.clients[key] = c
	return c, nil
}
