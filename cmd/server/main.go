package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/config"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/export"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/llm"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/material"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/tutor"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/web"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	loader := material.NewLoader(cfg.MaterialDir)
	if mat, err := loader.Load(); err != nil {
		log.Printf("⚠️ course material unavailable, conversation disabled: %v", err)
	} else {
		log.Printf("✅ loaded %d material file(s): %s", len(mat.Files), strings.Join(mat.Files, ", "))
	}

	store := session.NewStore()
	ctrl := tutor.New(store, readPersonaPrompt(cfg.PersonaPromptPath),
		cfg.MaterialPrefixLimit, cfg.SendRetryAttempts, cfg.SendRetryDelay)

	var rec export.Recorder
	if sr, err := export.NewSheetsRecorder(ctx, cfg.SheetsCredentialsPath,
		cfg.SpreadsheetTitle, cfg.WorksheetTitle, cfg.ExportTZOffsetHours); err != nil {
		log.Printf("⚠️ sheets export disabled: %v", err)
	} else {
		rec = sr
	}

	factory := llm.NewFactory(cfg)
	srv := web.New(web.Options{
		Port:            cfg.ListenPort,
		Material:        loader,
		Store:           store,
		Tutor:           ctrl,
		Recorder:        rec,
		Clients:         factory.CreateClient,
		DefaultProvider: string(cfg.LLMProvider),
		DefaultModel:    defaultModel(cfg),
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Printf("shutting down")
		if err := srv.Stop(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func defaultModel(cfg *config.Config) string {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return cfg.OpenAIModel
	default:
		return cfg.GeminiModel
	}
}

func readPersonaPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("persona prompt file not found or unreadable at %s, using built-in default: %v", path, err)
		return ""
	}
	return string(data)
}
