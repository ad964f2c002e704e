package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/export"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/material"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
	"github.com/ryanhsiao89/trauma-tutor-bot/internal/transcript"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Identity string `json:"identity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.opts.Store.Login(req.Identity)
	if err != nil {
		if errors.Is(err, session.ErrEmptyIdentity) {
			writeError(w, http.StatusBadRequest, "請先輸入暱稱")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("👤 learner %q logged in", sess.Identity)

	resp := map[string]interface{}{
		"identity": sess.Identity,
		"welcome":  fmt.Sprintf("你好 %s 老師！我是 AI 家教。今天想了解什麼呢？", sess.Identity),
	}
	if mat, err := s.opts.Material.Load(); err != nil {
		resp["material_available"] = false
		if errors.Is(err, material.ErrNoMaterial) {
			resp["material_status"] = "⚠️ 偵測不到 PDF"
		} else {
			resp["material_status"] = "⚠️ 教材讀取失敗"
			log.Printf("material load failed: %v", err)
		}
	} else {
		resp["material_available"] = true
		resp["material_files"] = mat.Files
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = s.opts.DefaultProvider
	}
	apiKey := r.URL.Query().Get("api_key")
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "請輸入 API Key")
		return
	}

	client, err := s.clientFor(r.Context(), provider, apiKey)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "❌ API Key 無效")
		return
	}
	models, err := client.ListModels(r.Context())
	if err != nil {
		log.Printf("model listing failed: %v", err)
		writeError(w, http.StatusUnauthorized, "❌ API Key 無效")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Identity string `json:"identity"`
		Text     string `json:"text"`
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
		Model    string `json:"model"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "❌ 請輸入 API Key")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	sess, err := s.opts.Store.Get(req.Identity)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "請先登入")
		return
	}

	mat, err := s.opts.Material.Load()
	if err != nil {
		writeError(w, http.StatusConflict, "❌ 找不到教材內容")
		return
	}

	// Language and model lock in with the first message of the session.
	if sess.Language == "" {
		if req.Language == "" {
			req.Language = Languages[0]
		}
		sess.Language = req.Language
	}
	provider := req.Provider
	if provider == "" {
		provider = s.opts.DefaultProvider
	}
	model := req.Model
	if model == "" {
		model = s.opts.DefaultModel
	}

	client, err := s.clientFor(r.Context(), provider, req.APIKey)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "❌ API Key 無效")
		return
	}
	if err := s.opts.Tutor.EnsureStarted(r.Context(), client, sess, model, mat.Text); err != nil {
		log.Printf("failed to start conversation for %q: %v", sess.Identity, err)
		writeError(w, http.StatusBadGateway, "❌ AI 回應失敗，請稍後再試")
		return
	}

	reply, err := s.opts.Tutor.Send(r.Context(), sess, req.Text)
	if err != nil {
		log.Printf("send failed for %q: %v", sess.Identity, err)
		writeError(w, http.StatusBadGateway, "❌ AI 回應失敗，請稍後再試")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	sess, err := s.opts.Store.Get(identity)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "請先登入")
		return
	}
	text := transcript.Render(
		transcript.Settings{Language: sess.Language, Model: sess.Model},
		s.opts.Store.Turns(sess.Identity),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "transcript_"+sess.Identity+".txt"))
	if _, err := w.Write([]byte(text)); err != nil {
		log.Printf("failed to write transcript: %v", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Identity string `json:"identity"`
		Force    bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.opts.Store.Get(req.Identity)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "請先登入")
		return
	}

	// Forced logout: explicit learner action that discards the session
	// without a durable export. Never taken automatically.
	if req.Force {
		s.opts.Store.End(sess.Identity)
		log.Printf("⚠️ learner %q forced logout without export", sess.Identity)
		writeJSON(w, http.StatusOK, map[string]interface{}{"exported": false, "forced": true})
		return
	}

	if s.opts.Recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "❌ 紀錄服務未設定，無法上傳學習紀錄")
		return
	}

	logoutTime := time.Now()
	rec := export.Record{
		LoginTime:       sess.StartTime,
		LogoutTime:      logoutTime,
		Identity:        sess.Identity,
		DurationMinutes: export.DurationMinutes(sess.StartTime, logoutTime),
		LoginCount:      export.NextLoginCount(r.Context(), s.opts.Recorder, sess.Identity),
		Transcript: transcript.Render(
			transcript.Settings{Language: sess.Language, Model: sess.Model},
			s.opts.Store.Turns(sess.Identity),
		),
	}
	if err := s.opts.Recorder.Append(r.Context(), rec); err != nil {
		// Session stays intact so the learner can retry or force logout.
		log.Printf("export failed for %q: %v", sess.Identity, err)
		writeError(w, http.StatusBadGateway, "❌ 上傳學習紀錄失敗，您可以重試或選擇強制登出")
		return
	}

	s.opts.Store.End(sess.Identity)
	log.Printf("📋 exported session for %q (login #%d, %d min)", rec.Identity, rec.LoginCount, rec.DurationMinutes)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exported":    true,
		"login_count": rec.LoginCount,
	})
}
