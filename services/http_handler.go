package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const (
	ServiceName       = "Krishi Sahayak AI API"
	ServiceVersion    = "2.0.0"
	DefaultTokenDelay = 50 * time.Millisecond

	healthProbe = "Hello"
)

// RouteRegistrar adds its routes to a mux.
type RouteRegistrar interface {
	Register(mux *http.ServeMux)
}

// NewRouter mounts every registrar on one mux behind the CORS middleware.
func NewRouter(registrars ...RouteRegistrar) http.Handler {
	mux := http.NewServeMux()
	for _, r := range registrars {
		r.Register(mux)
	}
	return WithCORS(mux)
}

// HTTPHandler serves the chat, language and service-info endpoints.
type HTTPHandler struct {
	chat       *ChatService
	tokenDelay time.Duration
	now        func() time.Time
}

type HTTPOption func(*HTTPHandler)

// WithTokenDelay sets the pause between streamed words. Zero disables pacing.
func WithTokenDelay(d time.Duration) HTTPOption {
	return func(h *HTTPHandler) {
		if d >= 0 {
			h.tokenDelay = d
		}
	}
}

func WithClock(now func() time.Time) HTTPOption {
	return func(h *HTTPHandler) { h.now = now }
}

func ProvideHTTPHandler(chat *ChatService, opts ...HTTPOption) *HTTPHandler {
	h := &HTTPHandler{
		chat:       chat,
		tokenDelay: DefaultTokenDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/languages", h.handleLanguages)
	mux.HandleFunc("POST /api/detect-language", h.handleDetectLanguage)
	mux.HandleFunc("GET /api/sessions/{session_id}", h.handleSession)
}

func (h *HTTPHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

func (h *HTTPHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Krishi Sahayak AI - Your Digital Farming Assistant",
		"version":     ServiceVersion,
		"description": "AI-powered agricultural assistant for Indian farmers",
		"endpoints": map[string]string{
			"chat":   "/api/chat",
			"health": "/health",
			"docs":   "/docs",
		},
		"status": "ready",
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Details   string `json:"details"`
}

// handleHealth sends a greeting through the agent. Greetings never reach the
// model, so the probe costs no tokens.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: h.timestamp(),
		Version:   ServiceVersion,
		Details:   "AI agent is working properly",
	}

	if !h.chat.Available() {
		resp.Status = "unhealthy"
		resp.Details = "AI agent not initialized"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if _, err := h.chat.Answer(r.Context(), healthProbe, "en", nil); err != nil {
		logger.Error("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Details = fmt.Sprintf("AI agent error: %v", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "running",
		"service":   ServiceName,
		"timestamp": h.timestamp(),
		"version":   ServiceVersion,
		"message":   "API is running",
	})
}

func (h *HTTPHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "Message is required")
		return
	}

	if req.Stream {
		h.streamChat(w, r, &req)
		return
	}

	// Agent failures are already logged and carry the localized error text.
	reply, _ := h.chat.Process(r.Context(), &req, nil)
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  reply.Text,
		SessionID: reply.SessionID,
		Timestamp: h.timestamp(),
	})
}

// StreamChunk is one server-sent event of a streamed chat answer.
type StreamChunk struct {
	Type      string `json:"type"` // token, completion or error
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
	Index     int    `json:"index"`
	Done      bool   `json:"done"`
	Language  string `json:"language,omitempty"`
}

func (h *HTTPHandler) streamChat(w http.ResponseWriter, r *http.Request, req *ChatRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming is unsupported by response writer")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	reply, err := h.chat.Process(r.Context(), req, nil)
	if err != nil {
		_ = writeSSE(w, flusher, StreamChunk{
			Type:      "error",
			Content:   reply.Text,
			SessionID: reply.SessionID,
			Done:      true,
			Language:  reply.Language,
		})
		return
	}

	words := strings.Fields(reply.Text)
	for i, word := range words {
		chunk := StreamChunk{
			Type:      "token",
			Content:   word + " ",
			SessionID: reply.SessionID,
			Index:     i,
			Language:  reply.Language,
		}
		if err := writeSSE(w, flusher, chunk); err != nil {
			logger.Error("Failed to write stream chunk", zap.String("sessionId", reply.SessionID), zap.Error(err))
			return
		}
		if !pause(r.Context(), h.tokenDelay) {
			return
		}
	}

	_ = writeSSE(w, flusher, StreamChunk{
		Type:      "completion",
		SessionID: reply.SessionID,
		Index:     len(words),
		Done:      true,
		Language:  reply.Language,
	})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, chunk StreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// pause reports false when ctx ends first.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (h *HTTPHandler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_languages":      h.chat.Languages().Supported(),
		"default_language":         "en",
		"auto_detection_available": true,
	})
}

type detectLanguageRequest struct {
	Text string `json:"text"`
}

func (h *HTTPHandler) handleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req detectLanguageRequest
	if err := decodeJSONBody(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeDetail(w, http.StatusBadRequest, "Text is required")
		return
	}

	languages := h.chat.Languages()
	code := languages.Detect(req.Text)
	confidence := "high"
	if code == "en" {
		confidence = "medium"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"detected_language": code,
		"language_name":     languages.Name(code),
		"confidence":        confidence,
	})
}

func (h *HTTPHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	archive := h.chat.Archive()
	if !archive.Enabled() {
		writeDetail(w, http.StatusNotFound, "Session archive is not configured")
		return
	}

	conversation := archive.LoadSession(r.Context(), r.PathValue("session_id"))
	if len(conversation.Turns) == 0 {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}
