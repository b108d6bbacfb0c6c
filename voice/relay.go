package voice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const (
	DefaultLanguage    = "hi"
	DefaultIdleTimeout = 30 * time.Second

	maxUploadBytes = 10 << 20
)

// Chatter answers a transcribed utterance. services.ChatService implements it.
type Chatter interface {
	Answer(ctx context.Context, message, language string, history []memory.Turn) (string, error)
}

// Relay serves voice calls over WebSocket plus one-shot audio uploads.
type Relay struct {
	chat        Chatter
	stt         Transcriber
	tts         Synthesizer
	idleTimeout time.Duration
	maxSpeech   int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

type RelayOption func(*Relay)

// WithIdleTimeout ends a call when the client is silent this long.
func WithIdleTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.idleTimeout = d
		}
	}
}

// WithMaxSpeechBytes caps the audio buffered for one utterance.
func WithMaxSpeechBytes(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.maxSpeech = n
		}
	}
}

func WithRelayClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

// NewRelay accepts nil speech services; calls then report no_speech and tts_error.
func NewRelay(chat Chatter, stt Transcriber, tts Synthesizer, opts ...RelayOption) *Relay {
	r := &Relay{
		chat:        chat,
		stt:         stt,
		tts:         tts,
		idleTimeout: DefaultIdleTimeout,
		maxSpeech:   maxUploadBytes,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Register(mux *http.ServeMux) {
	// websocket.Server without a Handshake accepts every origin, matching the open CORS policy.
	mux.Handle("GET /api/voice/call", websocket.Server{Handler: r.serveCall})
	mux.HandleFunc("POST /api/voice/upload", r.handleUpload)
	mux.HandleFunc("GET /api/voice/sessions", r.handleSessions)
}

func (r *Relay) serveCall(ws *websocket.Conn) {
	defer ws.Close()

	lang := ws.Request().URL.Query().Get("language")
	if lang == "" {
		lang = DefaultLanguage
	}

	s := r.open(ws, lang)
	defer r.release(s.ID)

	logger.Info("Starting voice call session", zap.String("sessionId", s.ID), zap.String("language", lang))
	s.send(MsgAIResponse, greetingFor(lang))
	s.listen(ws.Request().Context())
	logger.Info("Voice call session ended", zap.String("sessionId", s.ID))
}

func (r *Relay) open(ws *websocket.Conn, lang string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Language:  lang,
		StartTime: r.now(),
		conn:      ws,
		relay:     r,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Relay) release(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// SessionInfo describes an active call.
type SessionInfo struct {
	SessionID       string  `json:"session_id"`
	StartTime       string  `json:"start_time"`
	Language        string  `json:"language"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// ActiveSessions lists current calls, oldest first.
func (r *Relay) ActiveSessions() []SessionInfo {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	slices.SortFunc(sessions, func(a, b *Session) int {
		return a.StartTime.Compare(b.StartTime)
	})

	now := r.now()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, SessionInfo{
			SessionID:       s.ID,
			StartTime:       s.StartTime.Format(time.RFC3339),
			Language:        s.Language,
			DurationMinutes: now.Sub(s.StartTime).Minutes(),
		})
	}
	return infos
}

func (r *Relay) handleSessions(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active_sessions": r.ActiveSessions()})
}

func (r *Relay) handleUpload(w http.ResponseWriter, req *http.Request) {
	lang := req.URL.Query().Get("language")
	if lang == "" {
		lang = DefaultLanguage
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	file, header, err := req.FormFile("audio_file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Could not read audio_file")
		return
	}

	text, err := r.transcribeFile(req.Context(), audio, header.Filename, lang)
	if err != nil {
		logger.Error("Voice processing failed", zap.String("file", header.Filename), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Voice processing failed")
		return
	}
	if text == "" {
		writeDetail(w, http.StatusBadRequest, "Could not understand audio")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"transcribed_text": text})
}

// transcribeSpeech wraps buffered PCM as WAV before transcription.
func (r *Relay) transcribeSpeech(ctx context.Context, pcm []byte, lang string) (string, error) {
	if len(pcm) < MinSpeechBytes {
		return "", ErrSpeechTooShort
	}
	return r.transcribeFile(ctx, EncodeWAV(pcm, SampleRate, Channels), "speech.wav", lang)
}

func (r *Relay) transcribeFile(ctx context.Context, audio []byte, fileName, lang string) (string, error) {
	if r.stt == nil {
		return "", ErrSpeechUnavailable
	}
	text, err := r.stt.Transcribe(ctx, audio, fileName, lang)
	return strings.TrimSpace(text), err
}

func (r *Relay) synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if r.tts == nil {
		return nil, ErrSpeechUnavailable
	}
	audio, err := r.tts.Synthesize(ctx, text, lang)
	if err == nil && len(audio) == 0 {
		err = errors.New("voice: empty audio")
	}
	return audio, err
}

func greetingFor(lang string) string {
	if lang == "hi" {
		return "नमस्ते! मैं कृषि सहायक हूँ। आप अपनी खेती की समस्या बता सकते हैं।"
	}
	return "Hello! I'm Krishi Sahayak. How can I help you with farming today?"
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
