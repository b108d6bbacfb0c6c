package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/memory"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// Outbound message types.
const (
	MsgAIResponse     = "ai_response"
	MsgAIAudio        = "ai_audio"
	MsgAudioReceived  = "audio_received"
	MsgTranscription  = "transcription"
	MsgSpeechTooShort = "speech_too_short"
	MsgNoSpeech       = "no_speech"
	MsgTTSError       = "tts_error"
	MsgPong           = "pong"
	MsgTimeout        = "timeout"
	MsgError          = "error"
)

// Inbound message types.
const (
	MsgAudioChunk = "audio_chunk"
	MsgEndSpeech  = "end_speech"
	MsgPing       = "ping"
	MsgEndCall    = "end_call"
)

// Message is every frame the server sends.
type Message struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

type clientMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// Session is one voice call. It is driven by a single goroutine, so the
// audio buffer and history need no locking.
type Session struct {
	ID        string
	Language  string
	StartTime time.Time

	conn     *websocket.Conn
	relay    *Relay
	audio    [][]byte
	buffered int
	history  []memory.Turn
}

func (s *Session) listen(ctx context.Context) {
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.relay.idleTimeout))

		var raw string
		if err := websocket.Message.Receive(s.conn, &raw); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.send(MsgTimeout, "No audio received")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			s.send(MsgError, "Invalid message")
			continue
		}

		switch msg.Type {
		case MsgAudioChunk:
			s.addChunk(msg.Audio)
		case MsgEndSpeech:
			s.completeSpeech(ctx)
		case MsgPing:
			s.send(MsgPong, "")
		case MsgEndCall:
			return
		}
	}
}

func (s *Session) addChunk(encoded string) {
	chunk, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		logger.Error("Failed to decode audio chunk", zap.String("sessionId", s.ID), zap.Error(err))
		s.send(MsgError, "Failed to process audio")
		return
	}

	if s.buffered+len(chunk) > s.relay.maxSpeech {
		logger.Error("Audio chunk exceeds speech buffer limit",
			zap.String("sessionId", s.ID), zap.Int("buffered", s.buffered), zap.Int("chunk", len(chunk)))
		s.send(MsgError, "Audio too long, please end speech and try again")
		return
	}

	s.audio = append(s.audio, chunk)
	s.buffered += len(chunk)
	s.send(MsgAudioReceived, "Processing...")
}

// drain joins the buffered chunks in arrival order and empties the buffer.
func (s *Session) drain() []byte {
	size := 0
	for _, c := range s.audio {
		size += len(c)
	}
	pcm := make([]byte, 0, size)
	for _, c := range s.audio {
		pcm = append(pcm, c...)
	}
	s.audio = nil
	s.buffered = 0
	return pcm
}

func (s *Session) completeSpeech(ctx context.Context) {
	text, err := s.relay.transcribeSpeech(ctx, s.drain(), s.Language)
	if errors.Is(err, ErrSpeechTooShort) {
		s.send(MsgSpeechTooShort, "Please speak longer")
		return
	}
	if err != nil {
		logger.Error("Transcription failed", zap.String("sessionId", s.ID), zap.Error(err))
	}
	if text == "" {
		s.send(MsgNoSpeech, "Could not understand speech")
		return
	}

	s.send(MsgTranscription, text)

	// The chat service logs agent failures; the answer is then the localized error text.
	answer, _ := s.relay.chat.Answer(ctx, text, s.Language, s.history)
	s.history = append(s.history, memory.UserTurn(text), memory.AssistantTurn(answer))
	s.send(MsgAIResponse, answer)

	audio, err := s.relay.synthesize(ctx, answer, s.Language)
	if err != nil {
		logger.Error("Speech synthesis failed", zap.String("sessionId", s.ID), zap.Error(err))
		s.send(MsgTTSError, "Could not generate speech")
		return
	}
	s.send(MsgAIAudio, base64.StdEncoding.EncodeToString(audio))
}

func (s *Session) send(msgType, content string) {
	msg := Message{
		Type:      msgType,
		Content:   content,
		Timestamp: s.relay.now().Format(time.RFC3339),
		SessionID: s.ID,
	}
	if err := websocket.JSON.Send(s.conn, msg); err != nil {
		logger.Error("Failed to send voice message", zap.String("sessionId", s.ID), zap.String("type", msgType), zap.Error(err))
	}
}
