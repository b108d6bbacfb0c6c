package services

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/agentboot"
	"github.com/SaiNageswarS/krishi-boot/language"
	"github.com/SaiNageswarS/krishi-boot/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Answerer runs the agent for one invocation. *agentboot.Agent implements it.
type Answerer interface {
	Execute(ctx context.Context, reporter agentboot.ProgressReporter, inv *agentboot.Invocation) (*agentboot.AgentResult, error)
}

// HistoryItem is one prior turn as sent by clients. Timestamps are opaque
// strings since browsers send them in several formats.
type HistoryItem struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ChatRequest struct {
	Message     string        `json:"message"`
	ChatHistory []HistoryItem `json:"chat_history"`
	SessionID   string        `json:"session_id,omitempty"`
	Language    string        `json:"language,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChatReply is the outcome of one chat request. Text is always set, also
// when the agent failed.
type ChatReply struct {
	Text      string
	Language  string
	SessionID string
	Result    *agentboot.AgentResult
}

// ChatService turns farmer messages into answers. Without an agent it runs
// in unavailable mode and answers from the keyword fallback table.
type ChatService struct {
	agent      Answerer
	summarizer *memory.ContextSummarizer
	languages  *language.Resolver
	composer   *Composer
	archive    *memory.ConversationManager
}

// ProvideChatService accepts a nil agent, summarizer or archive. Pass a nil
// interface, not a typed nil pointer, to select unavailable mode.
func ProvideChatService(agent Answerer, summarizer *memory.ContextSummarizer, languages *language.Resolver, archive *memory.ConversationManager) *ChatService {
	return &ChatService{
		agent:      agent,
		summarizer: summarizer,
		languages:  languages,
		composer:   NewComposer(languages),
		archive:    archive,
	}
}

func (s *ChatService) Available() bool {
	return s.agent != nil
}

func (s *ChatService) Languages() *language.Resolver {
	return s.languages
}

func (s *ChatService) Archive() *memory.ConversationManager {
	return s.archive
}

// Process answers one request. A non-nil error means the agent failed; the
// reply then carries the localized error template and is still safe to send.
func (s *ChatService) Process(ctx context.Context, req *ChatRequest, reporter agentboot.ProgressReporter) (*ChatReply, error) {
	reply := &ChatReply{
		Language:  s.languages.ResolveRequested(req.Language, req.Message),
		SessionID: req.SessionID,
	}
	if reply.SessionID == "" {
		reply.SessionID = uuid.NewString()
	}

	if !s.Available() {
		reply.Text = FallbackResponse(s.languages, req.Message, reply.Language)
		return reply, nil
	}

	// Greetings are answered without a model call, so skip summarizing too.
	contextBlock := memory.BeginningOfConversation
	if s.summarizer != nil && !agentboot.IsGreeting(req.Message) {
		contextBlock = s.summarizer.GetContextForAI(ctx, toTurns(req.ChatHistory))
	}

	result, err := s.agent.Execute(ctx, reporter, &agentboot.Invocation{
		Input:        req.Message,
		Language:     reply.Language,
		ContextBlock: contextBlock,
	})
	if err != nil {
		logger.Error("Agent failed to answer", zap.String("sessionId", reply.SessionID), zap.Error(err))
		reply.Text = s.languages.Template(reply.Language, "error")
		return reply, err
	}

	reply.Result = result
	reply.Text = s.composer.Compose(result.FinalText, reply.Language, "")

	// Only client supplied sessions are archived.
	if err := s.archive.AppendExchange(ctx, req.SessionID, reply.Language, req.Message, reply.Text); err != nil {
		logger.Error("Failed to archive exchange", zap.String("sessionId", reply.SessionID), zap.Error(err))
	}

	logger.Info("Answered chat request",
		zap.String("sessionId", reply.SessionID),
		zap.String("language", reply.Language),
		zap.String("state", string(result.State)),
		zap.Strings("toolsUsed", result.ToolsUsed))
	return reply, nil
}

// Answer is the plain-text entry point used by the voice relay and the CLI.
func (s *ChatService) Answer(ctx context.Context, message, lang string, history []memory.Turn) (string, error) {
	req := &ChatRequest{
		Message:     message,
		Language:    lang,
		ChatHistory: make([]HistoryItem, 0, len(history)),
	}
	for _, t := range history {
		req.ChatHistory = append(req.ChatHistory, HistoryItem{Role: t.Role, Content: t.Content})
	}

	reply, err := s.Process(ctx, req, nil)
	return reply.Text, err
}

func toTurns(items []HistoryItem) []memory.Turn {
	turns := make([]memory.Turn, 0, len(items))
	for _, h := range items {
		turn := memory.Turn{Role: h.Role, Content: h.Content}
		if ts, err := time.Parse(time.RFC3339, h.Timestamp); err == nil {
			turn.Timestamp = ts
		}
		turns = append(turns, turn)
	}
	return turns
}
