package memory

import (
	"context"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/SaiNageswarS/krishi-boot/prompts"
	"go.uber.org/zap"
)

const (
	BeginningOfConversation  = "This is the beginning of the conversation."
	RecentConversationPrefix = "This is a recent conversation. Here are the last few messages:\n"

	DefaultSummarizeThreshold = 10
	DefaultRecentTurns        = 6
	DefaultSummaryModel       = "llama-3.1-8b-instant"
	summaryTemperature        = 0.1
)

// ContextSummarizer condenses a conversation history into the context block
// injected into the agent prompt. Short histories are kept verbatim, long
// ones are summarized into a farmer profile by a small model.
type ContextSummarizer struct {
	client             llm.LLMClient
	model              string
	summarizeThreshold int
	recentTurns        int
}

type SummarizerOption func(*ContextSummarizer)

// WithSummarizeThreshold sets the history length at which the model summary is used.
func WithSummarizeThreshold(n int) SummarizerOption {
	return func(s *ContextSummarizer) {
		if n > 0 {
			s.summarizeThreshold = n
		}
	}
}

// WithRecentTurns sets how many trailing turns are kept verbatim.
func WithRecentTurns(n int) SummarizerOption {
	return func(s *ContextSummarizer) {
		if n > 0 {
			s.recentTurns = n
		}
	}
}

func WithSummaryModel(model string) SummarizerOption {
	return func(s *ContextSummarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// NewContextSummarizer accepts a nil client; long histories then fall back
// to the recent-turns block.
func NewContextSummarizer(client llm.LLMClient, opts ...SummarizerOption) *ContextSummarizer {
	s := &ContextSummarizer{
		client:             client,
		model:              DefaultSummaryModel,
		summarizeThreshold: DefaultSummarizeThreshold,
		recentTurns:        DefaultRecentTurns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContextForAI never fails. Summarization errors are logged and answered
// with the recent-turns block.
func (s *ContextSummarizer) GetContextForAI(ctx context.Context, history []Turn) string {
	if len(history) == 0 {
		return BeginningOfConversation
	}

	if len(history) < s.summarizeThreshold {
		return s.recentContext(history)
	}

	summary, err := s.summarize(ctx, history)
	if err != nil {
		logger.Error("Failed to summarize chat history, using recent turns",
			zap.Int("turns", len(history)), zap.Error(err))
		return s.recentContext(history)
	}

	return summary
}

func (s *ContextSummarizer) recentContext(history []Turn) string {
	start := max(len(history)-s.recentTurns, 0)
	return RecentConversationPrefix + FormatTurns(history[start:])
}

func (s *ContextSummarizer) summarize(ctx context.Context, history []Turn) (string, error) {
	if s.client == nil {
		return "", errNoSummaryModel
	}

	prompt, err := prompts.RenderContextSummaryPrompt(FormatTurns(history))
	if err != nil {
		return "", err
	}

	logger.Info("Summarizing chat history", zap.Int("turns", len(history)), zap.String("model", s.model))

	var summary strings.Builder
	err = s.client.GenerateInference(ctx,
		[]llm.Message{{Role: llm.RoleUser, Content: prompt}},
		func(chunk string) error {
			summary.WriteString(chunk)
			return nil
		},
		llm.WithLLMModel(s.model),
		llm.WithTemperature(summaryTemperature),
	)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(summary.String()) == "" {
		return "", errEmptySummary
	}

	return summary.String(), nil
}
