package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSummaryClient struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
}

func (m *mockSummaryClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(string) error, opts ...llm.LLMOption) error {
	m.calls++
	m.messages = messages
	if m.err != nil {
		return m.err
	}
	return callback(m.reply)
}

func (m *mockSummaryClient) GenerateInferenceWithTools(ctx context.Context, messages []llm.Message, contentCallback func(string) error, toolCallback func([]api.ToolCall) error, opts ...llm.LLMOption) error {
	return errors.New("not implemented")
}

func (m *mockSummaryClient) Capabilities() llm.Capability { return 0 }

func (m *mockSummaryClient) GetModel() string { return DefaultSummaryModel }

func alternatingHistory(n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		turns[i] = Turn{Role: role, Content: fmt.Sprintf("message %d", i)}
	}
	return turns
}

func TestGetContextForAI_EmptyHistory(t *testing.T) {
	client := &mockSummaryClient{reply: "unused"}
	s := NewContextSummarizer(client)

	assert.Equal(t, BeginningOfConversation, s.GetContextForAI(context.Background(), nil))
	assert.Equal(t, BeginningOfConversation, s.GetContextForAI(context.Background(), []Turn{}))
	assert.Equal(t, 0, client.calls)
}

func TestGetContextForAI_Threshold(t *testing.T) {
	t.Run("nine turns keep the last six verbatim", func(t *testing.T) {
		client := &mockSummaryClient{reply: "unused"}
		s := NewContextSummarizer(client)

		block := s.GetContextForAI(context.Background(), alternatingHistory(9))

		assert.Equal(t, 0, client.calls)
		require.True(t, strings.HasPrefix(block, RecentConversationPrefix))
		lines := strings.Split(strings.TrimPrefix(block, RecentConversationPrefix), "\n")
		assert.Equal(t, []string{
			"assistant: message 3",
			"user: message 4",
			"assistant: message 5",
			"user: message 6",
			"assistant: message 7",
			"user: message 8",
		}, lines)
	})

	t.Run("short history is not padded", func(t *testing.T) {
		s := NewContextSummarizer(nil)

		block := s.GetContextForAI(context.Background(), alternatingHistory(2))

		assert.Equal(t, RecentConversationPrefix+"user: message 0\nassistant: message 1", block)
	})

	t.Run("ten turns invoke the summarizer", func(t *testing.T) {
		client := &mockSummaryClient{reply: "**Farmer Profile:**\n- Name: Not specified"}
		s := NewContextSummarizer(client)

		block := s.GetContextForAI(context.Background(), alternatingHistory(10))

		assert.Equal(t, 1, client.calls)
		assert.Equal(t, "**Farmer Profile:**\n- Name: Not specified", block)

		require.Len(t, client.messages, 1)
		assert.Equal(t, llm.RoleUser, client.messages[0].Role)
		assert.Contains(t, client.messages[0].Content, "user: message 0\nassistant: message 1")
		assert.Contains(t, client.messages[0].Content, "assistant: message 9")
	})
}

func TestGetContextForAI_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		client llm.LLMClient
	}{
		{"model error", &mockSummaryClient{err: errors.New("connection reset")}},
		{"empty summary", &mockSummaryClient{reply: "   "}},
		{"no model", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewContextSummarizer(tt.client)

			block := s.GetContextForAI(context.Background(), alternatingHistory(12))

			expected := RecentConversationPrefix + FormatTurns(alternatingHistory(12)[6:])
			assert.Equal(t, expected, block)
		})
	}
}

func TestGetContextForAI_Options(t *testing.T) {
	client := &mockSummaryClient{reply: "summary"}
	s := NewContextSummarizer(client, WithSummarizeThreshold(4), WithRecentTurns(2), WithSummaryModel("other-model"))

	block := s.GetContextForAI(context.Background(), alternatingHistory(3))
	assert.Equal(t, RecentConversationPrefix+"assistant: message 1\nuser: message 2", block)
	assert.Equal(t, 0, client.calls)

	assert.Equal(t, "summary", s.GetContextForAI(context.Background(), alternatingHistory(4)))
	assert.Equal(t, "other-model", s.model)

	// non-positive values keep the defaults
	d := NewContextSummarizer(nil, WithSummarizeThreshold(0), WithRecentTurns(-1), WithSummaryModel(""))
	assert.Equal(t, DefaultSummarizeThreshold, d.summarizeThreshold)
	assert.Equal(t, DefaultRecentTurns, d.recentTurns)
	assert.Equal(t, DefaultSummaryModel, d.model)
}

func TestGetContextForAI_HaryanaWheatScenario(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "Namaste, I am Ramesh from Hisar, Haryana."},
		{Role: "assistant", Content: "Namaste Ramesh! How can I help your farm today?"},
		{Role: "user", Content: "I have sown wheat on 5 acres."},
		{Role: "assistant", Content: "When did you sow it?"},
		{Role: "user", Content: "In the second week of November."},
		{Role: "assistant", Content: "Then crown root initiation is around 21 days after sowing."},
		{Role: "user", Content: "How much water should I give at that stage?"},
		{Role: "assistant", Content: "A light irrigation of about 6 cm is enough."},
		{Role: "user", Content: "The canal water comes only once a week."},
		{Role: "assistant", Content: "Plan the first irrigation on the canal day closest to 21 days."},
		{Role: "user", Content: "Should I irrigate before the cold wave?"},
	}

	// The scripted model extracts the fields present in the prompt it receives.
	client := &summaryEchoClient{}
	s := NewContextSummarizer(client)

	block := s.GetContextForAI(context.Background(), history)

	require.Equal(t, 1, client.calls)
	assert.NotEmpty(t, block)
	assert.Contains(t, block, "**Farmer Profile:**")
	assert.Contains(t, block, "- Location: Hisar, Haryana")
	assert.Contains(t, block, "- Crops: wheat")
	assert.Contains(t, block, "**Conversation Summary:**")
}

type summaryEchoClient struct {
	mockSummaryClient
}

func (c *summaryEchoClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(string) error, opts ...llm.LLMOption) error {
	c.calls++
	prompt := messages[0].Content

	location, crops := "Not specified", "Not specified"
	if strings.Contains(prompt, "Hisar, Haryana") {
		location = "Hisar, Haryana"
	}
	if strings.Contains(prompt, "wheat") {
		crops = "wheat"
	}

	return callback(fmt.Sprintf("**Farmer Profile:**\n- Name: Ramesh\n- Location: %s\n- Crops: %s\n- Primary Concerns: irrigation timing\n\n**Conversation Summary:**\nThe farmer wants to schedule wheat irrigation.", location, crops))
}
