package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnifiedResponse(t *testing.T) {
	tests := []struct {
		name              string
		response          string
		expectedContent   string
		expectedToolCount int
		expectedToolName  string
		expectError       bool
	}{
		{
			name: "Valid tool use response",
			response: `{
				"action": "use_tools",
				"tool_calls": [
					{
						"function": {
							"name": "get_weather_forecast",
							"arguments": {"location": "Hisar"}
						},
						"reasoning": "Farmer asked about rain"
					}
				]
			}`,
			expectedToolCount: 1,
			expectedToolName:  "get_weather_forecast",
		},
		{
			name: "Valid direct answer response",
			response: `{
				"action": "direct_answer",
				"content": "Irrigate wheat at crown root initiation."
			}`,
			expectedContent: "Irrigate wheat at crown root initiation.",
		},
		{
			name: "Multiple tool calls",
			response: `{
				"action": "use_tools",
				"tool_calls": [
					{"function": {"name": "get_market_prices", "arguments": {"crop": "Wheat"}}},
					{"function": {"name": "get_weather_forecast", "arguments": {"location": "Karnal"}}}
				]
			}`,
			expectedToolCount: 2,
			expectedToolName:  "get_market_prices",
		},
		{
			name: "Response with extra text",
			response: `Here is my response:

			{"action": "direct_answer", "content": "Use drip irrigation."}

			Done.`,
			expectedContent: "Use drip irrigation.",
		},
		{
			name:        "Invalid JSON",
			response:    `{"invalid": json}`,
			expectError: true,
		},
		{
			name:        "No JSON found",
			response:    `This is just plain text without any JSON.`,
			expectError: true,
		},
		{
			name:        "Unknown action",
			response:    `{"action": "dance"}`,
			expectError: true,
		},
		{
			name:        "Direct answer without content",
			response:    `{"action": "direct_answer"}`,
			expectError: true,
		},
		{
			name:        "Use tools without calls",
			response:    `{"action": "use_tools", "tool_calls": []}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toolCalls, content, err := ParseUnifiedResponse(tt.response)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedOutput))
				return
			}

			require.NoError(t, err)
			assert.Len(t, toolCalls, tt.expectedToolCount)
			assert.Equal(t, tt.expectedContent, content)
			if tt.expectedToolCount > 0 {
				assert.Equal(t, tt.expectedToolName, toolCalls[0].Function.Name)
				assert.NotNil(t, toolCalls[0].Function.Arguments)
			}
		})
	}
}

type scriptedClient struct {
	replies  []string
	calls    int
	lastOpts LLMSettings
}

func (s *scriptedClient) GenerateInference(ctx context.Context, messages []Message, callback func(string) error, opts ...LLMOption) error {
	s.lastOpts = defaultSettings("scripted")
	for _, opt := range opts {
		opt(&s.lastOpts)
	}
	reply := s.replies[s.calls]
	s.calls++
	return callback(reply)
}

func (s *scriptedClient) GenerateInferenceWithTools(ctx context.Context, messages []Message, contentCallback func(string) error, toolCallback func([]api.ToolCall) error, opts ...LLMOption) error {
	return errors.New("not supported")
}

func (s *scriptedClient) Capabilities() Capability { return 0 }

func (s *scriptedClient) GetModel() string { return "scripted" }

func TestUnifiedToolClient(t *testing.T) {
	tools := []api.Tool{{
		Type: "function",
		Function: api.ToolFunction{
			Name:        "get_uv_index",
			Description: "UV index for a location",
		},
	}}

	t.Run("tool call", func(t *testing.T) {
		base := &scriptedClient{replies: []string{`{"action":"use_tools","tool_calls":[{"function":{"name":"get_uv_index","arguments":{"location":"Pune"}}}]}`}}
		client := NewUnifiedToolClient(base)

		var got []api.ToolCall
		err := client.GenerateInferenceWithTools(context.Background(), []Message{{Role: RoleUser, Content: "uv?"}},
			func(string) error { t.Fatal("unexpected content"); return nil },
			func(calls []api.ToolCall) error { got = calls; return nil },
			WithTools(tools), WithSystemPrompt("You help farmers."))

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Pune", got[0].Function.Arguments["location"])
		assert.Contains(t, base.lastOpts.system, "You help farmers.")
		assert.Contains(t, base.lastOpts.system, "get_uv_index: UV index for a location")
		assert.Empty(t, base.lastOpts.tools)
	})

	t.Run("malformed reply", func(t *testing.T) {
		base := &scriptedClient{replies: []string{"sure, let me check"}}
		client := NewUnifiedToolClient(base)

		err := client.GenerateInferenceWithTools(context.Background(), nil,
			func(string) error { return nil },
			func([]api.ToolCall) error { return nil },
			WithTools(tools))

		assert.ErrorIs(t, err, ErrMalformedOutput)
	})

	t.Run("no tools falls through", func(t *testing.T) {
		base := &scriptedClient{replies: []string{"plain answer"}}
		client := NewUnifiedToolClient(base)

		var content string
		err := client.GenerateInferenceWithTools(context.Background(), nil,
			func(c string) error { content = c; return nil },
			func([]api.ToolCall) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, "plain answer", content)
	})
}

func TestDescribeTools(t *testing.T) {
	tool := api.Tool{Type: "function"}
	tool.Function.Name = "get_market_prices"
	tool.Function.Description = "Mandi prices"
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Required = []string{"crop"}
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"crop":  {Type: api.PropertyType{"string"}},
		"state": {Type: api.PropertyType{"string"}},
	}

	desc := describeTools([]api.Tool{tool})

	require.Len(t, desc, 1)
	assert.Equal(t, "get_market_prices: Mandi prices (parameters: crop:string (required), state:string)", desc[0])
}
