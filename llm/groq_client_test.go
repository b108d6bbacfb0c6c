package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroqClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("GROQ_API_KEY", "test-key")
	client, err := NewGroqClient("llama-3.3-70b-versatile", WithGroqURL(server.URL+"/openai/v1/chat/completions"))
	require.NoError(t, err)
	return client
}

func writeGroqResponse(w http.ResponseWriter, msg groqMessage) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groqResponse{Choices: []groqChoice{{Message: msg}}})
}

func TestNewGroqClient(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "")
		client, err := NewGroqClient("llama-3.3-70b-versatile")
		assert.Nil(t, client)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("key set", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "test-key")
		client, err := NewGroqClient("llama-3.3-70b-versatile")
		require.NoError(t, err)
		assert.Equal(t, "llama-3.3-70b-versatile", client.GetModel())
	})
}

func TestGroqClientCapabilities(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	tests := []struct {
		model        string
		capabilities Capability
	}{
		{"llama-3.3-70b-versatile", NativeToolCalling},
		{"llama-3.1-8b-instant", NativeToolCalling},
		{"openai/gpt-oss-20b", NativeToolCalling},
		{"openai/gpt-oss-120b", NativeToolCalling},
		{"meta-llama/llama-4-scout-17b-16e-instruct", NativeToolCalling},
		{"some-unsupported-model", Capability(0)},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client, err := NewGroqClient(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.capabilities, client.Capabilities())
		})
	}
}

func TestGroqClientGenerateInference(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Empty(t, request.Tools)
		assert.Empty(t, request.ToolChoice)

		writeGroqResponse(w, groqMessage{Content: "Sow mustard after the first week of October."})
	})

	var result string
	err := client.GenerateInference(context.Background(), []Message{{Role: RoleUser, Content: "When to sow mustard?"}},
		func(chunk string) error {
			result = chunk
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "Sow mustard after the first week of October.", result)
}

func TestGroqClientGenerateInferenceWithTools(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		var request groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Tools, 1)
		assert.Equal(t, "auto", request.ToolChoice)

		writeGroqResponse(w, groqMessage{
			ToolCalls: []groqToolCall{
				{
					ID:   "call_123",
					Type: "function",
					Function: groqToolCallFunction{
						Name:      "get_market_prices",
						Arguments: `{"crop": "Wheat", "state": "Punjab"}`,
					},
				},
				{
					ID:       "call_124",
					Type:     "function",
					Function: groqToolCallFunction{Name: "get_current_datetime"},
				},
			},
		})
	})

	tools := []api.Tool{
		{
			Function: api.ToolFunction{
				Name:        "get_market_prices",
				Description: "Current mandi prices",
			},
		},
	}

	var toolCalls []api.ToolCall
	err := client.GenerateInferenceWithTools(
		context.Background(),
		[]Message{{Role: RoleUser, Content: "Wheat price in Punjab?"}},
		func(chunk string) error { return nil },
		func(calls []api.ToolCall) error {
			toolCalls = calls
			return nil
		},
		WithTools(tools),
	)

	require.NoError(t, err)
	require.Len(t, toolCalls, 2)
	assert.Equal(t, "get_market_prices", toolCalls[0].Function.Name)
	assert.Equal(t, "Wheat", toolCalls[0].Function.Arguments["crop"])
	assert.NotNil(t, toolCalls[1].Function.Arguments)
	assert.Empty(t, toolCalls[1].Function.Arguments)
}

func TestGroqClientMalformedOutput(t *testing.T) {
	t.Run("tool_use_failed", func(t *testing.T) {
		client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Failed to call a function","type":"invalid_request_error","code":"tool_use_failed"}}`))
		})

		err := client.GenerateInferenceWithTools(context.Background(), nil,
			func(string) error { return nil },
			func([]api.ToolCall) error { return nil })
		assert.ErrorIs(t, err, ErrMalformedOutput)
	})

	t.Run("broken arguments", func(t *testing.T) {
		client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeGroqResponse(w, groqMessage{
				ToolCalls: []groqToolCall{{Function: groqToolCallFunction{Name: "get_soil_health", Arguments: `{"location": `}}},
			})
		})

		err := client.GenerateInferenceWithTools(context.Background(), nil,
			func(string) error { return nil },
			func([]api.ToolCall) error { return nil })
		assert.ErrorIs(t, err, ErrMalformedOutput)
	})

	t.Run("other failures are not malformed output", func(t *testing.T) {
		client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","code":"rate_limit_exceeded"}}`))
		})

		err := client.GenerateInference(context.Background(), nil, func(string) error { return nil })
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformedOutput)
		assert.Contains(t, err.Error(), "429")
	})
}

func TestConvertToolsToGroqFormat(t *testing.T) {
	tools := []api.Tool{
		{
			Function: api.ToolFunction{
				Name:        "get_weather_forecast",
				Description: "Five day forecast",
			},
		},
	}

	groqTools := convertToolsToGroqFormat(tools)

	require.Len(t, groqTools, 1)
	assert.Equal(t, "function", groqTools[0].Type)
	assert.Equal(t, "get_weather_forecast", groqTools[0].Function.Name)
	assert.Equal(t, "Five day forecast", groqTools[0].Function.Description)
	assert.Nil(t, convertToolsToGroqFormat(nil))
}

func TestGroqClientWithSystemPrompt(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		var request groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		require.Len(t, request.Messages, 2)
		assert.Equal(t, RoleSystem, request.Messages[0].Role)
		assert.Equal(t, "You are a farm advisor", request.Messages[0].Content)
		assert.Equal(t, RoleUser, request.Messages[1].Role)
		assert.Equal(t, 0.1, request.Temperature)

		writeGroqResponse(w, groqMessage{Content: "Namaste! How can I help your farm?"})
	})

	var result string
	err := client.GenerateInference(context.Background(), []Message{{Role: RoleUser, Content: "Hello"}},
		func(chunk string) error {
			result = chunk
			return nil
		}, WithSystemPrompt("You are a farm advisor"), WithTemperature(0.1))

	require.NoError(t, err)
	assert.Equal(t, "Namaste! How can I help your farm?", result)
}
