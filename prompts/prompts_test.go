package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderContextSummaryPrompt(t *testing.T) {
	history := "user: I grow wheat in Hisar, Haryana\nassistant: When did you sow it?"

	prompt, err := RenderContextSummaryPrompt(history)
	require.NoError(t, err)

	for _, expected := range []string{
		"**Farmer Profile:**",
		"- Location: [Farmer's state and district]",
		"- Crops: [Crops mentioned]",
		"**Conversation Summary:**",
		"'Not specified'",
		history,
	} {
		assert.Contains(t, prompt, expected)
	}
}

func TestRenderLanguageDirective(t *testing.T) {
	directive, err := RenderLanguageDirective("हिंदी (Hindi)", "hi")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(directive, "Always respond in हिंदी (Hindi) language (language code: hi)."))
	assert.Contains(t, directive, "Remember: Always respond in हिंदी (Hindi) language only.")
}

func TestRenderAgentSystemPrompt(t *testing.T) {
	t.Run("with tools and context", func(t *testing.T) {
		prompt, err := RenderAgentSystemPrompt(AgentSystemPromptData{
			LanguageDirective: "Always respond in English language (language code: en).\n",
			ContextBlock:      "This is a recent conversation. Here are the last few messages:\nuser: hi",
			Tools:             []string{"get_weather_forecast", "get_market_prices"},
		})
		require.NoError(t, err)

		assert.Contains(t, prompt, "Krishi Sahayak AI")
		assert.Contains(t, prompt, "Available tools: get_weather_forecast, get_market_prices")
		assert.Contains(t, prompt, "Always respond in English language (language code: en).\n\nCONVERSATION CONTEXT:")
		assert.True(t, strings.HasSuffix(prompt, "user: hi\n"))
	})

	t.Run("empty context defaults to beginning marker", func(t *testing.T) {
		prompt, err := RenderAgentSystemPrompt(AgentSystemPromptData{})
		require.NoError(t, err)

		assert.NotContains(t, prompt, "Available tools:")
		assert.Contains(t, prompt, "CONVERSATION CONTEXT:\nThis is the beginning of the conversation.")
	})
}

func TestRenderToolProtocolPrompt(t *testing.T) {
	prompt, err := RenderToolProtocolPrompt("  You help farmers.  ", []string{
		"get_uv_index: UV index (parameters: location:string (required))",
		"get_current_datetime: Date and time",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You help farmers.\n\nYou can use the following tools:"))
	assert.Contains(t, prompt, "\n- get_uv_index: UV index (parameters: location:string (required))")
	assert.Contains(t, prompt, `"action": "use_tools"`)
	assert.Contains(t, prompt, `"action": "direct_answer"`)

	withoutSystem, err := RenderToolProtocolPrompt("", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(withoutSystem, "You can use the following tools:"))
}

func TestRenderParseCorrection(t *testing.T) {
	prompt, err := RenderParseCorrection("unknown tool \"get_rain\"", []string{"get_weather_forecast"})
	require.NoError(t, err)

	assert.Contains(t, prompt, `Your previous reply could not be used: unknown tool "get_rain".`)
	assert.Contains(t, prompt, "The only tools you may call are: get_weather_forecast.")
}

func TestRenderForcedAnswer(t *testing.T) {
	first, err := RenderForcedAnswer()
	require.NoError(t, err)
	second, err := RenderForcedAnswer()
	require.NoError(t, err)

	assert.Contains(t, first, "cannot call any more tools")
	assert.Equal(t, first, second)
}

func TestRenderFarmAdvisoryPrompt(t *testing.T) {
	prompt, err := RenderFarmAdvisoryPrompt("You are Krishi Sahayak AI.\n", "  Should I irrigate wheat this week? ", "English")
	require.NoError(t, err)

	assert.Equal(t, "You are Krishi Sahayak AI.\n\nFARMER QUESTION:\nShould I irrigate wheat this week?\n\nCall the farm tools you need first, then answer in English.\n", prompt)
}
