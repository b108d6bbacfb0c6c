package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/SaiNageswarS/krishi-boot/prompts"
	"github.com/ollama/ollama/api"
)

// UnifiedToolClient adds tool calling to models that lack it natively. The
// model is asked to reply with a single JSON object that either answers
// directly or lists the tools to call.
type UnifiedToolClient struct {
	base LLMClient
}

func NewUnifiedToolClient(base LLMClient) *UnifiedToolClient {
	return &UnifiedToolClient{base: base}
}

func (c *UnifiedToolClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *UnifiedToolClient) GetModel() string {
	return c.base.GetModel()
}

func (c *UnifiedToolClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	return c.base.GenerateInference(ctx, messages, callback, opts...)
}

func (c *UnifiedToolClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...LLMOption,
) error {
	settings := defaultSettings(c.base.GetModel())
	for _, opt := range opts {
		opt(&settings)
	}

	// If no tools are provided, use regular inference
	if len(settings.tools) == 0 {
		return c.base.GenerateInference(ctx, messages, contentCallback, opts...)
	}

	systemPrompt, err := prompts.RenderToolProtocolPrompt(settings.system, describeTools(settings.tools))
	if err != nil {
		return fmt.Errorf("error rendering tool protocol prompt: %w", err)
	}

	var reply strings.Builder
	err = c.base.GenerateInference(ctx, messages,
		func(chunk string) error {
			reply.WriteString(chunk)
			return nil
		},
		append(opts, WithSystemPrompt(systemPrompt), WithTools(nil))...)
	if err != nil {
		return err
	}

	toolCalls, content, err := ParseUnifiedResponse(reply.String())
	if err != nil {
		return err
	}
	if len(toolCalls) > 0 {
		return toolCallback(toolCalls)
	}
	return contentCallback(content)
}

// ParseUnifiedResponse extracts either tool calls or a direct answer from a
// unified protocol reply. Anything else is reported as ErrMalformedOutput.
func ParseUnifiedResponse(response string) ([]api.ToolCall, string, error) {
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		return nil, "", fmt.Errorf("%w: no valid JSON found in response", ErrMalformedOutput)
	}

	var unified unifiedInferenceResponse
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &unified); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	switch unified.Action {
	case "direct_answer":
		if strings.TrimSpace(unified.Content) == "" {
			return nil, "", fmt.Errorf("%w: direct_answer without content", ErrMalformedOutput)
		}
		return nil, unified.Content, nil

	case "use_tools":
		if len(unified.ToolCalls) == 0 {
			return nil, "", fmt.Errorf("%w: use_tools without tool calls", ErrMalformedOutput)
		}

		toolCalls := make([]api.ToolCall, len(unified.ToolCalls))
		for i, tc := range unified.ToolCalls {
			args := tc.Function.Arguments
			if args == nil {
				args = map[string]any{}
			}
			toolCalls[i] = api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: args,
				},
			}
		}
		return toolCalls, "", nil

	default:
		return nil, "", fmt.Errorf("%w: unknown action %q", ErrMalformedOutput, unified.Action)
	}
}

// describeTools renders "name: description (parameters: p:type (required), ...)".
func describeTools(tools []api.Tool) []string {
	out := make([]string, len(tools))
	for i, tool := range tools {
		names := make([]string, 0, len(tool.Function.Parameters.Properties))
		for name := range tool.Function.Parameters.Properties {
			names = append(names, name)
		}
		slices.Sort(names)

		params := make([]string, 0, len(names))
		for _, name := range names {
			prop := tool.Function.Parameters.Properties[name]
			paramType := "string"
			if len(prop.Type) > 0 {
				paramType = prop.Type[0]
			}

			p := fmt.Sprintf("%s:%s", name, paramType)
			if slices.Contains(tool.Function.Parameters.Required, name) {
				p += " (required)"
			}
			params = append(params, p)
		}

		desc := fmt.Sprintf("%s: %s", tool.Function.Name, tool.Function.Description)
		if len(params) > 0 {
			desc += fmt.Sprintf(" (parameters: %s)", strings.Join(params, ", "))
		}
		out[i] = desc
	}
	return out
}

type unifiedInferenceResponse struct {
	Action    string `json:"action"` // "use_tools" or "direct_answer"
	Content   string `json:"content,omitempty"`
	ToolCalls []struct {
		Function struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"function"`
		Reasoning string `json:"reasoning"`
	} `json:"tool_calls,omitempty"`
}
