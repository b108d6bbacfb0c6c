package agentboot

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/SaiNageswarS/krishi-boot/prompts"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const ClarificationMessage = "I'm sorry, I couldn't understand how to handle that request. Could you please rephrase it or add a few more details?"

type thought struct {
	text  string
	calls []api.ToolCall
}

// Execute runs the bounded control loop for one invocation. Hitting the
// iteration or time cap is not an error: the result is ABORTED and carries a
// best-effort answer. Model failures other than malformed output are returned.
func (a *Agent) Execute(ctx context.Context, reporter ProgressReporter, inv *Invocation) (*AgentResult, error) {
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}

	profile := a.config.Languages.Resolve(inv.Language)
	result := &AgentResult{Trace: []ToolTrace{}, ToolsUsed: []string{}}

	if IsGreeting(inv.Input) {
		return a.finish(reporter, result, StateFinal, a.config.Languages.Template(profile.Code, "greeting")), nil
	}

	maxIterations := a.config.MaxIterations
	if inv.MaxIterations > 0 {
		maxIterations = inv.MaxIterations
	}
	maxExecutionTime := a.config.MaxExecutionTime
	if inv.MaxExecutionTime > 0 {
		maxExecutionTime = inv.MaxExecutionTime
	}

	ctx, cancel := context.WithTimeout(ctx, maxExecutionTime)
	defer cancel()

	system, err := a.systemPrompt(profile.Name, profile.Code, inv.ContextBlock)
	if err != nil {
		reporter.Send(NewStreamError(err.Error(), "prompt_rendering_failed"))
		return nil, err
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: inv.Input}}
	state := StateThinking
	recovered := false
	var pending []api.ToolCall
	var parseReason string

	for {
		reporter.Send(NewStateChange(state, ""))

		switch state {
		case StateThinking:
			if ctx.Err() != nil {
				logger.Error("Agent hit its time budget", zap.Duration("budget", maxExecutionTime), zap.Int("iterations", result.Iterations))
				return a.abort(reporter, result, profile.Code), nil
			}
			if result.Iterations >= maxIterations {
				logger.Error("Agent hit its iteration cap", zap.Int("maxIterations", maxIterations))
				return a.abort(reporter, result, profile.Code), nil
			}

			forced := result.Iterations == maxIterations-1
			result.Iterations++

			out, err := a.think(ctx, system, messages, forced)
			switch {
			case err == nil:
			case errors.Is(err, llm.ErrMalformedOutput):
				parseReason = err.Error()
				state = StateParseErrorRecovery
				continue
			case ctx.Err() != nil:
				logger.Error("Agent hit its time budget during inference", zap.Error(err))
				return a.abort(reporter, result, profile.Code), nil
			default:
				logger.Error("Failed to run inference", zap.Error(err))
				reporter.Send(NewStreamError(err.Error(), "inference_failed"))
				return nil, err
			}

			if len(out.calls) > 0 {
				if forced {
					logger.Error("Model requested tools after the forced answer", zap.Int("calls", len(out.calls)))
					return a.abort(reporter, result, profile.Code), nil
				}
				if err := a.validateCalls(out.calls); err != nil {
					parseReason = err.Error()
					state = StateParseErrorRecovery
					continue
				}
				pending = out.calls
				state = StateToolCall
				continue
			}

			if strings.TrimSpace(out.text) == "" {
				parseReason = "the reply was empty"
				state = StateParseErrorRecovery
				continue
			}
			return a.finish(reporter, result, StateFinal, strings.TrimSpace(out.text)), nil

		case StateParseErrorRecovery:
			logger.Error("Model output could not be used", zap.String("reason", parseReason), zap.Bool("alreadyRecovered", recovered))
			if recovered {
				return a.finish(reporter, result, StateAborted, ClarificationMessage), nil
			}
			recovered = true

			correction, err := prompts.RenderParseCorrection(parseReason, a.config.Registry.Names())
			if err != nil {
				return nil, err
			}
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: correction})
			state = StateThinking

		case StateToolCall:
			traces := a.RunTools(ctx, reporter, pending)
			if ctx.Err() != nil {
				// finished past the deadline; observations are dropped
				logger.Error("Tool calls outlived the time budget", zap.Int("calls", len(traces)))
				return a.abort(reporter, result, profile.Code), nil
			}

			names := make([]string, len(traces))
			for i, trace := range traces {
				names[i] = trace.Name
				result.Trace = append(result.Trace, trace)
				if !slices.Contains(result.ToolsUsed, trace.Name) {
					result.ToolsUsed = append(result.ToolsUsed, trace.Name)
				}
			}

			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: "Calling tools: " + strings.Join(names, ", ")})
			for _, trace := range traces {
				messages = append(messages, llm.Message{Role: llm.RoleUser, Content: toolResultMessage(trace), IsToolResult: true})
			}
			pending = nil
			state = StateThinking
		}
	}
}

// think makes one model call. The forced call offers no tools and asks for a
// final answer from what has been gathered.
func (a *Agent) think(ctx context.Context, system string, messages []llm.Message, forced bool) (thought, error) {
	opts := []llm.LLMOption{
		llm.WithSystemPrompt(system),
		llm.WithMaxTokens(a.config.MaxTokens),
		llm.WithTemperature(a.config.Temperature),
	}

	if forced {
		instruction, err := prompts.RenderForcedAnswer()
		if err != nil {
			return thought{}, err
		}
		messages = append(slices.Clone(messages), llm.Message{Role: llm.RoleUser, Content: instruction})
	} else {
		opts = append(opts, llm.WithTools(a.config.Registry.APITools()))
	}

	var out thought
	var text strings.Builder
	err := a.model.GenerateInferenceWithTools(ctx, messages,
		func(chunk string) error {
			text.WriteString(chunk)
			return nil
		},
		func(calls []api.ToolCall) error {
			out.calls = append(out.calls, calls...)
			return nil
		},
		opts...)
	out.text = text.String()
	return out, err
}

// validateCalls rejects unknown tools and arguments that break the schema.
func (a *Agent) validateCalls(calls []api.ToolCall) error {
	for _, call := range calls {
		if err := a.config.Registry.Validate(call.Function.Name, call.Function.Arguments); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) systemPrompt(languageName, languageCode, contextBlock string) (string, error) {
	directive, err := prompts.RenderLanguageDirective(languageName, languageCode)
	if err != nil {
		return "", err
	}

	return prompts.RenderAgentSystemPrompt(prompts.AgentSystemPromptData{
		LanguageDirective: directive,
		ContextBlock:      contextBlock,
		Tools:             a.config.Registry.Names(),
	})
}

// abort answers with the gathered observations, or the localized error
// template when nothing was gathered.
func (a *Agent) abort(reporter ProgressReporter, result *AgentResult, lang string) *AgentResult {
	if len(result.Trace) == 0 {
		return a.finish(reporter, result, StateAborted, a.config.Languages.Template(lang, "error"))
	}

	parts := []string{a.config.Languages.Template(lang, "partial_intro")}
	for _, trace := range result.Trace {
		parts = append(parts, trace.Observation)
	}
	return a.finish(reporter, result, StateAborted, strings.Join(parts, "\n\n"))
}

func (a *Agent) finish(reporter ProgressReporter, result *AgentResult, state State, text string) *AgentResult {
	result.State = state
	result.FinalText = text

	reporter.Send(NewStateChange(state, ""))
	reporter.Send(NewAnswer(text))
	reporter.Send(NewStreamComplete(result))
	return result
}
