package agentboot

import (
	"time"

	"github.com/ollama/ollama/api"
)

type EventType string

const (
	EventStateChange  EventType = "state"
	EventToolStarted  EventType = "tool_started"
	EventToolFinished EventType = "tool_finished"
	EventAnswer       EventType = "answer"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
)

// ProgressEvent is a single progress update. Fields not relevant to the
// event type are left empty.
type ProgressEvent struct {
	Type      EventType                     `json:"type"`
	State     State                         `json:"state,omitempty"`
	ToolName  string                        `json:"tool_name,omitempty"`
	Arguments api.ToolCallFunctionArguments `json:"arguments,omitempty"`
	Content   string                        `json:"content,omitempty"`
	Code      string                        `json:"code,omitempty"`
	Duration  time.Duration                 `json:"duration,omitempty"`
	Result    *AgentResult                  `json:"result,omitempty"`
	Timestamp int64                         `json:"timestamp"`
}

// ProgressReporter is an interface for reporting agent execution progress
type ProgressReporter interface {
	Send(event *ProgressEvent) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

func (r *NoOpProgressReporter) Send(event *ProgressEvent) error {
	return nil
}

func NewStateChange(state State, message string) *ProgressEvent {
	return &ProgressEvent{Type: EventStateChange, State: state, Content: message, Timestamp: getCurrentTimeMs()}
}

func NewToolStarted(name string, args api.ToolCallFunctionArguments) *ProgressEvent {
	return &ProgressEvent{Type: EventToolStarted, ToolName: name, Arguments: args, Timestamp: getCurrentTimeMs()}
}

func NewToolFinished(trace ToolTrace) *ProgressEvent {
	return &ProgressEvent{
		Type:      EventToolFinished,
		ToolName:  trace.Name,
		Content:   trace.Observation,
		Duration:  trace.Duration,
		Timestamp: getCurrentTimeMs(),
	}
}

func NewAnswer(content string) *ProgressEvent {
	return &ProgressEvent{Type: EventAnswer, Content: content, Timestamp: getCurrentTimeMs()}
}

func NewStreamComplete(result *AgentResult) *ProgressEvent {
	return &ProgressEvent{Type: EventComplete, State: result.State, Result: result, Timestamp: getCurrentTimeMs()}
}

func NewStreamError(message, code string) *ProgressEvent {
	return &ProgressEvent{Type: EventError, Content: message, Code: code, Timestamp: getCurrentTimeMs()}
}
