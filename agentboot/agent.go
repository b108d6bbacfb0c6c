package agentboot

import (
	"time"

	"github.com/SaiNageswarS/krishi-boot/language"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/SaiNageswarS/krishi-boot/tools"
	"github.com/ollama/ollama/api"
)

const (
	DefaultMaxIterations    = 3
	DefaultMaxExecutionTime = 30 * time.Second
	DefaultMaxTokens        = 2000
)

// State is a step of the agent control loop. Every transition goes through
// one of these.
type State string

const (
	StateThinking           State = "THINKING"
	StateToolCall           State = "TOOL_CALL"
	StateFinal              State = "FINAL"
	StateAborted            State = "ABORTED"
	StateParseErrorRecovery State = "PARSE_ERROR_RECOVERY"
)

// AgentConfig holds configuration for the agent
type AgentConfig struct {
	Model            llm.LLMClient
	Registry         *tools.Registry
	Languages        *language.Resolver
	MaxTokens        int
	Temperature      float64
	MaxIterations    int
	MaxExecutionTime time.Duration
}

// Agent is shared between requests and keeps no per-request state.
type Agent struct {
	config AgentConfig
	model  llm.LLMClient
}

// Invocation is one request to the agent.
type Invocation struct {
	Input        string
	Language     string
	ContextBlock string

	// Zero values use the agent defaults.
	MaxIterations    int
	MaxExecutionTime time.Duration
}

// ToolTrace records one tool call.
type ToolTrace struct {
	Name        string                        `json:"name"`
	Arguments   api.ToolCallFunctionArguments `json:"arguments"`
	Observation string                        `json:"observation"`
	Duration    time.Duration                 `json:"duration"`
}

type AgentResult struct {
	FinalText  string      `json:"final_text"`
	Trace      []ToolTrace `json:"trace"`
	State      State       `json:"state"`
	Iterations int         `json:"iterations"`

	// ToolsUsed lists tool names in call order, without duplicates.
	ToolsUsed []string `json:"tools_used"`
}
