package agentboot

import (
	"errors"
	"time"

	"github.com/SaiNageswarS/krishi-boot/language"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/SaiNageswarS/krishi-boot/tools"
)

var (
	errNoModel    = errors.New("agent needs a model client")
	errNoRegistry = errors.New("agent needs a tool registry")
)

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		config: AgentConfig{
			MaxTokens:        DefaultMaxTokens,
			MaxIterations:    DefaultMaxIterations,
			MaxExecutionTime: DefaultMaxExecutionTime,
		},
	}
}

func (b *AgentBuilder) WithModel(client llm.LLMClient) *AgentBuilder {
	b.config.Model = client
	return b
}

func (b *AgentBuilder) WithRegistry(registry *tools.Registry) *AgentBuilder {
	b.config.Registry = registry
	return b
}

func (b *AgentBuilder) WithLanguages(languages *language.Resolver) *AgentBuilder {
	b.config.Languages = languages
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) WithTemperature(temp float64) *AgentBuilder {
	b.config.Temperature = temp
	return b
}

func (b *AgentBuilder) WithMaxIterations(n int) *AgentBuilder {
	if n > 0 {
		b.config.MaxIterations = n
	}
	return b
}

func (b *AgentBuilder) WithMaxExecutionTime(d time.Duration) *AgentBuilder {
	if d > 0 {
		b.config.MaxExecutionTime = d
	}
	return b
}

// Build wraps models without native tool calling in the unified JSON protocol.
func (b *AgentBuilder) Build() (*Agent, error) {
	if b.config.Model == nil {
		return nil, errNoModel
	}
	if b.config.Registry == nil {
		return nil, errNoRegistry
	}
	if b.config.Languages == nil {
		languages, err := language.NewResolver()
		if err != nil {
			return nil, err
		}
		b.config.Languages = languages
	}

	model := b.config.Model
	if model.Capabilities()&llm.NativeToolCalling == 0 {
		model = llm.NewUnifiedToolClient(model)
	}

	return &Agent{config: b.config, model: model}, nil
}
