package tools

import (
	"slices"

	"github.com/ollama/ollama/api"
)

// ToolBuilder defines a tool schema fluently.
type ToolBuilder struct {
	spec ToolSpec
}

func NewToolBuilder(kind Kind, description string) *ToolBuilder {
	b := &ToolBuilder{
		spec: ToolSpec{
			Kind: kind,
			Tool: api.Tool{
				Type: "function",
				Function: api.ToolFunction{
					Name:        string(kind),
					Description: description,
				},
			},
		},
	}

	b.spec.Function.Parameters.Type = "object"
	b.spec.Function.Parameters.Properties = make(map[string]api.ToolProperty, 4)
	// an explicit empty list keeps the schema valid JSON Schema
	b.spec.Function.Parameters.Required = []string{}
	return b
}

func (b *ToolBuilder) StringParam(name, desc string, required bool) *ToolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *ToolBuilder) EnumParam(name, desc string, values []string, required bool) *ToolBuilder {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}

	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
		Enum:        enum,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *ToolBuilder) WithHandler(fn Invoker) *ToolBuilder {
	b.spec.Invoke = fn
	return b
}

func (b *ToolBuilder) Build() ToolSpec {
	return b.spec
}

func (b *ToolBuilder) setProp(name string, p api.ToolProperty, required bool) {
	b.spec.Function.Parameters.Properties[name] = p
	if required && !slices.Contains(b.spec.Function.Parameters.Required, name) {
		b.spec.Function.Parameters.Required = append(b.spec.Function.Parameters.Required, name)
	}
}
