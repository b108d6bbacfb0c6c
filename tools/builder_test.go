package tools

import (
	"context"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
)

func TestNewToolBuilder(t *testing.T) {
	builder := NewToolBuilder(KindUVIndex, "UV index")

	assert.Equal(t, "function", builder.spec.Type)
	assert.Equal(t, "get_uv_index", builder.spec.Function.Name)
	assert.Equal(t, KindUVIndex, builder.spec.Kind)
	assert.Equal(t, "object", builder.spec.Function.Parameters.Type)
	assert.Empty(t, builder.spec.Function.Parameters.Properties)
	assert.NotNil(t, builder.spec.Function.Parameters.Required)
}

func TestToolBuilderParams(t *testing.T) {
	builder := NewToolBuilder(KindMarketPrices, "prices")

	result := builder.
		StringParam("crop", "Crop name", true).
		StringParam("state", "State", false).
		StringParam("crop", "Crop name again", true)

	assert.Equal(t, builder, result)
	params := builder.spec.Function.Parameters
	assert.Equal(t, []string{"crop"}, params.Required)
	assert.Equal(t, api.PropertyType{"string"}, params.Properties["state"].Type)
	assert.Equal(t, "Crop name again", params.Properties["crop"].Description)
}

func TestToolBuilderEnumParam(t *testing.T) {
	spec := NewToolBuilder(KindAgriNews, "news").
		EnumParam("topic", "Topic", []string{"general", "market"}, true).
		Build()

	prop := spec.Function.Parameters.Properties["topic"]
	assert.Equal(t, []any{"general", "market"}, prop.Enum)
	assert.Contains(t, spec.Function.Parameters.Required, "topic")
}

func TestToolBuilderWithHandler(t *testing.T) {
	spec := NewToolBuilder(KindCurrentDateTime, "time").
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string { return "now" }).
		Build()

	assert.NotNil(t, spec.Invoke)
	assert.Equal(t, "now", spec.Invoke(context.Background(), nil))
	assert.Equal(t, "get_current_datetime", spec.Name())
}
