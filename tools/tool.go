// Package tools holds the fixed set of farm tools the agent may call. Every
// tool reports failures as a readable observation instead of an error.
package tools

import (
	"context"

	"github.com/ollama/ollama/api"
)

// Kind tags each tool variant. The value is the tool name the model sees.
type Kind string

const (
	KindWeatherForecast Kind = "get_weather_forecast"
	KindAirPollution    Kind = "get_air_pollution_data"
	KindUVIndex         Kind = "get_uv_index"
	KindMarketPrices    Kind = "get_market_prices"
	KindSoilIrrigation  Kind = "get_soil_and_irrigation_advice"
	KindAgriNews        Kind = "get_agricultural_news"
	KindCurrentDateTime Kind = "get_current_datetime"
	KindCropAdvisory    Kind = "get_crop_advisory"
)

// Invoker runs a tool. It must always return an observation, even on failure.
type Invoker func(ctx context.Context, args api.ToolCallFunctionArguments) string

// ToolSpec is immutable once registered.
type ToolSpec struct {
	Kind Kind
	api.Tool
	Invoke Invoker
}

func (s ToolSpec) Name() string {
	return s.Function.Name
}
