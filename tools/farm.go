package tools

import (
	"github.com/SaiNageswarS/krishi-boot/knowledge"
)

// FarmTools groups the collaborators behind the farm tool set.
type FarmTools struct {
	Weather  *WeatherClient
	Market   *MarketClient
	Soil     *SoilClient
	News     *NewsClient
	Clock    *DateTimeTool
	Searcher knowledge.Searcher
}

// NewFarmRegistry registers every farm tool in the order the agent sees them.
// Nil collaborators are replaced by environment-configured defaults.
func NewFarmRegistry(deps FarmTools) (*Registry, error) {
	if deps.Weather == nil {
		deps.Weather = NewWeatherClient()
	}
	if deps.Market == nil {
		deps.Market = NewMarketClient()
	}
	if deps.Soil == nil {
		deps.Soil = NewSoilClient("")
	}
	if deps.News == nil {
		deps.News = NewNewsClient()
	}
	if deps.Clock == nil {
		deps.Clock = NewDateTimeTool(nil)
	}

	specs := []ToolSpec{
		deps.Weather.ForecastTool(),
		deps.Weather.AirPollutionTool(),
		deps.Weather.UVIndexTool(),
		NewCropAdvisory(deps.Searcher).Tool(),
		deps.Market.Tool(),
		deps.Soil.Tool(),
		deps.News.Tool(),
		deps.Clock.Tool(),
	}

	r := NewRegistry()
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}
