package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const soilFallbackGuidance = "No specific soil moisture data could be found for your location.\n\n" +
	"**General Irrigation Best Practices:**\n" +
	"- The best time to water is early morning (before 10 AM).\n" +
	"- Check soil moisture by inserting a finger 2-3 inches deep. If it's dry, it's time to water.\n" +
	"- Consider using mulch around your crops to help the soil retain moisture.\n" +
	"- Always check the local weather forecast before planning your irrigation schedule."

// SoilClient derives irrigation advice from district soil moisture records on data.gov.in.
type SoilClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

type SoilOption func(*SoilClient)

func WithSoilHTTPClient(httpClient *http.Client) SoilOption {
	return func(c *SoilClient) { c.httpClient = httpClient }
}

// NewSoilClient reads GOV_IN_API_KEY. The dataset url comes from configuration.
func NewSoilClient(datasetURL string, opts ...SoilOption) *SoilClient {
	c := &SoilClient{
		apiKey:     os.Getenv("GOV_IN_API_KEY"),
		url:        datasetURL,
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SoilClient) Tool() ToolSpec {
	return NewToolBuilder(KindSoilIrrigation,
		"Gets the latest available soil moisture and weather data for a given district and provides a specific irrigation recommendation.").
		StringParam("district", `The district name (e.g., "Hisar", "Ludhiana").`, true).
		StringParam("state", `The state name for a more specific search (e.g., "Haryana").`, false).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.Advice(ctx, stringArg(args, "district"), stringArg(args, "state"))
		}).
		Build()
}

func (c *SoilClient) Advice(ctx context.Context, district, state string) string {
	if c.url == "" {
		return soilFallbackGuidance
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", "5")
	params.Set("filters[district.keyword]", district)
	if state != "" {
		params.Set("filters[state.keyword]", state)
	}

	var resp dataGovResponse
	if err := getJSON(ctx, c.httpClient, c.url, params, &resp); err != nil {
		logger.Error("Soil data lookup failed", zap.String("district", district), zap.Error(err))
		return "I am having trouble connecting to the government's soil and weather data service right now."
	}

	if len(resp.Records) == 0 || len(resp.Records[0]) == 0 {
		return soilFallbackGuidance
	}

	record := resp.Records[0]
	return fmt.Sprintf("Based on the latest data for %s (on %s):\n"+
		"- Recent Rainfall: %s mm\n"+
		"- Temperature Range: %s°C to %s°C\n\n"+
		"**Irrigation Advice:** %s",
		district, recordString(record, "date"),
		recordString(record, "rainfall_mm"),
		recordString(record, "min_temp_c"), recordString(record, "max_temp_c"),
		irrigationAdvice(record))
}

func irrigationAdvice(record map[string]any) string {
	rainfall, err := recordFloat(record, "rainfall_mm", 0)
	if err != nil {
		return "Data not available for a specific recommendation. Check soil moisture manually."
	}
	humidity, err := recordFloat(record, "humidity_percent", 50)
	if err != nil {
		return "Data not available for a specific recommendation. Check soil moisture manually."
	}

	switch {
	case rainfall > 10:
		return "Significant recent rainfall detected. Irrigation is likely not needed. Check soil manually."
	case rainfall > 5:
		return "Some recent rainfall. Check soil moisture before irrigating."
	case humidity < 40:
		return "Low humidity and little rain. Crops may need increased irrigation."
	case humidity > 80:
		return "High humidity. Reduce irrigation and monitor for fungal diseases."
	default:
		return "Conditions are normal. Follow your regular irrigation schedule based on crop needs."
	}
}
