package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const openWeatherURL = "https://api.openweathermap.org"

var errLocationNotFound = errors.New("location not found")

// WeatherClient talks to OpenWeatherMap for forecasts, air quality and UV.
type WeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type WeatherOption func(*WeatherClient)

func WithWeatherBaseURL(baseURL string) WeatherOption {
	return func(c *WeatherClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithWeatherHTTPClient(httpClient *http.Client) WeatherOption {
	return func(c *WeatherClient) { c.httpClient = httpClient }
}

// NewWeatherClient reads OPENWEATHERMAP_API_KEY. Without a key every weather
// tool answers that the service is unavailable.
func NewWeatherClient(opts ...WeatherOption) *WeatherClient {
	c := &WeatherClient{
		apiKey:     os.Getenv("OPENWEATHERMAP_API_KEY"),
		baseURL:    openWeatherURL,
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WeatherClient) ForecastTool() ToolSpec {
	return NewToolBuilder(KindWeatherForecast,
		"Gets a detailed 5-day weather forecast for a specified location name. This is the primary tool for all weather-related queries.").
		StringParam("location", `The city or district name, e.g., "Hisar", "Ludhiana", "Pune".`, true).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.Forecast(ctx, stringArg(args, "location"))
		}).
		Build()
}

func (c *WeatherClient) AirPollutionTool() ToolSpec {
	return NewToolBuilder(KindAirPollution,
		"Gets current air pollution data for a location to assess crop and worker health.").
		StringParam("location", `The city or district name, e.g., "Hisar", "Ludhiana", "Pune".`, true).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.AirPollution(ctx, stringArg(args, "location"))
		}).
		Build()
}

func (c *WeatherClient) UVIndexTool() ToolSpec {
	return NewToolBuilder(KindUVIndex,
		"Gets the current UV Index for a location to assess worker safety and crop stress.").
		StringParam("location", `The city or district name, e.g., "Hisar", "Ludhiana", "Pune".`, true).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.UVIndex(ctx, stringArg(args, "location"))
		}).
		Build()
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

type dailyForecast struct {
	date       string
	temps      []float64
	conditions []string
	rainChance bool
}

// Forecast aggregates the 3-hourly forecast into at most five days.
func (c *WeatherClient) Forecast(ctx context.Context, location string) string {
	if c.apiKey == "" {
		return "Weather service is currently unavailable. Please try again later."
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var resp forecastResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/data/2.5/forecast", params, &resp); err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("I'm sorry, I could not find a location named '%s'. Please provide a more specific city or district name.", location)
		}
		logger.Error("Weather forecast failed", zap.String("location", location), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching the weather forecast for %s: %v", location, err)
	}

	zone := time.FixedZone("local", resp.City.Timezone)
	var days []*dailyForecast
	byDate := make(map[string]*dailyForecast)

	for _, point := range resp.List {
		date := time.Unix(point.Dt, 0).In(zone).Format("2006-01-02")
		day, ok := byDate[date]
		if !ok {
			day = &dailyForecast{date: date}
			byDate[date] = day
			days = append(days, day)
		}

		day.temps = append(day.temps, point.Main.Temp)
		if len(point.Weather) > 0 && point.Weather[0].Description != "" {
			status := point.Weather[0].Description
			day.conditions = append(day.conditions, status)

			lower := strings.ToLower(status)
			if strings.Contains(lower, "rain") || strings.Contains(lower, "drizzle") || strings.Contains(lower, "shower") {
				day.rainChance = true
			}
		}
	}

	if len(days) == 0 {
		return fmt.Sprintf("I'm sorry, I couldn't get weather data for %s. Please try with a different city name.", location)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the 5-day weather forecast for %s:\n", location)
	for _, day := range days[:min(len(days), 5)] {
		if len(day.temps) == 0 || len(day.conditions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: Min Temp: %.1f°C, Max Temp: %.1f°C. General condition: %s.",
			day.date, minOf(day.temps), maxOf(day.temps), mostCommon(day.conditions))
		if day.rainChance {
			b.WriteString(" There is a chance of rain.")
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// AirPollution reports the OpenWeatherMap AQI (1-5) with farming advice.
func (c *WeatherClient) AirPollution(ctx context.Context, location string) string {
	if c.apiKey == "" {
		return "Environmental services are currently unavailable."
	}

	lat, lon, err := c.geocode(ctx, location)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("I'm sorry, I could not find a location named '%s' to check the air quality.", location)
		}
		logger.Error("Geocoding failed", zap.String("location", location), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching air pollution data for %s: %v", location, err)
	}

	var resp struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
		} `json:"list"`
	}
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/data/2.5/air_pollution", c.coordParams(lat, lon), &resp); err != nil {
		logger.Error("Air pollution lookup failed", zap.String("location", location), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching air pollution data for %s: %v", location, err)
	}
	if len(resp.List) == 0 {
		return fmt.Sprintf("An error occurred while fetching air pollution data for %s: no readings returned", location)
	}

	aqi := resp.List[0].Main.AQI
	return fmt.Sprintf("The current Air Quality Index (AQI) in %s is %d. %s", location, aqi, aqiAdvice(aqi))
}

// UVIndex reports the UV index with an exposure risk band and farming advice.
func (c *WeatherClient) UVIndex(ctx context.Context, location string) string {
	if c.apiKey == "" {
		return "Environmental services are currently unavailable."
	}

	lat, lon, err := c.geocode(ctx, location)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("I'm sorry, I could not find a location named '%s' to check the UV index.", location)
		}
		logger.Error("Geocoding failed", zap.String("location", location), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching UV Index data for %s: %v", location, err)
	}

	var resp struct {
		Value float64 `json:"value"`
	}
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/data/2.5/uvi", c.coordParams(lat, lon), &resp); err != nil {
		logger.Error("UV index lookup failed", zap.String("location", location), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching UV Index data for %s: %v", location, err)
	}

	return fmt.Sprintf("The current UV Index in %s is %.1f (%s). %s", location, resp.Value, uvRisk(resp.Value), uvAdvice(resp.Value))
}

func (c *WeatherClient) geocode(ctx context.Context, location string) (float64, float64, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var places []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/geo/1.0/direct", params, &places); err != nil {
		return 0, 0, err
	}
	if len(places) == 0 {
		return 0, 0, errLocationNotFound
	}
	return places[0].Lat, places[0].Lon, nil
}

func (c *WeatherClient) coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", lat))
	params.Set("lon", fmt.Sprintf("%.4f", lon))
	params.Set("appid", c.apiKey)
	return params
}

func isNotFound(err error) bool {
	if errors.Is(err, errLocationNotFound) {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func aqiAdvice(aqi int) string {
	switch aqi {
	case 1:
		return "Excellent air quality (AQI 1). Safe for all farming activities."
	case 2:
		return "Good air quality (AQI 2). Normal farming activities can continue."
	case 3:
		return "Moderate air quality (AQI 3). Sensitive crops may show minor stress."
	case 4:
		return "Poor air quality (AQI 4). Consider protective measures for workers."
	default:
		return "Very poor air quality (AQI 5). Avoid heavy outdoor work if possible."
	}
}

func uvRisk(uv float64) string {
	switch {
	case uv < 3:
		return "low"
	case uv < 6:
		return "moderate"
	case uv < 8:
		return "high"
	case uv < 11:
		return "very high"
	default:
		return "extreme"
	}
}

func uvAdvice(uv float64) string {
	switch {
	case uv <= 2:
		return "Low risk. Good for transplanting delicate seedlings."
	case uv <= 5:
		return "Moderate risk. Sun protection is recommended for workers."
	case uv <= 7:
		return "High risk. Limit midday exposure for workers and sensitive crops."
	default:
		return "Very high to extreme risk. Minimize outdoor work between 10 AM and 4 PM."
	}
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}

// mostCommon breaks ties by first occurrence.
func mostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	best := ""
	for _, v := range values {
		counts[v]++
		if counts[v] > counts[best] || best == "" {
			best = v
		}
	}
	return best
}
