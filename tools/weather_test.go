package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenWeatherServer(t *testing.T) *httptest.Server {
	t.Helper()

	day1 := time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC).Unix()
	day2 := time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/data/2.5/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		if r.URL.Query().Get("q") == "Broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"city": map[string]any{"timezone": 19800},
			"list": []map[string]any{
				{"dt": day1, "main": map[string]any{"temp": 8.3}, "weather": []map[string]any{{"description": "clear sky"}}},
				{"dt": day1 + 3*3600, "main": map[string]any{"temp": 17.5}, "weather": []map[string]any{{"description": "clear sky"}}},
				{"dt": day1 + 6*3600, "main": map[string]any{"temp": 15.0}, "weather": []map[string]any{{"description": "light rain"}}},
				{"dt": day2, "main": map[string]any{"temp": 9.0}, "weather": []map[string]any{{"description": "haze"}}},
			},
		})
	})
	mux.HandleFunc("/geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Atlantis" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"name":"Hisar","lat":29.1492,"lon":75.7217}]`))
	})
	mux.HandleFunc("/data/2.5/air_pollution", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "29.1492", r.URL.Query().Get("lat"))
		w.Write([]byte(`{"list":[{"main":{"aqi":4}}]}`))
	})
	mux.HandleFunc("/data/2.5/uvi", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":6.54}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestWeatherClient(t *testing.T) *WeatherClient {
	t.Setenv("OPENWEATHERMAP_API_KEY", "test-key")
	return NewWeatherClient(WithWeatherBaseURL(newOpenWeatherServer(t).URL))
}

func TestWeatherForecast(t *testing.T) {
	c := newTestWeatherClient(t)

	out := c.Forecast(context.Background(), "Hisar")

	assert.Equal(t, "Here is the 5-day weather forecast for Hisar:\n"+
		"- 2025-01-10: Min Temp: 8.3°C, Max Temp: 17.5°C. General condition: clear sky. There is a chance of rain.\n"+
		"- 2025-01-11: Min Temp: 9.0°C, Max Temp: 9.0°C. General condition: haze.", out)
}

func TestWeatherForecastFailures(t *testing.T) {
	c := newTestWeatherClient(t)

	assert.Equal(t,
		"I'm sorry, I could not find a location named 'Atlantis'. Please provide a more specific city or district name.",
		c.Forecast(context.Background(), "Atlantis"))

	assert.Contains(t, c.Forecast(context.Background(), "Broken"),
		"An error occurred while fetching the weather forecast for Broken:")

	t.Setenv("OPENWEATHERMAP_API_KEY", "")
	assert.Equal(t, "Weather service is currently unavailable. Please try again later.",
		NewWeatherClient().Forecast(context.Background(), "Hisar"))
}

func TestWeatherForecastTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	t.Setenv("OPENWEATHERMAP_API_KEY", "test-key")
	c := NewWeatherClient(WithWeatherBaseURL(slow.URL), WithWeatherHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))

	out := c.Forecast(context.Background(), "Hisar")
	assert.Contains(t, out, "An error occurred while fetching the weather forecast for Hisar:")
}

func TestAirPollution(t *testing.T) {
	c := newTestWeatherClient(t)

	assert.Equal(t,
		"The current Air Quality Index (AQI) in Hisar is 4. Poor air quality (AQI 4). Consider protective measures for workers.",
		c.AirPollution(context.Background(), "Hisar"))
	assert.Equal(t,
		"I'm sorry, I could not find a location named 'Atlantis' to check the air quality.",
		c.AirPollution(context.Background(), "Atlantis"))
}

func TestUVIndex(t *testing.T) {
	c := newTestWeatherClient(t)

	assert.Equal(t,
		"The current UV Index in Hisar is 6.5 (high). High risk. Limit midday exposure for workers and sensitive crops.",
		c.UVIndex(context.Background(), "Hisar"))
	assert.Equal(t,
		"I'm sorry, I could not find a location named 'Atlantis' to check the UV index.",
		c.UVIndex(context.Background(), "Atlantis"))
}

func TestWeatherBands(t *testing.T) {
	assert.Equal(t, "low", uvRisk(2.9))
	assert.Equal(t, "moderate", uvRisk(5))
	assert.Equal(t, "very high", uvRisk(10))
	assert.Equal(t, "extreme", uvRisk(11))
	assert.Equal(t, "Low risk. Good for transplanting delicate seedlings.", uvAdvice(2))
	assert.Equal(t, "Very poor air quality (AQI 5). Avoid heavy outdoor work if possible.", aqiAdvice(5))

	require.Equal(t, "b", mostCommon([]string{"a", "b", "b"}))
	assert.Equal(t, "a", mostCommon([]string{"a", "b"}))
}
