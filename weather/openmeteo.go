package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Report carries the current conditions and the same-day aggregates for one
// location.
type Report struct {
	Temperature   float64
	WindSpeed     float64
	Code          int
	TodayHigh     float64
	TodayLow      float64
	PrecipChance  float64
	HasDaily      bool
}

// Client fetches forecasts for resolved coordinates. The production
// implementation is the keyless Open-Meteo forecast API.
type Client interface {
	Forecast(ctx context.Context, latitude, longitude float64) (*Report, error)
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		PrecipProbMax  []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// OpenMeteoClient implements Client against the Open-Meteo forecast API.
type OpenMeteoClient struct {
	client *resty.Client
}

// NewOpenMeteoClient builds a forecast client against the given base URL
// (https://api.open-meteo.com in production) with a bounded per-call timeout.
func NewOpenMeteoClient(baseURL string, timeout time.Duration) *OpenMeteoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &OpenMeteoClient{client: client}
}

// Forecast fetches current weather plus same-day high/low/precipitation.
func (c *OpenMeteoClient) Forecast(ctx context.Context, latitude, longitude float64) (*Report, error) {
	var result forecastResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        strconv.FormatFloat(latitude, 'f', -1, 64),
			"longitude":       strconv.FormatFloat(longitude, 'f', -1, 64),
			"current_weather": "true",
			"daily":           "temperature_2m_max,temperature_2m_min,precipitation_probability_max",
			"timezone":        "auto",
		}).
		SetResult(&result).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast request failed: status %s", resp.Status())
	}

	report := &Report{
		Temperature: result.CurrentWeather.Temperature,
		WindSpeed:   result.CurrentWeather.WindSpeed,
		Code:        result.CurrentWeather.WeatherCode,
	}
	if len(result.Daily.TemperatureMax) > 0 && len(result.Daily.TemperatureMin) > 0 {
		report.HasDaily = true
		report.TodayHigh = result.Daily.TemperatureMax[0]
		report.TodayLow = result.Daily.TemperatureMin[0]
		if len(result.Daily.PrecipProbMax) > 0 {
			report.PrecipChance = result.Daily.PrecipProbMax[0]
		}
	}
	return report, nil
}

// FormatEvidence renders a report as the textual evidence string handed to
// the prompt layer. The "(External API)" framing is the convention the model
// relies on to prioritise current data over indexed documents.
func FormatEvidence(name string, report *Report) string {
	return fmt.Sprintf(
		"(External API) Weather for %s: now %s°C, wind %s km/h, code %d. Today: high %s°C / low %s°C, precip chance %s%%.",
		name,
		trimFloat(report.Temperature),
		trimFloat(report.WindSpeed),
		report.Code,
		trimFloat(report.TodayHigh),
		trimFloat(report.TodayLow),
		trimFloat(report.PrecipChance),
	)
}

// FormatReport renders a report without a location name, used by the MCP
// forecast tool where the caller already supplied coordinates.
func FormatReport(report *Report) string {
	return fmt.Sprintf(
		"Now: %s°C, wind %s km/h, code %d. Today: high %s°C / low %s°C, precip chance %s%%.",
		trimFloat(report.Temperature),
		trimFloat(report.WindSpeed),
		report.Code,
		trimFloat(report.TodayHigh),
		trimFloat(report.TodayLow),
		trimFloat(report.PrecipChance),
	)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
