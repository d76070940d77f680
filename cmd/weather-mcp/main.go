// Command weather-mcp serves the keyless weather tools over MCP stdio:
// get_forecast (Open-Meteo, by coordinates) and get_alerts (National Weather
// Service, by US state). Fetch failures degrade to plain-text notices so a
// client never sees a tool error for a flaky upstream.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/weather"
)

const (
	forecastBaseURL = "https://api.open-meteo.com"
	alertsBaseURL   = "https://api.weather.gov"
)

func main() {
	logger := logging.WithComponent("weather_mcp")

	server := newServer()
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}

func newServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tripmate-weather",
		Version: "0.1.0",
		Title:   "Keyless weather tools for travel queries",
	}, nil)

	forecast := weather.NewOpenMeteoClient(forecastBaseURL, 0)
	alerts := weather.NewNWSClient(alertsBaseURL, 0)

	addForecastTool(server, forecast)
	addAlertsTool(server, alerts)
	return server
}

func addForecastTool(server *mcp.Server, client weather.Client) {
	type args struct {
		Latitude  float64 `json:"latitude" jsonschema:"Latitude of the location"`
		Longitude float64 `json:"longitude" jsonschema:"Longitude of the location"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_forecast",
		Description: "Get weather forecast for a location (uses Open-Meteo, no API key)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		report, err := client.Forecast(ctx, a.Latitude, a.Longitude)
		text := ""
		if err != nil {
			text = "Unable to fetch forecast data for this location."
		} else {
			text = weather.FormatReport(report)
		}
		return textResult(text), nil, nil
	})
}

func addAlertsTool(server *mcp.Server, client *weather.NWSClient) {
	type args struct {
		State string `json:"state" jsonschema:"Two-letter US state code, e.g. TX or CA"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_alerts",
		Description: "Get weather alerts for a US state (2-letter code, e.g., TX, CA)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		state := strings.TrimSpace(a.State)
		if len(state) != 2 {
			return nil, nil, fmt.Errorf("state must be a 2-letter US code, got %q", a.State)
		}

		alerts, err := client.ActiveAlerts(ctx, state)
		if err != nil {
			return textResult("Unable to fetch alerts or no alerts found."), nil, nil
		}
		if len(alerts) == 0 {
			return textResult("No active alerts for this state."), nil, nil
		}

		blocks := make([]string, 0, len(alerts))
		for _, alert := range alerts {
			blocks = append(blocks, weather.FormatAlert(alert))
		}
		return textResult(strings.Join(blocks, "\n---\n")), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
