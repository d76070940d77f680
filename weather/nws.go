package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const nwsUserAgent = "tripmate-weather/1.0"

// Alert is one active National Weather Service alert.
type Alert struct {
	Event       string
	Area        string
	Severity    string
	Description string
	Instruction string
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			Event       string `json:"event"`
			AreaDesc    string `json:"areaDesc"`
			Severity    string `json:"severity"`
			Description string `json:"description"`
			Instruction string `json:"instruction"`
		} `json:"properties"`
	} `json:"features"`
}

// NWSClient fetches active US weather alerts by state.
type NWSClient struct {
	client *resty.Client
}

// NewNWSClient builds an alerts client against the given base URL
// (https://api.weather.gov in production).
func NewNWSClient(baseURL string, timeout time.Duration) *NWSClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", nwsUserAgent).
		SetHeader("Accept", "application/geo+json")
	return &NWSClient{client: client}
}

// ActiveAlerts returns the active alerts for a 2-letter US state code.
func (c *NWSClient) ActiveAlerts(ctx context.Context, state string) ([]Alert, error) {
	var result alertsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/alerts/active/area/" + strings.ToUpper(strings.TrimSpace(state)))
	if err != nil {
		return nil, fmt.Errorf("alerts request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alerts request failed: status %s", resp.Status())
	}

	alerts := make([]Alert, 0, len(result.Features))
	for _, feature := range result.Features {
		alerts = append(alerts, Alert{
			Event:       feature.Properties.Event,
			Area:        feature.Properties.AreaDesc,
			Severity:    feature.Properties.Severity,
			Description: feature.Properties.Description,
			Instruction: feature.Properties.Instruction,
		})
	}
	return alerts, nil
}

// FormatAlert renders an alert as a readable block.
func FormatAlert(alert Alert) string {
	description := alert.Description
	if description == "" {
		description = "No description available"
	}
	instruction := alert.Instruction
	if instruction == "" {
		instruction = "No specific instructions provided"
	}
	return fmt.Sprintf("Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		orUnknown(alert.Event), orUnknown(alert.Area), orUnknown(alert.Severity), description, instruction)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
