package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Place is one geocoding hit.
type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Geocoder looks up coordinates for a place name. Implementations may fail
// or return no hits; the resolver treats both the same way.
type Geocoder interface {
	Search(ctx context.Context, name string) ([]Place, error)
}

type searchResponse struct {
	Results []Place `json:"results"`
}

// OpenMeteoGeocoder queries the keyless Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	client *resty.Client
}

// NewOpenMeteoGeocoder builds a geocoder against the given base URL
// (https://geocoding-api.open-meteo.com in production) with a bounded
// per-call timeout.
func NewOpenMeteoGeocoder(baseURL string, timeout time.Duration) *OpenMeteoGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &OpenMeteoGeocoder{client: client}
}

// Search returns geocoding hits for a place name, best match first.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, name string) ([]Place, error) {
	var result searchResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     name,
			"count":    strconv.Itoa(1),
			"language": "en",
			"format":   "json",
		}).
		SetResult(&result).
		Get("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocoding request failed: status %s", resp.Status())
	}
	return result.Results, nil
}
