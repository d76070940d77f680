// Package external assembles best-effort live evidence for a query. Every
// network failure on this path is recovered locally: one flaky geocoder or
// forecast call degrades evidence quality instead of aborting the turn.
package external

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/tripmate/config"
	"github.com/sweetpotato0/tripmate/geo"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/weather"
)

// ToolWeatherForecast is the only external tool currently bound.
const ToolWeatherForecast = "weather_forecast"

const maxLocations = 3

// Result reports the evidence gathered for one query. Contexts is never
// empty: when nothing could be fetched it holds the "no live data"
// placeholder. Degraded lists the reasons for recovered failures so logs and
// tests can tell "no evidence found" from "evidence service broken".
type Result struct {
	Contexts []string
	Tool     string
	Degraded []string
}

// Service wires the location cascade and forecast fetch into a single
// best-effort evidence operation.
type Service struct {
	oracle   oracle.Client
	resolver *geo.Resolver
	forecast weather.Client
	tables   *config.Tables
	logger   *slog.Logger
}

// NewService builds the external evidence service.
func NewService(oracleClient oracle.Client, resolver *geo.Resolver, forecast weather.Client, tables *config.Tables) *Service {
	if tables == nil {
		tables = config.DefaultTables()
	}
	return &Service{
		oracle:   oracleClient,
		resolver: resolver,
		forecast: forecast,
		tables:   tables,
		logger:   logging.WithComponent("external_evidence"),
	}
}

// Search gathers live evidence for the query. It never returns an error and
// always yields at least one context string.
func (s *Service) Search(ctx context.Context, query string) *Result {
	result := &Result{}

	result.Tool = s.selectTool(ctx, query)

	var locations []string
	if result.Tool == ToolWeatherForecast {
		locations = s.extractLocations(ctx, query)
		if len(locations) == 0 {
			locations = []string{query}
		}
	} else if result.Tool == "" {
		// Trip-style queries mention locations without weather keywords;
		// a successful extraction still routes them to the forecast tool.
		if locs := s.extractLocations(ctx, query); len(locs) > 0 {
			result.Tool = ToolWeatherForecast
			locations = locs
		}
	}

	if result.Tool == ToolWeatherForecast {
		for _, loc := range locations {
			normalized := s.normalizeLocation(ctx, loc)
			evidence, reason := s.fetchWeather(ctx, normalized)
			if evidence != "" {
				result.Contexts = append(result.Contexts, evidence)
				continue
			}
			result.Degraded = append(result.Degraded, fmt.Sprintf("%s: %s", loc, reason))
			s.logger.Debug("no weather evidence for location", "location", loc, "reason", reason)
		}
	}

	if len(result.Contexts) == 0 {
		result.Contexts = append(result.Contexts, Placeholder(query, result.Tool))
	}
	return result
}

// Placeholder is the evidence string emitted when nothing could be fetched.
func Placeholder(query, tool string) string {
	return fmt.Sprintf("(External API) No live data available for: %s (tool selected: %s)", query, tool)
}

// selectTool picks the external tool via keywords first, then oracle routing
// for ambiguous queries. Any oracle failure defaults to "no tool".
func (s *Service) selectTool(ctx context.Context, query string) string {
	if name := s.tables.MatchTool(query); name != "" {
		return name
	}

	names := make([]string, 0, len(s.tables.ToolKeywords))
	for name := range s.tables.ToolKeywords {
		names = append(names, name)
	}
	prompt := fmt.Sprintf(
		"Choose the best external tool for the user request from this list: %s. "+
			"Reply with only the tool name, or 'none' if no match.\nRequest: %s",
		strings.Join(names, ", "), query)

	reply, err := oracle.Ask(ctx, s.oracle, prompt)
	if err != nil {
		s.logger.Debug("tool routing oracle call failed", "error", err)
		return ""
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	if _, ok := s.tables.ToolKeywords[reply]; ok {
		return reply
	}
	return ""
}

// extractLocations asks the oracle for up to maxLocations location names.
// Oracle failure or an empty reply yields no locations.
func (s *Service) extractLocations(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(
		"Extract up to %d location names (city, state, or country) from the request. "+
			"Return them as a comma-separated list, no extra text.\nRequest: %s",
		maxLocations, query)

	reply, err := oracle.Ask(ctx, s.oracle, prompt)
	if err != nil {
		s.logger.Debug("location extraction oracle call failed", "error", err)
		return nil
	}
	if reply == "" {
		return nil
	}

	parts := strings.Split(reply, ",")
	locations := make([]string, 0, maxLocations)
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			locations = append(locations, trimmed)
		}
		if len(locations) == maxLocations {
			break
		}
	}
	return locations
}

// normalizeLocation asks the oracle to clean a location phrase into a
// concise "City, State" or "City, Country" string, falling back to the
// untouched phrase on failure.
func (s *Service) normalizeLocation(ctx context.Context, phrase string) string {
	prompt := fmt.Sprintf(
		"Normalize the following location to a concise 'City, State' or 'City, Country' string. "+
			"Fix misspellings. If unsure, return the best guess without extra text.\nLocation: %s",
		phrase)

	reply, err := oracle.CompleteText(ctx, s.oracle, []*message.Message{
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil || reply == "" {
		return phrase
	}
	return reply
}

// fetchWeather resolves the phrase and formats one evidence string, or
// reports why it degraded.
func (s *Service) fetchWeather(ctx context.Context, phrase string) (string, string) {
	location, err := s.resolver.Resolve(ctx, phrase)
	if err != nil {
		return "", fmt.Sprintf("location not resolved: %v", err)
	}

	report, err := s.forecast.Forecast(ctx, location.Latitude, location.Longitude)
	if err != nil {
		return "", fmt.Sprintf("forecast fetch failed: %v", err)
	}
	return weather.FormatEvidence(location.Name, report), ""
}
