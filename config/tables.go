package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tables holds the text-normalisation and tool-routing data used when
// resolving free-form location phrases. The defaults cover the common
// colloquial travel phrasing; deployments can swap them via a YAML file so
// tests and regional installs are not tied to the embedded literals.
type Tables struct {
	// StopWords are weather/filler words dropped when simplifying a phrase
	// before geocoding.
	StopWords []string `yaml:"stop_words"`

	// Corrections maps known misspellings to their corrected form,
	// matched case-insensitively per token.
	Corrections map[string]string `yaml:"corrections"`

	// ToolKeywords maps an external tool name to the query keywords that
	// select it without an oracle round trip.
	ToolKeywords map[string][]string `yaml:"tool_keywords"`
}

// DefaultTables returns the embedded routing tables.
func DefaultTables() *Tables {
	return &Tables{
		StopWords: []string{
			"weather", "forecast", "today", "tomorrow", "how", "is", "the",
			"in", "for", "current", "conditions", "like", "now",
		},
		Corrections: map[string]string{
			"tecas": "texas",
			"texes": "texas",
			"txas":  "texas",
			"dalas": "dallas",
		},
		ToolKeywords: map[string][]string{
			"weather_forecast": {
				"weather", "forecast", "temperature", "rain", "snow",
				"wind", "trip", "travel", "plan",
			},
		},
	}
}

// LoadTables returns the default tables, overridden by the YAML file at path
// when non-empty. Sections absent from the file keep their defaults.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file %s: %w", path, err)
	}

	var override Tables
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse tables file %s: %w", path, err)
	}

	if len(override.StopWords) > 0 {
		tables.StopWords = override.StopWords
	}
	if len(override.Corrections) > 0 {
		tables.Corrections = override.Corrections
	}
	if len(override.ToolKeywords) > 0 {
		tables.ToolKeywords = override.ToolKeywords
	}
	return tables, nil
}

// IsStopWord reports whether the token is in the stop-word set.
func (t *Tables) IsStopWord(token string) bool {
	lower := strings.ToLower(token)
	for _, w := range t.StopWords {
		if lower == w {
			return true
		}
	}
	return false
}

// Correct returns the corrected form of a token, or the token unchanged.
func (t *Tables) Correct(token string) string {
	if fixed, ok := t.Corrections[strings.ToLower(token)]; ok {
		return fixed
	}
	return token
}

// MatchTool returns the first tool whose keyword list matches the query,
// or "" when no keyword matches.
func (t *Tables) MatchTool(query string) string {
	normalized := strings.ToLower(query)
	for name, keywords := range t.ToolKeywords {
		for _, kw := range keywords {
			if strings.Contains(normalized, kw) {
				return name
			}
		}
	}
	return ""
}
