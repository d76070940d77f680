package config

import (
	"strings"
	"testing"
	"time"
)

func validSettings() *Settings {
	return &Settings{
		OpenAIAPIKey:     "sk-test",
		DatabaseURL:      "postgres://localhost/test",
		ChatModel:        "gpt-4o-mini",
		GraderModel:      "gpt-4o-mini",
		EmbedModel:       "text-embedding-3-small",
		EmbedDim:         1536,
		TableName:        "travel_docs",
		DataDir:          "data",
		TopK:             3,
		HistorySize:      5,
		MaxIterations:    10,
		ChunkSize:        256,
		ChunkOverlap:     32,
		GeocodingBaseURL: "https://geocoding-api.open-meteo.com",
		ForecastBaseURL:  "https://api.open-meteo.com",
		HTTPTimeout:      10 * time.Second,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	s := validSettings()
	s.OpenAIAPIKey = ""
	s.TopK = 0
	s.ChunkOverlap = 999

	err := s.Validate()
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	msg := err.Error()
	for _, field := range []string{"OpenAIAPIKey", "TopK", "ChunkOverlap"} {
		if !strings.Contains(msg, field) {
			t.Fatalf("expected %s in error, got %q", field, msg)
		}
	}
}

func TestValidatorHelpers(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("Name", "value").
		RequirePositive("Count", 1).
		ValidateRange("Overlap", 5, 0, 10).
		ValidateOneOf("Mode", "fast", "fast", "slow")
	if v.HasErrors() {
		t.Fatalf("expected no errors, got %v", v.Errors())
	}

	v = NewValidator()
	v.RequireNonEmpty("Name", "").
		RequirePositive("Count", -1).
		ValidateRange("Overlap", 20, 0, 10).
		ValidateOneOf("Mode", "medium", "fast", "slow")
	if len(v.Errors()) != 4 {
		t.Fatalf("expected 4 errors, got %v", v.Errors())
	}
}
