package external

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/tripmate/geo"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/weather"
)

// scriptedOracle replays canned replies in order, erroring once exhausted.
type scriptedOracle struct {
	replies []string
	calls   int
}

func (s *scriptedOracle) Complete(_ context.Context, _ []*message.Message, _ []map[string]any) (*message.Message, error) {
	s.calls++
	if len(s.replies) == 0 {
		return nil, fmt.Errorf("oracle unavailable")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return message.NewMessage(message.RoleAssistant, reply), nil
}

func (s *scriptedOracle) SetTemperature(float64) {}
func (s *scriptedOracle) SetModel(string)       {}

type stubGeocoder struct {
	hits map[string]geo.Place
}

func (g *stubGeocoder) Search(_ context.Context, name string) ([]geo.Place, error) {
	if place, ok := g.hits[strings.ToLower(name)]; ok {
		return []geo.Place{place}, nil
	}
	return nil, nil
}

type stubForecast struct {
	report *weather.Report
	err    error
}

func (f *stubForecast) Forecast(_ context.Context, _, _ float64) (*weather.Report, error) {
	return f.report, f.err
}

func newService(oracle *scriptedOracle, geocoder *stubGeocoder, forecast *stubForecast) *Service {
	return NewService(oracle, geo.NewResolver(geocoder, nil), forecast, nil)
}

func TestSearchResolvesMisspelledLocation(t *testing.T) {
	// Oracle down: tool selection still works via keywords and the raw query
	// falls through the candidate ladder.
	oracle := &scriptedOracle{}
	geocoder := &stubGeocoder{hits: map[string]geo.Place{
		"weather in texas": {Latitude: 31.0, Longitude: -100.0, Name: "Texas"},
	}}
	forecast := &stubForecast{report: &weather.Report{Temperature: 28, WindSpeed: 12, Code: 1, TodayHigh: 33, TodayLow: 21, PrecipChance: 10, HasDaily: true}}

	result := newService(oracle, geocoder, forecast).Search(context.Background(), "weather in tecas")

	if result.Tool != ToolWeatherForecast {
		t.Fatalf("expected weather tool from keywords, got %q", result.Tool)
	}
	if len(result.Contexts) != 1 {
		t.Fatalf("expected one evidence string, got %v", result.Contexts)
	}
	if !strings.Contains(result.Contexts[0], "Texas") {
		t.Fatalf("expected evidence for Texas, got %q", result.Contexts[0])
	}
	if !strings.HasPrefix(result.Contexts[0], "(External API) Weather for Texas") {
		t.Fatalf("unexpected evidence framing: %q", result.Contexts[0])
	}
}

func TestSearchRoutesToolViaOracle(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{
		"weather_forecast", // tool routing
		"Oslo",             // location extraction
		"Oslo, Norway",     // normalization
	}}
	geocoder := &stubGeocoder{hits: map[string]geo.Place{
		"oslo, norway": {Latitude: 59.9, Longitude: 10.7, Name: "Oslo"},
	}}
	forecast := &stubForecast{report: &weather.Report{Temperature: 8, HasDaily: true}}

	result := newService(oracle, geocoder, forecast).Search(context.Background(), "what should I pack for Oslo")

	if result.Tool != ToolWeatherForecast {
		t.Fatalf("expected oracle-routed weather tool, got %q", result.Tool)
	}
	if len(result.Contexts) != 1 || !strings.Contains(result.Contexts[0], "Oslo") {
		t.Fatalf("expected Oslo evidence, got %v", result.Contexts)
	}
}

func TestSearchMultipleLocations(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{
		"Dallas, Austin", // extraction (keyword match skipped routing)
		"Dallas, Texas",  // normalize first
		"Austin, Texas",  // normalize second
	}}
	geocoder := &stubGeocoder{hits: map[string]geo.Place{
		"dallas, texas": {Latitude: 32.78, Longitude: -96.8, Name: "Dallas"},
		"austin, texas": {Latitude: 30.27, Longitude: -97.74, Name: "Austin"},
	}}
	forecast := &stubForecast{report: &weather.Report{Temperature: 30}}

	result := newService(oracle, geocoder, forecast).Search(context.Background(), "weather for my Dallas and Austin trip")

	if len(result.Contexts) != 2 {
		t.Fatalf("expected evidence per location, got %v", result.Contexts)
	}
	if !strings.Contains(result.Contexts[0], "Dallas") || !strings.Contains(result.Contexts[1], "Austin") {
		t.Fatalf("expected location order preserved, got %v", result.Contexts)
	}
}

func TestSearchPlaceholderWhenNoToolMatches(t *testing.T) {
	oracle := &scriptedOracle{} // routing and extraction both fail
	result := newService(oracle, &stubGeocoder{}, &stubForecast{}).Search(context.Background(), "tell me a joke")

	if result.Tool != "" {
		t.Fatalf("expected no tool, got %q", result.Tool)
	}
	want := "(External API) No live data available for: tell me a joke (tool selected: )"
	if len(result.Contexts) != 1 || result.Contexts[0] != want {
		t.Fatalf("expected placeholder %q, got %v", want, result.Contexts)
	}
}

func TestSearchDegradedWhenNothingResolves(t *testing.T) {
	oracle := &scriptedOracle{}
	result := newService(oracle, &stubGeocoder{}, &stubForecast{}).Search(context.Background(), "weather in atlantis")

	if len(result.Contexts) != 1 || !strings.Contains(result.Contexts[0], "No live data available") {
		t.Fatalf("expected placeholder, got %v", result.Contexts)
	}
	if len(result.Degraded) == 0 {
		t.Fatal("expected a degraded reason for the unresolvable location")
	}
}

func TestSearchForecastFailureDegrades(t *testing.T) {
	oracle := &scriptedOracle{}
	geocoder := &stubGeocoder{hits: map[string]geo.Place{
		"weather in texas": {Latitude: 31.0, Longitude: -100.0, Name: "Texas"},
	}}
	forecast := &stubForecast{err: fmt.Errorf("upstream 503")}

	result := newService(oracle, geocoder, forecast).Search(context.Background(), "weather in tecas")

	if !strings.Contains(result.Contexts[0], "No live data available") {
		t.Fatalf("expected placeholder after forecast failure, got %v", result.Contexts)
	}
	if len(result.Degraded) != 1 || !strings.Contains(result.Degraded[0], "forecast fetch failed") {
		t.Fatalf("expected forecast failure reason, got %v", result.Degraded)
	}
}
