package adaptive

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/geo"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/route"
	"github.com/sweetpotato0/tripmate/vector"
	"github.com/sweetpotato0/tripmate/weather"
)

type fixedOracle struct {
	reply string
	last  []*message.Message
}

func (f *fixedOracle) Complete(_ context.Context, messages []*message.Message, _ []map[string]any) (*message.Message, error) {
	f.last = messages
	return message.NewMessage(message.RoleAssistant, f.reply), nil
}

func (f *fixedOracle) SetTemperature(float64) {}
func (f *fixedOracle) SetModel(string)       {}

type failingOracle struct{}

func (failingOracle) Complete(context.Context, []*message.Message, []map[string]any) (*message.Message, error) {
	return nil, fmt.Errorf("oracle unavailable")
}
func (failingOracle) SetTemperature(float64) {}
func (failingOracle) SetModel(string)       {}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (stubEmbedder) Dimension() int { return 1 }

type stubIndex struct {
	hits  []vector.Hit
	calls int
	topK  int
}

func (s *stubIndex) Upsert(context.Context, string, string, []float32) error { return nil }
func (s *stubIndex) Count(context.Context) (int, error)                      { return len(s.hits), nil }
func (s *stubIndex) Clear(context.Context) error                             { return nil }
func (s *stubIndex) Nearest(_ context.Context, _ []float32, topK int) ([]vector.Hit, error) {
	s.calls++
	s.topK = topK
	if topK > len(s.hits) {
		topK = len(s.hits)
	}
	return s.hits[:topK], nil
}

type emptyGeocoder struct{}

func (emptyGeocoder) Search(context.Context, string) ([]geo.Place, error) { return nil, nil }

type stubForecast struct{}

func (stubForecast) Forecast(context.Context, float64, float64) (*weather.Report, error) {
	return nil, fmt.Errorf("not reachable in tests")
}

type fixture struct {
	pipeline   *Pipeline
	synth      *fixedOracle
	classifier *fixedOracle
	index      *stubIndex
}

func newFixture(routeReply string) *fixture {
	synth := &fixedOracle{reply: "the answer"}
	classifierOracle := &fixedOracle{reply: routeReply}
	index := &stubIndex{hits: []vector.Hit{
		{Title: "rome", Content: "Rome city guide", Distance: 0.2},
	}}
	service := external.NewService(failingOracle{}, geo.NewResolver(emptyGeocoder{}, nil), stubForecast{}, nil)

	return &fixture{
		pipeline: New(synth, stubEmbedder{}, index,
			route.NewClassifier(classifierOracle), service, history.New(3), 2),
		synth:      synth,
		classifier: classifierOracle,
		index:      index,
	}
}

func TestAnswerDirectSkipsRetrieval(t *testing.T) {
	f := newFixture("direct")

	answer, err := f.pipeline.Answer(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if f.index.calls != 0 {
		t.Fatalf("direct route must not touch the index, got %d calls", f.index.calls)
	}
	if last := f.synth.last[len(f.synth.last)-1]; last.Content != "hello there" {
		t.Fatalf("direct route must pass the question through, got %q", last.Content)
	}
}

func TestAnswerRetrievalRoute(t *testing.T) {
	f := newFixture("rag")

	if _, err := f.pipeline.Answer(context.Background(), "top sights in rome"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if f.index.topK != 2 {
		t.Fatalf("expected configured top-k, got %d", f.index.topK)
	}

	prompt := f.synth.last[len(f.synth.last)-1].Content
	if !strings.HasPrefix(prompt, "Route selected: RAG") {
		t.Fatalf("expected RAG header, got %q", prompt)
	}
	if !strings.Contains(prompt, "Rome city guide") {
		t.Fatalf("expected internal evidence, got %q", prompt)
	}
	if !strings.Contains(prompt, "(mixed)") {
		t.Fatalf("expected external evidence merged in, got %q", prompt)
	}
}

func TestAnswerAgenticRouteDigsDeeper(t *testing.T) {
	f := newFixture("agent")

	if _, err := f.pipeline.Answer(context.Background(), "compare rome and paris for 5 days"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if f.index.topK != agenticMinTopK {
		t.Fatalf("expected deepened top-k %d, got %d", agenticMinTopK, f.index.topK)
	}

	prompt := f.synth.last[len(f.synth.last)-1].Content
	if !strings.HasPrefix(prompt, "Route selected: AGENT") {
		t.Fatalf("expected AGENT header, got %q", prompt)
	}
	if !strings.Contains(prompt, agentInstructions) {
		t.Fatalf("expected planning instructions, got %q", prompt)
	}
}

func TestAnswerUnrecognizedRouteFallsBackToRetrieval(t *testing.T) {
	f := newFixture("banana")

	if _, err := f.pipeline.Answer(context.Background(), "q"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if f.index.calls != 1 {
		t.Fatalf("fallback must retrieve, got %d index calls", f.index.calls)
	}
	prompt := f.synth.last[len(f.synth.last)-1].Content
	if !strings.HasPrefix(prompt, "Route selected: RAG") {
		t.Fatalf("expected retrieval fallback, got %q", prompt)
	}
}

func TestAnswerRecordsTurnOnEveryRoute(t *testing.T) {
	for _, reply := range []string{"direct", "rag", "agent"} {
		f := newFixture(reply)
		if _, err := f.pipeline.Answer(context.Background(), "q"); err != nil {
			t.Fatalf("answer failed for %q: %v", reply, err)
		}
		if f.pipeline.History().Len() != 1 {
			t.Fatalf("route %q: expected recorded turn, got %d", reply, f.pipeline.History().Len())
		}
	}
}
