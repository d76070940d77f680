package agentic

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/tripmate/errors"
	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/geo"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/vector"
	"github.com/sweetpotato0/tripmate/weather"
)

// scriptedOracle replays canned assistant messages; each call also records
// the messages it was handed.
type scriptedOracle struct {
	replies []*message.Message
	calls   int
	seen    [][]*message.Message
}

func (s *scriptedOracle) Complete(_ context.Context, messages []*message.Message, _ []map[string]any) (*message.Message, error) {
	s.seen = append(s.seen, messages)
	if s.calls >= len(s.replies) {
		return nil, fmt.Errorf("script exhausted after %d calls", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedOracle) SetTemperature(float64) {}
func (s *scriptedOracle) SetModel(string)       {}

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

type stubIndex struct{ hits []vector.Hit }

func (s *stubIndex) Upsert(context.Context, string, string, []float32) error { return nil }
func (s *stubIndex) Count(context.Context) (int, error)                      { return len(s.hits), nil }
func (s *stubIndex) Clear(context.Context) error                             { return nil }
func (s *stubIndex) Nearest(_ context.Context, _ []float32, topK int) ([]vector.Hit, error) {
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

func toolCallReply(id, name, query string) *message.Message {
	reply := message.NewMessage(message.RoleAssistant, "")
	reply.ToolCalls = []message.ToolCall{
		{ID: id, Name: name, Args: map[string]any{"query": query}},
	}
	return reply
}

func newPipeline(oracle *scriptedOracle, maxIterations int) *Pipeline {
	index := &stubIndex{hits: []vector.Hit{
		{Title: "alps", Content: "Alps hiking guide", Distance: 0.1},
	}}
	service := external.NewService(failingOracle{}, geo.NewResolver(emptyGeocoder{}, nil), stubForecast{}, nil)
	return New(oracle, stubEmbedder{}, index, service, history.New(3), 2, maxIterations)
}

func TestAnswerToolCallThenFinal(t *testing.T) {
	oracle := &scriptedOracle{replies: []*message.Message{
		toolCallReply("call-1", ToolVectorSearch, "alps hiking"),
		message.NewMessage(message.RoleAssistant, "Hike the Alps in June."),
	}}
	p := newPipeline(oracle, 0)

	answer, err := p.Answer(context.Background(), "where should I hike?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "Hike the Alps in June." {
		t.Fatalf("expected second reply as answer, got %q", answer)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected exactly 2 plan steps, got %d", oracle.calls)
	}

	// The second plan step must see the tool result, keyed to its call.
	second := oracle.seen[1]
	last := second[len(second)-1]
	if last.Role != message.RoleTool {
		t.Fatalf("expected trailing tool result, got role %q", last.Role)
	}
	if last.ToolID != "call-1" {
		t.Fatalf("tool result must carry the originating call id, got %q", last.ToolID)
	}
	if !strings.Contains(last.Content, "Alps hiking guide") {
		t.Fatalf("expected index content in tool result, got %q", last.Content)
	}
	if len(second) != len(oracle.seen[0])+2 {
		t.Fatalf("messages must grow append-only by assistant+tool, got %d then %d",
			len(oracle.seen[0]), len(second))
	}

	if p.History().Len() != 1 {
		t.Fatalf("expected the turn recorded, got %d", p.History().Len())
	}
}

func TestAnswerWeatherToolUsesSentinel(t *testing.T) {
	oracle := &scriptedOracle{replies: []*message.Message{
		toolCallReply("call-9", ToolWeatherLookup, "weather in nowhere"),
		message.NewMessage(message.RoleAssistant, "done"),
	}}
	p := newPipeline(oracle, 0)

	if _, err := p.Answer(context.Background(), "weather?"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	second := oracle.seen[1]
	last := second[len(second)-1]
	// The external service degrades to its placeholder rather than erroring.
	if !strings.Contains(last.Content, "No live data available") {
		t.Fatalf("expected placeholder evidence, got %q", last.Content)
	}
}

func TestAnswerNoToolsAnswersImmediately(t *testing.T) {
	oracle := &scriptedOracle{replies: []*message.Message{
		message.NewMessage(message.RoleAssistant, "Just go to Kyoto."),
	}}
	p := newPipeline(oracle, 0)

	answer, err := p.Answer(context.Background(), "one city in japan?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "Just go to Kyoto." || oracle.calls != 1 {
		t.Fatalf("expected single plan step, got %q after %d calls", answer, oracle.calls)
	}
}

func TestAnswerIterationCap(t *testing.T) {
	// Every plan step requests another tool call; the loop must stop at the
	// cap instead of spinning.
	oracle := &scriptedOracle{replies: []*message.Message{
		toolCallReply("c1", ToolVectorSearch, "a"),
		toolCallReply("c2", ToolVectorSearch, "b"),
		toolCallReply("c3", ToolVectorSearch, "c"),
	}}
	p := newPipeline(oracle, 2)

	_, err := p.Answer(context.Background(), "loop forever")
	if !stderrors.Is(err, errors.ErrMaxIterations) {
		t.Fatalf("expected ErrMaxIterations, got %v", err)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected the cap to stop at 2 plan steps, got %d", oracle.calls)
	}
	if p.History().Len() != 0 {
		t.Fatalf("a capped turn with no content must not be recorded, got %d", p.History().Len())
	}
}

func TestAnswerIterationCapKeepsPartialContent(t *testing.T) {
	partial := message.NewMessage(message.RoleAssistant, "So far: the Alps look good.")
	partial.ToolCalls = []message.ToolCall{
		{ID: "c1", Name: ToolVectorSearch, Args: map[string]any{"query": "alps"}},
	}
	oracle := &scriptedOracle{replies: []*message.Message{partial}}
	p := newPipeline(oracle, 1)

	answer, err := p.Answer(context.Background(), "plan a trip")
	if err != nil {
		t.Fatalf("expected partial answer, got error %v", err)
	}
	if answer != "So far: the Alps look good." {
		t.Fatalf("expected partial content surfaced, got %q", answer)
	}
}
