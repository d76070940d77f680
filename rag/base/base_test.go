package base

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/vector"
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
	hits []vector.Hit
	err  error
}

func (s *stubIndex) Upsert(context.Context, string, string, []float32) error { return nil }
func (s *stubIndex) Count(context.Context) (int, error)                      { return len(s.hits), nil }
func (s *stubIndex) Clear(context.Context) error                             { return nil }
func (s *stubIndex) Nearest(_ context.Context, _ []float32, topK int) ([]vector.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK > len(s.hits) {
		topK = len(s.hits)
	}
	return s.hits[:topK], nil
}

func TestAnswerGroundsInRetrievedContext(t *testing.T) {
	oracle := &fixedOracle{reply: "Go in May."}
	index := &stubIndex{hits: []vector.Hit{
		{Title: "kyoto", Content: "Kyoto is best in spring.", Distance: 0.05},
	}}
	p := New(oracle, stubEmbedder{}, index, 1)

	answer, err := p.Answer(context.Background(), "when to visit kyoto?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "Go in May." {
		t.Fatalf("unexpected answer %q", answer)
	}

	prompt := oracle.last[len(oracle.last)-1].Content
	if !strings.Contains(prompt, "Context 1:\nKyoto is best in spring.") {
		t.Fatalf("expected unlabeled context block, got %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: when to visit kyoto?") {
		t.Fatalf("prompt must end with the question: %q", prompt)
	}
	if oracle.last[0].Role != message.RoleSystem {
		t.Fatalf("expected system message first, got %q", oracle.last[0].Role)
	}
}

func TestAnswerIndexFailurePropagates(t *testing.T) {
	p := New(&fixedOracle{}, stubEmbedder{}, &stubIndex{err: fmt.Errorf("index down")}, 1)
	if _, err := p.Answer(context.Background(), "q"); err == nil {
		t.Fatal("expected retrieval failure to propagate")
	}
}
