// Package conversational implements the history-aware pipeline: the baseline
// flow plus a bounded rolling record of past turns carried into synthesis.
package conversational

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag"
	"github.com/sweetpotato0/tripmate/vector"
)

const systemPrompt = "You are a travel assistant. Use the provided context and recent conversation " +
	"to answer. If context is insufficient, say so."

// Pipeline carries conversation history across queries. History is appended
// to exactly once per completed query, after synthesis.
type Pipeline struct {
	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	history     *history.History
	topK        int
	logger      *slog.Logger
}

// New builds the conversational pipeline. A nil history gets a fresh bounded
// one.
func New(oracleClient oracle.Client, embedder vector.Embedder, index vector.Index, hist *history.History, topK int) *Pipeline {
	if hist == nil {
		hist = history.New(0)
	}
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Pipeline{
		retriever:   rag.NewRetriever(embedder, index),
		synthesizer: rag.NewSynthesizer(oracleClient, systemPrompt),
		history:     hist,
		topK:        topK,
		logger:      logging.WithComponent("rag_conversational"),
	}
}

// History exposes the pipeline's rolling record, mainly for inspection in a
// chat session.
func (p *Pipeline) History() *history.History {
	return p.history
}

// Answer retrieves evidence, synthesizes with history in context, then
// records the completed turn.
func (p *Pipeline) Answer(ctx context.Context, question string) (answer string, err error) {
	ctx, span := otel.Tracer("tripmate/rag").Start(ctx, "conversational.Answer")
	defer func() { telemetry.End(span, err) }()

	chunks, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return "", err
	}

	prompt := rag.BuildPrompt(question, evidence.Texts(chunks), "", "")
	answer, err = p.synthesizer.Answer(ctx, prompt, p.history)
	if err != nil {
		return "", err
	}

	p.history.AddTurn(question, answer)
	return answer, nil
}
