// Package base implements the single-pass retrieve-and-synthesize pipeline:
// embed the question, fetch top-k chunks, answer from them alone.
package base

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag"
	"github.com/sweetpotato0/tripmate/vector"
)

const systemPrompt = "You are a travel assistant. Use the provided context to answer. " +
	"If the context is insufficient, say you do not have enough information."

// Pipeline is the stateless baseline variant.
type Pipeline struct {
	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	topK        int
	logger      *slog.Logger
}

// New builds the baseline pipeline. topK defaults when non-positive.
func New(oracleClient oracle.Client, embedder vector.Embedder, index vector.Index, topK int) *Pipeline {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Pipeline{
		retriever:   rag.NewRetriever(embedder, index),
		synthesizer: rag.NewSynthesizer(oracleClient, systemPrompt),
		topK:        topK,
		logger:      logging.WithComponent("rag_base"),
	}
}

// Answer retrieves evidence for the question and synthesizes a grounded
// reply.
func (p *Pipeline) Answer(ctx context.Context, question string) (answer string, err error) {
	ctx, span := otel.Tracer("tripmate/rag").Start(ctx, "base.Answer")
	defer func() { telemetry.End(span, err) }()
	span.SetAttributes(attribute.Int("rag.top_k", p.topK))

	chunks, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return "", err
	}

	prompt := rag.BuildPrompt(question, evidence.Texts(chunks), "", "")
	return p.synthesizer.Answer(ctx, prompt, nil)
}
