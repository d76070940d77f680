// Package corrective implements the graded pipeline: retrieved evidence is
// judged by a grading gate and, when it falls short, replaced or supplemented
// with live external evidence.
package corrective

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/gate"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag"
	"github.com/sweetpotato0/tripmate/vector"
)

const systemPrompt = "You are a travel assistant. ALWAYS ground your answer in the provided context blocks. " +
	"If any context is marked External API, treat it as current information and use it directly. " +
	"If context is insufficient, state that explicitly."

// Pipeline grades internal evidence before deciding what reaches the prompt.
type Pipeline struct {
	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	grader      *gate.Grader
	external    *external.Service
	history     *history.History
	topK        int
	logger      *slog.Logger
}

// New builds the corrective pipeline.
func New(oracleClient oracle.Client, embedder vector.Embedder, index vector.Index, grader *gate.Grader, externalService *external.Service, hist *history.History, topK int) *Pipeline {
	if hist == nil {
		hist = history.New(0)
	}
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Pipeline{
		retriever:   rag.NewRetriever(embedder, index),
		synthesizer: rag.NewSynthesizer(oracleClient, systemPrompt),
		grader:      grader,
		external:    externalService,
		history:     hist,
		topK:        topK,
		logger:      logging.WithComponent("rag_corrective"),
	}
}

// History exposes the pipeline's rolling record.
func (p *Pipeline) History() *history.History {
	return p.history
}

// Answer retrieves, grades, routes evidence by the grade, and synthesizes.
// The grade decides what reaches the prompt: incorrect drops the internal
// chunks entirely, ambiguous blends both sides, correct stays internal.
// Weather questions always pick up external evidence regardless of grade.
func (p *Pipeline) Answer(ctx context.Context, question string) (answer string, err error) {
	ctx, span := otel.Tracer("tripmate/rag").Start(ctx, "corrective.Answer")
	defer func() { telemetry.End(span, err) }()

	internal, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return "", err
	}

	decision, err := p.grader.Grade(ctx, question, evidence.Texts(internal))
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("gate.decision", string(decision)))

	var contexts []evidence.Chunk
	var provenance evidence.Provenance
	var fetched []evidence.Chunk

	switch decision {
	case gate.DecisionIncorrect:
		fetched = p.searchExternal(ctx, question)
		contexts, provenance = evidence.Merge(nil, fetched)
	case gate.DecisionAmbiguous:
		fetched = p.searchExternal(ctx, question)
		contexts, provenance = evidence.Merge(internal, fetched)
	default:
		contexts, provenance = evidence.Merge(internal, nil)
	}

	if wantsWeather(question) && fetched == nil {
		// Reuse evidence fetched for the grade path; fetch only when the
		// grade kept things internal.
		fetched = p.searchExternal(ctx, question)
		contexts, provenance = evidence.Merge(internal, fetched)
	}
	p.logger.Debug("routed evidence",
		"decision", decision, "provenance", provenance, "contexts", len(contexts))

	prompt := rag.BuildPrompt(question, evidence.Texts(contexts), string(provenance), "")
	answer, err = p.synthesizer.Answer(ctx, prompt, p.history)
	if err != nil {
		return "", err
	}

	p.history.AddTurn(question, answer)
	return answer, nil
}

func (p *Pipeline) searchExternal(ctx context.Context, question string) []evidence.Chunk {
	result := p.external.Search(ctx, question)
	chunks := make([]evidence.Chunk, 0, len(result.Contexts))
	for _, text := range result.Contexts {
		chunks = append(chunks, evidence.External(text))
	}
	for _, reason := range result.Degraded {
		p.logger.Debug("external evidence degraded", "reason", reason)
	}
	return chunks
}

func wantsWeather(question string) bool {
	lowered := strings.ToLower(question)
	return strings.Contains(lowered, "weather") || strings.Contains(lowered, "forecast")
}
