// Package adaptive implements the routed pipeline: a classifier picks
// direct, retrieval, or agentic handling per question, and the chosen route
// shapes how much evidence is gathered.
package adaptive

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag"
	"github.com/sweetpotato0/tripmate/route"
	"github.com/sweetpotato0/tripmate/vector"
)

const (
	systemPrompt = "You are a travel assistant. ALWAYS ground your answer in provided context blocks. " +
		"Treat External API context as current information. If context is insufficient, say so."
	directSystemPrompt = "You are a concise travel assistant. Answer briefly without retrieval."

	agentInstructions = "Plan or compare step-by-step. Use all relevant contexts. If something is missing, note it."

	// The agentic route digs deeper into the index than the single-pass one.
	agenticMinTopK = 4
)

// Pipeline routes each question before answering it.
type Pipeline struct {
	oracle      oracle.Client
	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	classifier  *route.Classifier
	external    *external.Service
	history     *history.History
	topK        int
	logger      *slog.Logger
}

// New builds the adaptive pipeline.
func New(oracleClient oracle.Client, embedder vector.Embedder, index vector.Index, classifier *route.Classifier, externalService *external.Service, hist *history.History, topK int) *Pipeline {
	if hist == nil {
		hist = history.New(0)
	}
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Pipeline{
		oracle:      oracleClient,
		retriever:   rag.NewRetriever(embedder, index),
		synthesizer: rag.NewSynthesizer(oracleClient, systemPrompt),
		classifier:  classifier,
		external:    externalService,
		history:     hist,
		topK:        topK,
		logger:      logging.WithComponent("rag_adaptive"),
	}
}

// History exposes the pipeline's rolling record.
func (p *Pipeline) History() *history.History {
	return p.history
}

// Answer classifies the question, runs the chosen route, and records the
// completed turn.
func (p *Pipeline) Answer(ctx context.Context, question string) (answer string, err error) {
	ctx, span := otel.Tracer("tripmate/rag").Start(ctx, "adaptive.Answer")
	defer func() { telemetry.End(span, err) }()

	chosen := p.classifier.Classify(ctx, question, p.history)
	span.SetAttributes(attribute.String("route", string(chosen)))
	p.logger.Debug("routing question", "route", chosen)

	switch chosen {
	case route.RouteDirect:
		answer, err = p.answerDirect(ctx, question)
	case route.RouteAgentic:
		answer, err = p.answerGrounded(ctx, question, max(p.topK, agenticMinTopK),
			"Route selected: AGENT\n"+agentInstructions)
	default:
		answer, err = p.answerGrounded(ctx, question, p.topK, "Route selected: RAG")
	}
	if err != nil {
		return "", err
	}

	p.history.AddTurn(question, answer)
	return answer, nil
}

// answerDirect skips retrieval entirely and answers from the model plus
// history.
func (p *Pipeline) answerDirect(ctx context.Context, question string) (string, error) {
	messages := []*message.Message{message.NewMessage(message.RoleSystem, directSystemPrompt)}
	messages = append(messages, p.history.Messages()...)
	messages = append(messages, message.NewMessage(message.RoleUser, question))
	return oracle.CompleteText(ctx, p.oracle, messages)
}

// answerGrounded runs the evidence-backed path shared by the retrieval and
// agentic routes: internal top-k plus external live evidence, merged.
func (p *Pipeline) answerGrounded(ctx context.Context, question string, k int, header string) (string, error) {
	internal, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return "", err
	}

	result := p.external.Search(ctx, question)
	externalChunks := make([]evidence.Chunk, 0, len(result.Contexts))
	for _, text := range result.Contexts {
		externalChunks = append(externalChunks, evidence.External(text))
	}

	contexts, provenance := evidence.Merge(internal, externalChunks)
	prompt := rag.BuildPrompt(question, evidence.Texts(contexts), string(provenance), header)
	return p.synthesizer.Answer(ctx, prompt, p.history)
}
