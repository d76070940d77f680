// Package agentic implements the tool-loop pipeline: the model plans, calls
// the bound evidence tools, observes their results, and decides when it has
// enough to answer.
package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/tripmate/errors"
	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag"
	"github.com/sweetpotato0/tripmate/tool"
	"github.com/sweetpotato0/tripmate/vector"
)

const (
	systemPrompt = "You are an agentic travel assistant. Plan, reason, and use tools to gather evidence. " +
		"Cite sources from tool outputs. If insufficient info, say so."

	// ToolVectorSearch searches the internal document index.
	ToolVectorSearch = "vector_search"
	// ToolWeatherLookup fetches live external evidence.
	ToolWeatherLookup = "weather_lookup"

	noInternalResults = "No internal results."
	noExternalResults = "No external weather results."

	// DefaultMaxIterations bounds the plan/act loop. An oracle that keeps
	// requesting tools would otherwise never terminate.
	DefaultMaxIterations = 10
)

// Pipeline runs the bounded plan/act loop over the two evidence tools.
type Pipeline struct {
	oracle        oracle.Client
	retriever     *rag.Retriever
	external      *external.Service
	registry      *tool.Registry
	history       *history.History
	topK          int
	maxIterations int
	logger        *slog.Logger
}

// New builds the agentic pipeline. maxIterations defaults when non-positive.
func New(oracleClient oracle.Client, embedder vector.Embedder, index vector.Index, externalService *external.Service, hist *history.History, topK, maxIterations int) *Pipeline {
	if hist == nil {
		hist = history.New(0)
	}
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	oracleClient.SetTemperature(0)

	p := &Pipeline{
		oracle:        oracleClient,
		retriever:     rag.NewRetriever(embedder, index),
		external:      externalService,
		registry:      tool.NewRegistry(),
		history:       hist,
		topK:          topK,
		maxIterations: maxIterations,
		logger:        logging.WithComponent("rag_agentic"),
	}
	p.bindTools()
	return p
}

// History exposes the pipeline's rolling record.
func (p *Pipeline) History() *history.History {
	return p.history
}

func (p *Pipeline) bindTools() {
	p.registry.Register(&tool.Tool{
		Name:        ToolVectorSearch,
		Description: "Search internal travel docs.",
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Search query for the internal travel documents.", Required: true},
		},
		Handler: p.vectorSearch,
	})
	p.registry.Register(&tool.Tool{
		Name:        ToolWeatherLookup,
		Description: "Get weather for relevant locations.",
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Request naming the locations to look up.", Required: true},
		},
		Handler: p.weatherLookup,
	})
}

func (p *Pipeline) vectorSearch(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	chunks, err := p.retriever.Retrieve(ctx, query, p.topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return noInternalResults, nil
	}
	return strings.Join(evidence.Texts(chunks), "\n\n"), nil
}

func (p *Pipeline) weatherLookup(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	result := p.external.Search(ctx, query)
	if len(result.Contexts) == 0 {
		return noExternalResults, nil
	}
	return strings.Join(result.Contexts, "\n\n"), nil
}

// Answer runs the plan/act loop until the model answers without requesting
// tools or the iteration cap is hit. The message sequence is append-only and
// every tool result carries its originating call's identifier.
func (p *Pipeline) Answer(ctx context.Context, question string) (answer string, err error) {
	ctx, span := otel.Tracer("tripmate/rag").Start(ctx, "agentic.Answer")
	defer func() { telemetry.End(span, err) }()

	messages := []*message.Message{message.NewMessage(message.RoleSystem, systemPrompt)}
	messages = append(messages, p.history.Messages()...)
	messages = append(messages, message.NewMessage(message.RoleUser, question))

	schemas := p.registry.ToJSONSchemas()
	lastContent := ""

	for iteration := 0; iteration < p.maxIterations; iteration++ {
		reply, err := p.oracle.Complete(ctx, messages, schemas)
		if err != nil {
			return "", fmt.Errorf("plan step %d failed: %w", iteration+1, err)
		}
		messages = append(messages, reply)
		if reply.Content != "" {
			lastContent = reply.Content
		}

		if len(reply.ToolCalls) == 0 {
			span.SetAttributes(attribute.Int("agent.iterations", iteration+1))
			p.history.AddTurn(question, reply.Content)
			return reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			output, err := p.registry.Execute(ctx, call.Name, call.Args)
			if err != nil {
				output = fmt.Sprintf("tool %s failed: %v", call.Name, err)
			}
			p.logger.Debug("executed tool", "tool", call.Name, "call_id", call.ID)
			messages = append(messages, message.NewToolResponseMessage(call.ID, output))
		}
	}

	// Cap reached with tools still being requested. Surface the best partial
	// answer instead of looping forever.
	p.logger.Warn("iteration cap reached", "max_iterations", p.maxIterations)
	if lastContent == "" {
		return "", fmt.Errorf("no answer after %d iterations: %w", p.maxIterations, errors.ErrMaxIterations)
	}
	p.history.AddTurn(question, lastContent)
	return lastContent, nil
}
