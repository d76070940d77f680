// Command tripmate answers travel questions over a local document corpus,
// with optional live weather evidence. The --variant flag selects how
// evidence is gathered and routed.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/spf13/cobra"

	"github.com/sweetpotato0/tripmate/config"
	"github.com/sweetpotato0/tripmate/embedder/openai"
	"github.com/sweetpotato0/tripmate/external"
	"github.com/sweetpotato0/tripmate/gate"
	"github.com/sweetpotato0/tripmate/geo"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/ingest"
	"github.com/sweetpotato0/tripmate/oracle"
	oracleclaude "github.com/sweetpotato0/tripmate/oracle/claude"
	oracleopenai "github.com/sweetpotato0/tripmate/oracle/openai"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/pkg/telemetry"
	"github.com/sweetpotato0/tripmate/rag/adaptive"
	"github.com/sweetpotato0/tripmate/rag/agentic"
	"github.com/sweetpotato0/tripmate/rag/base"
	"github.com/sweetpotato0/tripmate/rag/conversational"
	"github.com/sweetpotato0/tripmate/rag/corrective"
	"github.com/sweetpotato0/tripmate/route"
	"github.com/sweetpotato0/tripmate/vector"
	"github.com/sweetpotato0/tripmate/vector/pg"
	"github.com/sweetpotato0/tripmate/weather"
)

var (
	flagVariant    string
	flagProvider   string
	flagTopK       int
	flagSkipIngest bool
)

// answerer is what every pipeline variant exposes.
type answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type app struct {
	settings *config.Settings
	tables   *config.Tables
	oracle   oracle.Client
	grader   oracle.Client
	embedder vector.Embedder
	index    vector.Index
	external *external.Service
	shutdown func(context.Context) error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tripmate",
		Short:         "Travel assistant over a local corpus with live weather evidence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagVariant, "variant", "corrective",
		"pipeline variant: base, conversational, corrective, adaptive, agentic")
	root.PersistentFlags().StringVar(&flagProvider, "provider", "openai",
		"chat model provider: openai, claude")
	root.PersistentFlags().IntVar(&flagTopK, "top-k", 0,
		"similarity-search depth (0 = configured default)")

	askCmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().BoolVar(&flagSkipIngest, "skip-ingest", false,
		"skip corpus ingestion before answering")

	root.AddCommand(askCmd)
	root.AddCommand(&cobra.Command{
		Use:   "chat",
		Short: "Interactive session keeping conversation history",
		RunE:  runChat,
	})
	root.AddCommand(&cobra.Command{
		Use:   "ingest",
		Short: "Load, chunk, embed, and index the local corpus",
		RunE:  runIngest,
	})
	return root
}

// buildApp wires the full stack. Any failure here is fatal: a missing key
// or unreachable index means no query can be served.
func buildApp(ctx context.Context) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	tables := config.DefaultTables()
	if settings.TablesFile != "" {
		tables, err = config.LoadTables(settings.TablesFile)
		if err != nil {
			return nil, fmt.Errorf("loading routing tables: %w", err)
		}
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "tripmate",
		Disable:     os.Getenv("TRIPMATE_TRACING") == "",
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	chat, err := newOracle(settings, settings.ChatModel)
	if err != nil {
		return nil, err
	}
	grader, err := newOracle(settings, settings.GraderModel)
	if err != nil {
		return nil, err
	}

	index, err := pg.New(&pg.Config{
		DatabaseURL: settings.DatabaseURL,
		Dimension:   settings.EmbedDim,
		TableName:   settings.TableName,
	})
	if err != nil {
		return nil, err
	}

	embed := openai.New(settings.OpenAIAPIKey, "", openaisdk.EmbeddingModel(settings.EmbedModel), settings.EmbedDim)

	geocoder := geo.NewOpenMeteoGeocoder(settings.GeocodingBaseURL, settings.HTTPTimeout)
	resolver := geo.NewResolver(geocoder, tables)
	forecast := weather.NewOpenMeteoClient(settings.ForecastBaseURL, settings.HTTPTimeout)

	return &app{
		settings: settings,
		tables:   tables,
		oracle:   chat,
		grader:   grader,
		embedder: embed,
		index:    index,
		external: external.NewService(chat, resolver, forecast, tables),
		shutdown: shutdown,
	}, nil
}

func newOracle(settings *config.Settings, model string) (oracle.Client, error) {
	switch flagProvider {
	case "openai":
		return oracleopenai.New(&oracleopenai.Config{
			APIKey: settings.OpenAIAPIKey,
			Model:  model,
		}), nil
	case "claude":
		if settings.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
		}
		return oracleclaude.New(&oracleclaude.Config{
			APIKey: settings.AnthropicAPIKey,
			Model:  model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want openai or claude)", flagProvider)
	}
}

func buildPipeline(a *app, hist *history.History) (answerer, error) {
	topK := flagTopK
	if topK <= 0 {
		topK = a.settings.TopK
	}

	switch flagVariant {
	case "base":
		return base.New(a.oracle, a.embedder, a.index, topK), nil
	case "conversational":
		return conversational.New(a.oracle, a.embedder, a.index, hist, topK), nil
	case "corrective":
		return corrective.New(a.oracle, a.embedder, a.index,
			gate.NewGrader(a.grader), a.external, hist, topK), nil
	case "adaptive":
		return adaptive.New(a.oracle, a.embedder, a.index,
			route.NewClassifier(a.oracle), a.external, hist, topK), nil
	case "agentic":
		return agentic.New(a.oracle, a.embedder, a.index, a.external,
			hist, topK, a.settings.MaxIterations), nil
	default:
		return nil, fmt.Errorf("unknown variant %q", flagVariant)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	if !flagSkipIngest {
		if err := ingestCorpus(ctx, a); err != nil {
			return err
		}
	}

	pipeline, err := buildPipeline(a, history.New(a.settings.HistorySize))
	if err != nil {
		return err
	}

	answer, err := pipeline.Answer(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	pipeline, err := buildPipeline(a, history.New(a.settings.HistorySize))
	if err != nil {
		return err
	}

	fmt.Printf("tripmate (%s variant), type 'exit' to quit\n", flagVariant)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}
		answer, err := pipeline.Answer(ctx, question)
		if err != nil {
			logging.WithComponent("cli").Error("query failed", "error", err)
			fmt.Println("Sorry, that query failed:", err)
			continue
		}
		fmt.Println(answer)
	}
	return scanner.Err()
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)
	return ingestCorpus(ctx, a)
}

func ingestCorpus(ctx context.Context, a *app) error {
	chunker, err := ingest.NewChunker(a.settings.EmbedModel, a.settings.ChunkSize, a.settings.ChunkOverlap)
	if err != nil {
		return err
	}
	documents, err := ingest.LoadDocuments(a.settings.DataDir, chunker)
	if err != nil {
		return err
	}
	return ingest.NewIndexer(a.embedder, a.index).Ingest(ctx, documents)
}
