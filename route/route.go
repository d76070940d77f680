// Package route classifies incoming questions into an answering path for
// the adaptive pipeline.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
)

// Route is the answering path chosen for a question.
type Route string

const (
	// RouteDirect answers from the model alone, no retrieval.
	RouteDirect Route = "direct"
	// RouteRetrieval runs a single-pass retrieve-and-synthesize.
	RouteRetrieval Route = "retrieval"
	// RouteAgentic runs the multi-step tool loop.
	RouteAgentic Route = "agentic"
)

// Classifier picks a route with one oracle call over the recent history.
type Classifier struct {
	oracle oracle.Client
	logger *slog.Logger
}

// NewClassifier builds a route classifier on the given oracle.
func NewClassifier(oracleClient oracle.Client) *Classifier {
	return &Classifier{
		oracle: oracleClient,
		logger: logging.WithComponent("query_classifier"),
	}
}

// Classify routes the question. Retrieval is the fallback for both
// unrecognized replies and oracle failures: it conditions the answer on
// evidence rather than model memory alone.
func (c *Classifier) Classify(ctx context.Context, question string, hist *history.History) Route {
	historyText := ""
	if hist != nil {
		historyText = hist.Render()
	}

	prompt := fmt.Sprintf(
		"Choose the best path for this travel query. Respond with one word: direct, rag, or agent.\n"+
			"- direct: greetings, chit-chat, or general knowledge likely known to the model.\n"+
			"- rag: simple factual travel lookups answerable from internal travel docs or a single weather check.\n"+
			"- agent: multi-step planning/analysis (multi-city trips, comparisons, multi-day itineraries).\n\n"+
			"Recent turns:\n%s\n\nQuery: %s",
		historyText, question)

	reply, err := oracle.Ask(ctx, c.oracle, prompt)
	if err != nil {
		c.logger.Debug("classification oracle call failed, defaulting to retrieval", "error", err)
		return RouteRetrieval
	}

	route := Parse(reply)
	c.logger.Debug("classified query", "route", route, "reply", reply)
	return route
}

// Parse maps a classifier reply onto a Route. Matching is case-insensitive
// substring matching in order agent, rag/retrieval, direct; anything else
// defaults to retrieval.
func Parse(reply string) Route {
	lowered := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(lowered, "agent"):
		return RouteAgentic
	case strings.Contains(lowered, "rag"), strings.Contains(lowered, "retrieval"):
		return RouteRetrieval
	case strings.Contains(lowered, "direct"):
		return RouteDirect
	default:
		return RouteRetrieval
	}
}
