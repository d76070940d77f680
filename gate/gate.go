// Package gate grades retrieved evidence before synthesis. The grade decides
// whether the corrective pipeline trusts the index, goes live, or blends
// both.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
)

// Decision is the three-way outcome of grading evidence against a question.
type Decision string

const (
	// DecisionCorrect means the evidence is sufficient to answer directly.
	DecisionCorrect Decision = "correct"
	// DecisionAmbiguous means the evidence is partially relevant.
	DecisionAmbiguous Decision = "ambiguous"
	// DecisionIncorrect means the evidence is irrelevant or missing.
	DecisionIncorrect Decision = "incorrect"
)

// Grader asks a grading model to judge whether retrieved contexts can answer
// the question.
type Grader struct {
	oracle oracle.Client
	logger *slog.Logger
}

// NewGrader builds a grader on the given oracle. Callers configure the
// grading model on the client before handing it over.
func NewGrader(oracleClient oracle.Client) *Grader {
	return &Grader{
		oracle: oracleClient,
		logger: logging.WithComponent("decision_gate"),
	}
}

// Grade judges the contexts against the question. Empty contexts grade
// incorrect without an oracle call. Oracle failures propagate so callers can
// distinguish "evidence is bad" from "the grader is down".
func (g *Grader) Grade(ctx context.Context, question string, contexts []string) (Decision, error) {
	if len(contexts) == 0 {
		g.logger.Debug("no contexts to grade", "question", question)
		return DecisionIncorrect, nil
	}

	prompt := fmt.Sprintf(
		"You are evaluating retrieved travel context for a question.\n"+
			"Label as one of: Correct, Ambiguous, Incorrect.\n"+
			"- Correct: The context clearly answers or supports the question.\n"+
			"- Ambiguous: The context is related but incomplete, location-mismatched, or possibly outdated.\n"+
			"- Incorrect: The context is unrelated, contradictory, or missing.\n\n"+
			"Question: %s\n\nContexts:\n%s\n\n"+
			"Answer with only one word: Correct, Ambiguous, or Incorrect.",
		question, formatContexts(contexts))

	reply, err := oracle.CompleteText(ctx, g.oracle, []*message.Message{
		message.NewMessage(message.RoleSystem, "You grade retrieved passages."),
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("grading failed: %w", err)
	}

	decision := Parse(reply)
	g.logger.Debug("graded evidence", "decision", decision, "reply", reply)
	return decision, nil
}

// Parse maps a grader reply onto a Decision. Matching is case-insensitive and
// checks "correct" before "ambiguous"; anything else grades incorrect.
func Parse(reply string) Decision {
	lowered := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(lowered, "correct"):
		return DecisionCorrect
	case strings.Contains(lowered, "ambiguous"):
		return DecisionAmbiguous
	default:
		return DecisionIncorrect
	}
}

func formatContexts(contexts []string) string {
	lines := make([]string, 0, len(contexts))
	for _, ctx := range contexts {
		lines = append(lines, "- "+ctx)
	}
	return strings.Join(lines, "\n\n")
}
