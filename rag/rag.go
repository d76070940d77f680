// Package rag holds the retrieval and synthesis building blocks shared by
// the pipeline variants.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/tripmate/evidence"
	"github.com/sweetpotato0/tripmate/history"
	"github.com/sweetpotato0/tripmate/message"
	"github.com/sweetpotato0/tripmate/oracle"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/vector"
)

// DefaultTopK is the similarity-search depth used when a caller passes a
// non-positive k.
const DefaultTopK = 3

// Retriever embeds a question and pulls the nearest document chunks from the
// similarity index.
type Retriever struct {
	embedder vector.Embedder
	index    vector.Index
	logger   *slog.Logger
}

// NewRetriever builds a retriever over the given embedder and index.
func NewRetriever(embedder vector.Embedder, index vector.Index) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logging.WithComponent("retriever"),
	}
}

// Retrieve returns the top-k chunks for the question as internal evidence,
// ascending distance. Embedding or index failures propagate: without a
// working index no query can be served.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]evidence.Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := r.index.Nearest(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	chunks := make([]evidence.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, evidence.Internal(hit.Content, hit.Distance))
	}
	r.logger.Debug("retrieved internal evidence", "question", question, "hits", len(chunks))
	return chunks, nil
}

// Synthesizer turns a question plus assembled evidence into the final answer
// with one oracle call at temperature zero.
type Synthesizer struct {
	oracle oracle.Client
	system string
	logger *slog.Logger
}

// NewSynthesizer builds a synthesizer with the given system instructions.
func NewSynthesizer(oracleClient oracle.Client, system string) *Synthesizer {
	oracleClient.SetTemperature(0)
	return &Synthesizer{
		oracle: oracleClient,
		system: system,
		logger: logging.WithComponent("synthesizer"),
	}
}

// Answer completes the prompt with the system instructions and the recent
// history ahead of the user turn. hist may be nil for single-shot variants.
func (s *Synthesizer) Answer(ctx context.Context, prompt string, hist *history.History) (string, error) {
	messages := []*message.Message{message.NewMessage(message.RoleSystem, s.system)}
	if hist != nil {
		messages = append(messages, hist.Messages()...)
	}
	messages = append(messages, message.NewMessage(message.RoleUser, prompt))

	answer, err := oracle.CompleteText(ctx, s.oracle, messages)
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}
	return answer, nil
}

// BuildPrompt renders the evidence as numbered context blocks ahead of the
// question. An empty label yields plain "Context N:" blocks; otherwise each
// block is tagged "Context N (label):". A non-empty header is prepended, used
// by the adaptive variant to surface the chosen route to the model.
func BuildPrompt(question string, contexts []string, label, header string) string {
	blocks := make([]string, 0, len(contexts))
	for i, chunk := range contexts {
		if label == "" {
			blocks = append(blocks, fmt.Sprintf("Context %d:\n%s", i+1, chunk))
		} else {
			blocks = append(blocks, fmt.Sprintf("Context %d (%s):\n%s", i+1, label, chunk))
		}
	}

	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	b.WriteString("Use the context below to answer the question.\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
