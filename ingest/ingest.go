// Package ingest loads the local travel corpus, splits it into token
// windows, and writes embedded chunks into the similarity index.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sweetpotato0/tripmate/errors"
	"github.com/sweetpotato0/tripmate/pkg/logging"
	"github.com/sweetpotato0/tripmate/vector"
)

// Document is one chunk of corpus text ready for embedding, keyed by title.
type Document struct {
	Title   string
	Content string
}

// Splitter breaks document text into indexable chunks.
type Splitter interface {
	Chunk(text string) []string
}

// Chunker splits text into overlapping token windows using the tiktoken
// codec for the embedding model, so chunk sizes line up with what the
// embedder actually counts.
type Chunker struct {
	enc       *tiktoken.Tiktoken
	chunkSize int
	overlap   int
}

// NewChunker builds a chunker for the given model (encoding name accepted as
// a fallback). chunkSize and overlap are in tokens.
func NewChunker(model string, chunkSize, overlap int) (*Chunker, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(model)
		if err != nil {
			return nil, fmt.Errorf("loading tokenizer for %q: %w", model, err)
		}
	}
	if chunkSize <= 0 {
		chunkSize = 256
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	return &Chunker{enc: enc, chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into overlapping windows. The start index always
// advances, so the loop terminates for any overlap < chunkSize.
func (c *Chunker) Chunk(text string) []string {
	ids := c.enc.Encode(text, nil, nil)
	if len(ids) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(ids) {
		end := start + c.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, strings.TrimSpace(c.enc.Decode(ids[start:end])))
		if end == len(ids) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// LoadDocuments reads every .txt file under dataDir in name order and
// returns its chunked contents. Titles are "<stem>-chunk-<n>" so re-ingestion
// overwrites rather than duplicates. An empty corpus is an error: serving
// queries against a blank index silently answers everything from nothing.
func LoadDocuments(dataDir string, chunker Splitter) ([]Document, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory %s: %w", dataDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var documents []Document
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dataDir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			continue
		}
		stem := strings.TrimSuffix(name, ".txt")
		for i, chunk := range chunker.Chunk(content) {
			documents = append(documents, Document{
				Title:   fmt.Sprintf("%s-chunk-%d", stem, i+1),
				Content: chunk,
			})
		}
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no .txt documents in %s: %w", dataDir, errors.ErrNotFound)
	}
	return documents, nil
}

// Indexer embeds documents and writes them into the similarity index.
type Indexer struct {
	embedder  vector.Embedder
	index     vector.Index
	batchSize int
	logger    *slog.Logger
}

// NewIndexer builds an indexer over the given embedder and index.
func NewIndexer(embedder vector.Embedder, index vector.Index) *Indexer {
	return &Indexer{
		embedder:  embedder,
		index:     index,
		batchSize: 64,
		logger:    logging.WithComponent("indexer"),
	}
}

// Ingest embeds the documents in batches and upserts them keyed by title.
func (ix *Indexer) Ingest(ctx context.Context, documents []Document) error {
	for start := 0; start < len(documents); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(documents) {
			end = len(documents)
		}
		batch := documents[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}
		embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding batch at %d: got %d vectors for %d texts", start, len(embeddings), len(batch))
		}

		for i, doc := range batch {
			if err := ix.index.Upsert(ctx, doc.Title, doc.Content, embeddings[i]); err != nil {
				return fmt.Errorf("upserting %s: %w", doc.Title, err)
			}
		}
		ix.logger.Debug("ingested batch", "from", start, "count", len(batch))
	}
	ix.logger.Info("ingestion complete", "documents", len(documents))
	return nil
}
