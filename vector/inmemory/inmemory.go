package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/sweetpotato0/tripmate/vector"
)

type document struct {
	title     string
	content   string
	embedding []float32
}

// Store is an in-memory vector.Index used by tests and offline runs.
type Store struct {
	mu   sync.RWMutex
	docs map[string]document
}

// New creates an empty in-memory index.
func New() *Store {
	return &Store{docs: make(map[string]document)}
}

// Upsert stores a document embedding keyed by title.
func (s *Store) Upsert(ctx context.Context, title, content string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	s.docs[title] = document{title: title, content: content, embedding: vec}
	return nil
}

// Nearest returns the topK closest documents by cosine distance.
func (s *Store) Nearest(ctx context.Context, embedding []float32, topK int) ([]vector.Hit, error) {
	if topK <= 0 {
		topK = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]vector.Hit, 0, len(s.docs))
	for _, doc := range s.docs {
		hits = append(hits, vector.Hit{
			Title:    doc.title,
			Content:  doc.content,
			Distance: vector.CosineDistance(embedding, doc.embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of stored documents
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Clear removes all documents
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]document)
	return nil
}
