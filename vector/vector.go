package vector

import (
	"context"
	"math"
)

// Hit is one similarity-search result, ascending distance ordering
// (lower distance = more relevant).
type Hit struct {
	Title    string
	Content  string
	Distance float64
}

// Index defines the interface for the similarity-indexed document store.
type Index interface {
	// Upsert stores a document embedding keyed by title.
	Upsert(ctx context.Context, title, content string, embedding []float32) error

	// Nearest returns the topK closest documents to the query embedding,
	// ordered by ascending distance.
	Nearest(ctx context.Context, embedding []float32, topK int) ([]Hit, error)

	// Count returns the number of stored documents
	Count(ctx context.Context) (int, error)

	// Clear removes all documents
	Clear(ctx context.Context) error
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineDistance calculates the cosine distance between two vectors,
// matching the pgvector `<->`-style ascending ordering used by Index.
func CosineDistance(a, b []float32) float64 {
	return 1 - float64(CosineSimilarity(a, b))
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
