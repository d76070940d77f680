package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/tripmate/vector"
)

// Store implements vector.Index using PostgreSQL with the pgvector extension.
// Documents are keyed by title; re-ingesting a title replaces its content and
// embedding.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
}

// Config holds pgvector configuration
type Config struct {
	DatabaseURL string
	Dimension   int    // Embedding dimension (default: 1536 for OpenAI)
	TableName   string // Table name (default: travel_docs)
}

// DefaultConfig returns default pgvector configuration
func DefaultConfig(databaseURL string) *Config {
	return &Config{
		DatabaseURL: databaseURL,
		Dimension:   1536,
		TableName:   "travel_docs",
	}
}

// New connects to PostgreSQL and provisions the document table. Connectivity
// failures here are fatal by contract: no query can be served without the
// index, so construction must abort with a clear diagnostic.
func New(config *Config) (*Store, error) {
	if config == nil || config.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector: DatabaseURL is required")
	}
	if config.Dimension <= 0 {
		config.Dimension = 1536
	}
	if config.TableName == "" {
		config.TableName = "travel_docs"
	}

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector: open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pgvector: PostgreSQL unreachable at DATABASE_URL: %w", err)
	}

	store := &Store{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}
	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("pgvector: setup schema: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension (run CREATE EXTENSION vector as superuser if this fails): %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		title TEXT UNIQUE,
		content TEXT,
		embedding vector(%d)
	)`, s.tableName, s.dimension)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create ivfflat index: %w", err)
	}
	return nil
}

// Upsert stores a document embedding keyed by title.
func (s *Store) Upsert(ctx context.Context, title, content string, embedding []float32) error {
	if title == "" {
		return fmt.Errorf("document title cannot be empty")
	}
	if len(embedding) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (title, content, embedding)
	VALUES ($1, $2, $3::vector)
	ON CONFLICT (title) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, title, content, vectorToString(embedding)); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Nearest returns the topK closest documents by cosine distance.
func (s *Store) Nearest(ctx context.Context, embedding []float32, topK int) ([]vector.Hit, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("query embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}
	if topK <= 0 {
		topK = 3
	}

	query := fmt.Sprintf(`
	SELECT title, content, (embedding <-> $1::vector) AS distance
	FROM %s
	ORDER BY embedding <-> $1::vector
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	hits := make([]vector.Hit, 0, topK)
	for rows.Next() {
		var hit vector.Hit
		if err := rows.Scan(&hit.Title, &hit.Content, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return hits, nil
}

// Count returns the number of stored documents
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Clear removes all documents
func (s *Store) Clear(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
