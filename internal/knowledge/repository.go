// Package knowledge is the retrieval side of the knowledge base: passages
// with embeddings stored in Postgres, searched by cosine similarity through
// pgvector. Indexing happens out of band; the engine only searches.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Passage is one indexed document chunk.
type Passage struct {
	ID        uuid.UUID       `json:"id"`
	Source    string          `json:"source"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SearchResult pairs a passage with its similarity to the query.
type SearchResult struct {
	Passage    Passage `json:"passage"`
	Similarity float64 `json:"similarity"`
}

// Repository defines knowledge persistence operations.
type Repository interface {
	Add(ctx context.Context, p *Passage, embedding []float32) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]SearchResult, error)
}

// PostgresRepository implements Repository using pgx + pgvector.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new knowledge repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Add(ctx context.Context, p *Passage, embedding []float32) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	metadata := p.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO knowledge_passages (id, source, content, embedding, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Source, p.Content, pgvector.NewVector(embedding), metadata,
	)
	if err != nil {
		return fmt.Errorf("inserting passage: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]SearchResult, error) {
	vec := pgvector.NewVector(embedding)
	rows, err := r.pool.Query(ctx,
		`SELECT id, source, content, metadata, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM knowledge_passages
		 WHERE 1 - (embedding <=> $1) >= $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching passages: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var p Passage
		var similarity float64
		if err := rows.Scan(&p.ID, &p.Source, &p.Content, &p.Metadata, &p.CreatedAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, SearchResult{Passage: p, Similarity: similarity})
	}
	return results, rows.Err()
}
