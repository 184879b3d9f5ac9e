package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGVectorIndex is a namespaced nearest-neighbor index backed by a
// pgvector table. Namespace isolation is native: every row carries its
// namespace and search is filtered server-side.
type PGVectorIndex struct {
	db       *pgxpool.Pool
	embedder Embedder
}

// NewPGVectorIndex creates an index over an existing pgx pool
func NewPGVectorIndex(db *pgxpool.Pool, embedder Embedder) *PGVectorIndex {
	return &PGVectorIndex{db: db, embedder: embedder}
}

// EnsureSchema creates the clause_vectors table and its search index if
// they do not exist. The pgvector extension must already be enabled.
func (p *PGVectorIndex) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clause_vectors (
			id UUID PRIMARY KEY,
			namespace TEXT NOT NULL,
			clause_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			doc_name TEXT NOT NULL,
			page_number INT NOT NULL DEFAULT 1,
			source_type TEXT NOT NULL DEFAULT 'DOC',
			clause_text TEXT NOT NULL,
			embedding vector(768) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create clause_vectors table: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS clause_vectors_namespace_idx
		ON clause_vectors (namespace)`)
	if err != nil {
		return fmt.Errorf("failed to create namespace index: %w", err)
	}
	return nil
}

// Add embeds and inserts records into a namespace. Rows only ever append.
func (p *PGVectorIndex) Add(ctx context.Context, namespace string, records []Record) error {
	query := `
		INSERT INTO clause_vectors (
			id, namespace, clause_id, doc_id, doc_name, page_number, source_type, clause_text, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)`

	for _, r := range records {
		vec, err := p.embedder.EmbedDocument(ctx, r.Text)
		if err != nil {
			return fmt.Errorf("failed to embed record %q: %w", r.Metadata.ClauseID, err)
		}

		sourceType := r.Metadata.SourceType
		if sourceType == "" {
			sourceType = SourceTypeDoc
		}

		_, err = p.db.Exec(ctx, query,
			uuid.New(),
			namespace,
			r.Metadata.ClauseID,
			r.Metadata.DocID,
			r.Metadata.DocName,
			r.Metadata.PageNumber,
			sourceType,
			r.Text,
			formatVector(vec),
		)
		if err != nil {
			return fmt.Errorf("failed to insert clause vector: %w", err)
		}
	}
	return nil
}

// Search embeds the query and returns up to k rows of the namespace
// ordered by cosine distance
func (p *PGVectorIndex) Search(ctx context.Context, namespace, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := p.db.Query(ctx, `
		SELECT clause_id, doc_id, doc_name, page_number, source_type, clause_text,
			embedding <=> $1::vector AS distance
		FROM clause_vectors
		WHERE namespace = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`,
		formatVector(queryVec), namespace, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query clause vectors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		err := rows.Scan(
			&m.Record.Metadata.ClauseID,
			&m.Record.Metadata.DocID,
			&m.Record.Metadata.DocName,
			&m.Record.Metadata.PageNumber,
			&m.Record.Metadata.SourceType,
			&m.Record.Text,
			&m.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clause vector: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clause vectors: %w", err)
	}
	return matches, nil
}

// Clear deletes every row of a namespace
func (p *PGVectorIndex) Clear(ctx context.Context, namespace string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM clause_vectors WHERE namespace = $1`, namespace)
	if err != nil {
		return fmt.Errorf("failed to clear namespace %s: %w", namespace, err)
	}
	return nil
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
