package retrieval

import (
	"context"
)

// Source type labels carried on retrieval records. The flat in-memory
// index stamps FAISS on its results; the retriever relabels matches DOC
// or KB according to the namespace they came from.
const (
	SourceTypeDoc  = "DOC"
	SourceTypeKB   = "KB"
	SourceTypeFlat = "FAISS"
)

// PermanentNamespace holds the shared knowledge base, isolated from all
// session namespaces
const PermanentNamespace = "permanent"

// SessionNamespace derives the index namespace for a session identifier
func SessionNamespace(sessionID string) string {
	return "session_" + sessionID
}

// Metadata identifies where a retrieval record came from
type Metadata struct {
	SourceType string `json:"source_type"`
	DocName    string `json:"doc_name"`
	ClauseID   string `json:"clause_id"`
	DocID      string `json:"doc_id"`
	PageNumber int    `json:"page_number"`
}

// Record is an embedding-indexed text with its metadata
type Record struct {
	Text     string
	Metadata Metadata
}

// Match pairs a record with its distance score. Lower score means closer.
type Match struct {
	Record Record
	Score  float64
}

// Embedder turns text into a vector. Queries and documents embed
// differently (the embedding oracle takes a task-type hint).
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
}

// Index is a per-namespace nearest-neighbor search structure over clause
// text embeddings. Add and Search are safe to call concurrently per
// namespace; neither may run concurrently with Clear of the same
// namespace without external serialization.
type Index interface {
	// Add embeds and inserts records into a namespace. Repeated calls
	// append, never overwrite.
	Add(ctx context.Context, namespace string, records []Record) error

	// Search returns up to k matches ordered by increasing distance.
	// An absent or empty namespace yields an empty result, not an error.
	Search(ctx context.Context, namespace, query string, k int) ([]Match, error)

	// Clear removes all vectors for a namespace. No-op if it does not
	// exist; other namespaces are unaffected.
	Clear(ctx context.Context, namespace string) error
}
