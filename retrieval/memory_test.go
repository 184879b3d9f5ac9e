package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps exact texts to fixed vectors; unknown text errors
type stubEmbedder struct {
	vectors map[string][]float64
}

func (s *stubEmbedder) embed(text string) ([]float64, error) {
	vec, ok := s.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text: " + text)
	}
	return vec, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return s.embed(text)
}

func (s *stubEmbedder) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return s.embed(text)
}

func record(clauseID, text string) Record {
	return Record{Text: text, Metadata: Metadata{ClauseID: clauseID}}
}

func TestFlatIndexSearchOrdersByDistance(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"close":   {1, 0.1},
		"farther": {0.1, 1},
		"query":   {1, 0},
	}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "session_s", []Record{
		record("far", "farther"),
		record("near", "close"),
	}))

	matches, err := idx.Search(ctx, "session_s", "query", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Record.Metadata.ClauseID)
	assert.Equal(t, "far", matches[1].Record.Metadata.ClauseID)
	assert.Less(t, matches[0].Score, matches[1].Score)
}

func TestFlatIndexStampsDegradedSourceType(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"body":  {1, 0},
		"query": {1, 0},
	}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	rec := record("A.1", "body")
	rec.Metadata.SourceType = SourceTypeDoc
	require.NoError(t, idx.Add(ctx, "session_s", []Record{rec}))

	matches, err := idx.Search(ctx, "session_s", "query", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, SourceTypeFlat, matches[0].Record.Metadata.SourceType)
}

func TestFlatIndexNamespaceFiltering(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"a one": {1, 0},
		"a two": {0.9, 0.1},
		"b one": {0.95, 0.05},
		"query": {1, 0},
	}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "session_a", []Record{
		record("A1", "a one"),
		record("A2", "a two"),
	}))
	require.NoError(t, idx.Add(ctx, "session_b", []Record{
		record("B1", "b one"),
	}))

	matches, err := idx.Search(ctx, "session_a", "query", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.NotEqual(t, "B1", m.Record.Metadata.ClauseID)
	}
}

func TestFlatIndexOverFetchCanStarveNamespace(t *testing.T) {
	// Global ranking plus post-hoc filtering: when another namespace
	// dominates the over-fetched window, the target namespace can come
	// back short. This is the documented degraded-mode trade-off.
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"n1":    {1, 0},
		"n2":    {0.99, 0.01},
		"n3":    {0.98, 0.02},
		"mine":  {0, 1},
		"query": {1, 0},
	}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "session_noise", []Record{
		record("N1", "n1"),
		record("N2", "n2"),
		record("N3", "n3"),
	}))
	require.NoError(t, idx.Add(ctx, "session_mine", []Record{
		record("M1", "mine"),
	}))

	// k=1 fetches 2 candidates; both are noise, so nothing survives
	matches, err := idx.Search(ctx, "session_mine", "query", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFlatIndexClearIsNamespaceScoped(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"a":     {1, 0},
		"b":     {0.9, 0.1},
		"query": {1, 0},
	}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "session_a", []Record{record("A1", "a")}))
	require.NoError(t, idx.Add(ctx, "session_b", []Record{record("B1", "b")}))

	require.NoError(t, idx.Clear(ctx, "session_a"))

	matches, err := idx.Search(ctx, "session_a", "query", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = idx.Search(ctx, "session_b", "query", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFlatIndexEmptyAndZeroK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{"query": {1, 0}}}
	idx := NewFlatIndex(embedder)
	ctx := context.Background()

	matches, err := idx.Search(ctx, "session_s", "query", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = idx.Search(ctx, "session_s", "query", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
