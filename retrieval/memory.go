package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// overFetchMultiplier compensates for post-hoc namespace filtering: the
// flat index ranks globally, so it pulls multiplier*k candidates before
// filtering down to the requested namespace.
const overFetchMultiplier = 2

type flatEntry struct {
	namespace string
	record    Record
	vector    []float64
}

// FlatIndex is a single brute-force cosine index without native namespace
// isolation. It emulates per-namespace search by stamping each entry with
// its namespace at insert time and filtering after an over-fetched global
// ranking. Used when no namespaced backend (pgvector) is configured.
type FlatIndex struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []flatEntry
}

// NewFlatIndex creates an empty flat index backed by the given embedder
func NewFlatIndex(embedder Embedder) *FlatIndex {
	return &FlatIndex{embedder: embedder}
}

// Add embeds and appends records under a namespace tag
func (f *FlatIndex) Add(ctx context.Context, namespace string, records []Record) error {
	entries := make([]flatEntry, 0, len(records))
	for _, r := range records {
		vec, err := f.embedder.EmbedDocument(ctx, r.Text)
		if err != nil {
			return fmt.Errorf("failed to embed record %q: %w", r.Metadata.ClauseID, err)
		}
		entries = append(entries, flatEntry{namespace: namespace, record: r, vector: vec})
	}

	f.mu.Lock()
	f.entries = append(f.entries, entries...)
	f.mu.Unlock()
	return nil
}

// Search ranks the whole index by cosine distance, keeps the top
// overFetchMultiplier*k candidates, then filters to the namespace and
// truncates to k. Results carry the FAISS degraded-mode source label.
func (f *FlatIndex) Search(ctx context.Context, namespace, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.entries) == 0 {
		return nil, nil
	}

	queryVec, err := f.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		entry    flatEntry
		distance float64
	}
	ranked := make([]scored, 0, len(f.entries))
	for _, e := range f.entries {
		ranked = append(ranked, scored{entry: e, distance: cosineDistance(queryVec, e.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	fetch := overFetchMultiplier * k
	if fetch > len(ranked) {
		fetch = len(ranked)
	}

	matches := make([]Match, 0, k)
	for _, s := range ranked[:fetch] {
		if s.entry.namespace != namespace {
			continue
		}
		record := s.entry.record
		record.Metadata.SourceType = SourceTypeFlat
		matches = append(matches, Match{Record: record, Score: s.distance})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Clear drops every entry tagged with the namespace
func (f *FlatIndex) Clear(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.namespace != namespace {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

// cosineDistance returns 1 - cosine similarity, matching the pgvector
// <=> operator so both backends score on the same scale
func cosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
