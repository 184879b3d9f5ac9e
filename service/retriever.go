package service

import (
	"context"

	"compliance-backend/retrieval"

	"github.com/rs/zerolog/log"
)

// defaultTopK is the default number of matches a retrieval returns
const defaultTopK = 8

// Retriever runs fused similarity search across the session namespace and
// the permanent knowledge base
type Retriever struct {
	index retrieval.Index
}

// NewRetriever creates a retriever over the given index
func NewRetriever(index retrieval.Index) *Retriever {
	return &Retriever{index: index}
}

// RetrieveOptions tunes one retrieval call
type RetrieveOptions struct {
	TopK        int
	UseKB       bool   // also search the permanent knowledge base
	DocIDFilter string // restrict matches to one document id; empty means no filter
}

// Retrieve searches the session namespace (and optionally the knowledge
// base), labels matches by their source, and merges the lists with
// reciprocal rank fusion. With a document filter the lists are instead
// concatenated and filtered, since the filter already pins the source.
// Retrieval errors degrade to empty result lists, never to a failure.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string, opts RetrieveOptions) []retrieval.Match {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	docResults := r.search(ctx, retrieval.SessionNamespace(sessionID), query, topK, retrieval.SourceTypeDoc)

	var kbResults []retrieval.Match
	if opts.UseKB {
		kbResults = r.search(ctx, retrieval.PermanentNamespace, query, topK, retrieval.SourceTypeKB)
	}

	if opts.DocIDFilter != "" {
		combined := append(docResults, kbResults...)
		filtered := make([]retrieval.Match, 0, len(combined))
		for _, m := range combined {
			if m.Record.Metadata.DocID == opts.DocIDFilter {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) > topK {
			filtered = filtered[:topK]
		}
		return filtered
	}

	fused := retrieval.ReciprocalRankFusion(kbResults, docResults)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}

func (r *Retriever) search(ctx context.Context, namespace, query string, k int, sourceType string) []retrieval.Match {
	matches, err := r.index.Search(ctx, namespace, query, k)
	if err != nil {
		log.Warn().Err(err).Str("namespace", namespace).Msg("retrieval search failed, treating as no results")
		return nil
	}
	for i := range matches {
		matches[i].Record.Metadata.SourceType = sourceType
	}
	return matches
}
