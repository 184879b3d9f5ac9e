package retrieval

import (
	"sort"
)

// rrfK is the reciprocal-rank-fusion smoothing constant
const rrfK = 60

// ReciprocalRankFusion merges ranked result lists from distinct retrieval
// sources into one list ordered by fused score descending. Each result at
// zero-based rank r contributes 1/(rrfK+r+1) to its identity key
// (source_type, doc_name, clause_id); a record appearing in several lists
// accumulates the sum of its terms. The record stored for a key is the
// first one encountered, and equal fused scores keep input order, so the
// output is stable across reruns given stable inputs. Empty input lists
// contribute nothing; fusing a single list preserves its relative order.
func ReciprocalRankFusion(lists ...[]Match) []Match {
	type fusedEntry struct {
		record Record
		score  float64
	}

	entries := make(map[string]*fusedEntry)
	var order []string

	for _, list := range lists {
		for rank, match := range list {
			m := match.Record.Metadata
			key := m.SourceType + "_" + m.DocName + "_" + m.ClauseID

			entry, ok := entries[key]
			if !ok {
				entry = &fusedEntry{record: match.Record}
				entries[key] = entry
				order = append(order, key)
			}
			entry.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	fused := make([]Match, 0, len(order))
	for _, key := range order {
		fused = append(fused, Match{Record: entries[key].record, Score: entries[key].score})
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
