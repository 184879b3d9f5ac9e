package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(sourceType, docName, clauseID string) Match {
	return Match{Record: Record{
		Text: clauseID,
		Metadata: Metadata{
			SourceType: sourceType,
			DocName:    docName,
			ClauseID:   clauseID,
		},
	}}
}

func TestFusionScoreArithmetic(t *testing.T) {
	fused := ReciprocalRankFusion([]Match{
		match("DOC", "policy.txt", "A.1"),
		match("DOC", "policy.txt", "A.2"),
	})

	require.Len(t, fused, 2)
	assert.InDelta(t, 1.0/61.0, fused[0].Score, 1e-12)
	assert.InDelta(t, 1.0/62.0, fused[1].Score, 1e-12)
}

func TestFusionAccumulatesAcrossLists(t *testing.T) {
	docList := []Match{
		match("KB", "iso.txt", "A.1"),
		match("KB", "iso.txt", "A.2"),
	}
	kbList := []Match{
		match("KB", "iso.txt", "A.1"),
		match("KB", "iso.txt", "A.3"),
	}

	fused := ReciprocalRankFusion(docList, kbList)
	require.Len(t, fused, 3)

	// A.1 appears at rank 0 in both lists and wins with the summed score
	assert.Equal(t, "A.1", fused[0].Record.Metadata.ClauseID)
	assert.InDelta(t, 2.0/61.0, fused[0].Score, 1e-12)

	// A.2 and A.3 are tied at 1/62; insertion order breaks the tie
	assert.Equal(t, "A.2", fused[1].Record.Metadata.ClauseID)
	assert.Equal(t, "A.3", fused[2].Record.Metadata.ClauseID)
	assert.InDelta(t, fused[1].Score, fused[2].Score, 1e-12)
}

func TestFusionSourceTypeSeparatesKeys(t *testing.T) {
	// Same doc and clause label under different source types are distinct
	fused := ReciprocalRankFusion(
		[]Match{match("DOC", "policy.txt", "A.1")},
		[]Match{match("KB", "policy.txt", "A.1")},
	)
	assert.Len(t, fused, 2)
}

func TestFusionFirstRecordWins(t *testing.T) {
	first := match("DOC", "policy.txt", "A.1")
	first.Record.Text = "original body"
	dup := match("DOC", "policy.txt", "A.1")
	dup.Record.Text = "other body"

	fused := ReciprocalRankFusion([]Match{first}, []Match{dup})
	require.Len(t, fused, 1)
	assert.Equal(t, "original body", fused[0].Record.Text)
}

func TestFusionSingleListPreservesOrder(t *testing.T) {
	list := []Match{
		match("DOC", "policy.txt", "A.1"),
		match("DOC", "policy.txt", "A.2"),
		match("DOC", "policy.txt", "A.3"),
	}

	fused := ReciprocalRankFusion(list)
	require.Len(t, fused, 3)
	for i, m := range fused {
		assert.Equal(t, list[i].Record.Metadata.ClauseID, m.Record.Metadata.ClauseID)
	}
}

func TestFusionEmptyInputs(t *testing.T) {
	assert.Empty(t, ReciprocalRankFusion())
	assert.Empty(t, ReciprocalRankFusion(nil, nil))

	fused := ReciprocalRankFusion(nil, []Match{match("DOC", "policy.txt", "A.1")})
	assert.Len(t, fused, 1)
}
