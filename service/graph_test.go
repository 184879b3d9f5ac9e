package service

import (
	"fmt"
	"strings"
	"testing"

	"compliance-backend/models"
	"compliance-backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraphShape(t *testing.T) {
	s := store.NewSessionStore()

	reg := s.AddDocument("sess", "iso.txt", models.FileTypeRegulation, "2022")
	cust := s.AddDocument("sess", "policy.txt", models.FileTypeCustomer, "v1")

	longText := strings.Repeat("encryption requirement ", 10)
	regClause := s.AddClause("sess", reg.ID, "A.10.1", longText, 3, models.SeverityMust)
	custClause := s.AddClause("sess", cust.ID, "P-0-0", "we encrypt data", 1, models.SeverityUnknown)

	assessment := s.AddAssessment("sess", cust.ID, reg.ID)
	s.AddResult("sess", models.AssessmentResult{
		AssessmentID:       assessment.ID,
		CustomerClauseID:   custClause.ID,
		RegulationClauseID: regClause.ID,
		Status:             models.StatusPartial,
		Risk:               models.RiskMedium,
		Reasoning:          "Algorithm strength unspecified.",
		EvidenceText:       "encryption requirement",
		Confidence:         0.6,
	})

	graph, err := BuildGraph(s, "sess", assessment.ID)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)

	regNode := graph.Nodes[0]
	assert.Equal(t, fmt.Sprintf("reg_%d", regClause.ID), regNode.ID)
	assert.Equal(t, "A.10.1", regNode.Label)
	assert.Equal(t, "regulation", regNode.Type)
	assert.Equal(t, 3, regNode.Page)
	// Long clause bodies are previewed, not embedded whole
	assert.Len(t, regNode.Text, 103)
	assert.True(t, strings.HasSuffix(regNode.Text, "..."))

	custNode := graph.Nodes[1]
	assert.Equal(t, fmt.Sprintf("cust_%d", custClause.ID), custNode.ID)
	assert.Equal(t, "P-0-0", custNode.Label)
	assert.Equal(t, "customer", custNode.Type)
	assert.Equal(t, string(models.StatusPartial), custNode.Status)
	assert.Equal(t, string(models.RiskMedium), custNode.Risk)
	assert.Equal(t, "Algorithm strength unspecified.", custNode.Reasoning)

	edge := graph.Edges[0]
	assert.Equal(t, custNode.ID, edge.From)
	assert.Equal(t, regNode.ID, edge.To)
	assert.Equal(t, string(models.StatusPartial), edge.Status)
}

func TestBuildGraphUnknownAssessment(t *testing.T) {
	_, err := BuildGraph(store.NewSessionStore(), "sess", 7)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestBuildGraphEmptyResults(t *testing.T) {
	s := store.NewSessionStore()
	reg := s.AddDocument("sess", "iso.txt", models.FileTypeRegulation, "2022")
	cust := s.AddDocument("sess", "policy.txt", models.FileTypeCustomer, "v1")
	assessment := s.AddAssessment("sess", cust.ID, reg.ID)

	graph, err := BuildGraph(s, "sess", assessment.ID)
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}
