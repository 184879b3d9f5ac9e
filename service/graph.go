package service

import (
	"errors"
	"fmt"
	"strconv"

	"compliance-backend/store"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

// GraphNode is one node of the assessment visualization graph. The id
// prefixes (reg_/cust_) and field names are consumed by the external
// renderer and must stay stable.
type GraphNode struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Risk      string `json:"risk,omitempty"`
	DocID     int    `json:"doc_id"`
	Page      int    `json:"page,omitempty"`
	Text      string `json:"text,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	Evidence  string `json:"evidence,omitempty"`
}

// GraphEdge links a customer clause node to its judged regulation node
type GraphEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// Graph is the renderer-facing shape of one assessment
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// BuildGraph assembles the node/edge view of an assessment: every
// regulation clause becomes a node, and every recorded result adds a
// customer node plus an edge carrying the judged status.
func BuildGraph(sessionStore *store.SessionStore, sessionID string, assessmentID int) (*Graph, error) {
	assessment := sessionStore.GetAssessment(sessionID, assessmentID)
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	graph := &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	for _, rc := range sessionStore.ClausesByDocument(sessionID, assessment.RegulationDocID) {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    fmt.Sprintf("reg_%d", rc.ID),
			Label: rc.ClauseID,
			Type:  "regulation",
			Page:  rc.PageNumber,
			DocID: assessment.RegulationDocID,
			Text:  truncate(rc.Text, 100) + "...",
		})
	}

	for _, r := range sessionStore.ResultsByAssessment(sessionID, assessmentID) {
		custClause := sessionStore.GetClause(sessionID, r.CustomerClauseID)
		node := GraphNode{
			ID:        fmt.Sprintf("cust_%d", r.CustomerClauseID),
			Label:     strconv.Itoa(r.CustomerClauseID),
			Type:      "customer",
			Status:    string(r.Status),
			Risk:      string(r.Risk),
			DocID:     assessment.CustomerDocID,
			Reasoning: r.Reasoning,
			Evidence:  r.EvidenceText,
		}
		if custClause != nil {
			node.Label = custClause.ClauseID
			node.Page = custClause.PageNumber
		}
		graph.Nodes = append(graph.Nodes, node)
		graph.Edges = append(graph.Edges, GraphEdge{
			From:   fmt.Sprintf("cust_%d", r.CustomerClauseID),
			To:     fmt.Sprintf("reg_%d", r.RegulationClauseID),
			Status: string(r.Status),
		})
	}

	return graph, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
