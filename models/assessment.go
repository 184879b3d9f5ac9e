package models

import (
	"time"
)

// ComplianceStatus is the normalized judgment outcome for a clause pair
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "COMPLIANT"
	StatusPartial      ComplianceStatus = "PARTIAL"
	StatusNonCompliant ComplianceStatus = "NON_COMPLIANT"
	StatusUnknown      ComplianceStatus = "UNKNOWN"
)

// RiskLevel grades the exposure associated with a judgment
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Assessment represents one comparison run between a customer document
// and a regulation document
type Assessment struct {
	ID              int       `json:"id"`
	CustomerDocID   int       `json:"customer_doc_id"`
	RegulationDocID int       `json:"regulation_doc_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// AssessmentResult is the persisted verdict for one successfully judged
// customer clause. Clauses with no retrievable match produce no result.
type AssessmentResult struct {
	ID                 int              `json:"id"`
	AssessmentID       int              `json:"assessment_id"`
	CustomerClauseID   int              `json:"customer_clause_id"`
	RegulationClauseID int              `json:"regulation_clause_id"`
	Status             ComplianceStatus `json:"status"`
	Risk               RiskLevel        `json:"risk"`
	Reasoning          string           `json:"reasoning"`
	EvidenceText       string           `json:"evidence_text"`
	Confidence         float64          `json:"confidence"`
}
