package models

import (
	"time"
)

// FileType classifies an uploaded document
type FileType string

const (
	FileTypeRegulation FileType = "regulation"
	FileTypeCustomer   FileType = "customer"
)

// Severity is a provisional clause classification derived at ingestion time.
// It is distinct from assessment risk.
type Severity string

const (
	SeverityMust    Severity = "MUST"
	SeverityShould  Severity = "SHOULD"
	SeverityUnknown Severity = "UNKNOWN"
)

// Document represents an uploaded regulatory or customer document
type Document struct {
	ID         int       `json:"id"`
	Filename   string    `json:"filename"`
	FileType   FileType  `json:"file_type"`
	Version    string    `json:"version"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Clause is a labeled, page-located span of document text. It is the atomic
// unit of comparison and is never mutated after ingestion.
type Clause struct {
	ID         int      `json:"id"`
	DocumentID int      `json:"document_id"`
	ClauseID   string   `json:"clause_id"` // human label, e.g. "A.5.1" or synthetic "P-0-2"
	Text       string   `json:"text"`
	PageNumber int      `json:"page_number"`
	Severity   Severity `json:"severity"`
}
