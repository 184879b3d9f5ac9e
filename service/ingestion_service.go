package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"compliance-backend/ingestion"
	"compliance-backend/models"
	"compliance-backend/retrieval"
	"compliance-backend/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidFileType = errors.New("file type must be 'regulation' or 'customer'")
)

// IngestionService segments uploaded documents into clauses, persists
// them to the session store, and pushes them into the retrieval index
type IngestionService struct {
	store *store.SessionStore
	index retrieval.Index
}

// NewIngestionService creates an ingestion service
func NewIngestionService(sessionStore *store.SessionStore, index retrieval.Index) *IngestionService {
	return &IngestionService{store: sessionStore, index: index}
}

// IngestResult reports one completed ingestion
type IngestResult struct {
	Document    *models.Document
	ClauseCount int
}

// Ingest registers a document, segments its pages into clauses, and
// indexes the clause texts under the session namespace. When
// extraNamespace is non-empty the clauses are additionally indexed there
// (used to populate the permanent knowledge base from an upload).
func (s *IngestionService) Ingest(ctx context.Context, sessionID, filename string, fileType models.FileType, version, content, extraNamespace string) (*IngestResult, error) {
	if fileType != models.FileTypeRegulation && fileType != models.FileTypeCustomer {
		return nil, ErrInvalidFileType
	}

	pages := ingestion.ExtractPages(content)
	drafts := ingestion.Segment(pages)

	doc := s.store.AddDocument(sessionID, filename, fileType, version)

	records := make([]retrieval.Record, 0, len(drafts))
	for _, d := range drafts {
		s.store.AddClause(sessionID, doc.ID, d.ClauseID, d.Text, d.PageNumber, d.Severity)
		records = append(records, retrieval.Record{
			Text: d.Text,
			Metadata: retrieval.Metadata{
				SourceType: retrieval.SourceTypeDoc,
				DocName:    filename,
				ClauseID:   d.ClauseID,
				DocID:      strconv.Itoa(doc.ID),
				PageNumber: d.PageNumber,
			},
		})
	}

	log.Info().
		Str("session_id", sessionID).
		Int("doc_id", doc.ID).
		Str("filename", filename).
		Int("clauses", len(records)).
		Msg("document segmented")

	if len(records) > 0 {
		if err := s.index.Add(ctx, retrieval.SessionNamespace(sessionID), records); err != nil {
			return nil, fmt.Errorf("failed to index document clauses: %w", err)
		}
		if extraNamespace != "" {
			extra := records
			if extraNamespace == retrieval.PermanentNamespace {
				extra = make([]retrieval.Record, len(records))
				copy(extra, records)
				for i := range extra {
					extra[i].Metadata.SourceType = retrieval.SourceTypeKB
				}
			}
			if err := s.index.Add(ctx, extraNamespace, extra); err != nil {
				return nil, fmt.Errorf("failed to index clauses into namespace %s: %w", extraNamespace, err)
			}
		}
	}

	return &IngestResult{Document: doc, ClauseCount: len(records)}, nil
}

// Reset clears a session's store state and its retrieval namespace
func (s *IngestionService) Reset(ctx context.Context, sessionID string) {
	s.store.Reset(sessionID)
	if err := s.index.Clear(ctx, retrieval.SessionNamespace(sessionID)); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear retrieval namespace")
	}
}
