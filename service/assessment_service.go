package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"compliance-backend/judge"
	"compliance-backend/models"
	"compliance-backend/store"

	"github.com/rs/zerolog/log"
)

// maxConcurrentJudgments caps simultaneous in-flight judge calls so
// external API concurrency stays bounded regardless of document size
const maxConcurrentJudgments = 10

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNoCustomerClauses = errors.New("no clauses found in customer document")
)

// AssessmentService orchestrates a compliance comparison: for every
// customer clause it retrieves the best regulation match, invokes the
// judge, and persists the verdict
type AssessmentService struct {
	store     *store.SessionStore
	retriever *Retriever
	judge     *judge.Judge
}

// AssessmentServiceOption is a functional option for AssessmentService
type AssessmentServiceOption func(*AssessmentService)

// AssessmentWithStore sets the session store
func AssessmentWithStore(s *store.SessionStore) AssessmentServiceOption {
	return func(svc *AssessmentService) {
		svc.store = s
	}
}

// AssessmentWithRetriever sets the retriever
func AssessmentWithRetriever(r *Retriever) AssessmentServiceOption {
	return func(svc *AssessmentService) {
		svc.retriever = r
	}
}

// AssessmentWithJudge sets the compliance judge
func AssessmentWithJudge(j *judge.Judge) AssessmentServiceOption {
	return func(svc *AssessmentService) {
		svc.judge = j
	}
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(opts ...AssessmentServiceOption) *AssessmentService {
	svc := &AssessmentService{}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// AssessRequest names the two documents to compare
type AssessRequest struct {
	CustomerDocID   int
	RegulationDocID int
	UseKB           bool
}

// AssessResult reports a finished run. ResultsCount can be smaller than
// the customer clause count: clauses with no retrievable match or an
// unresolvable regulation label are dropped without a recorded result.
type AssessResult struct {
	AssessmentID int `json:"assessment_id"`
	ResultsCount int `json:"results_count"`
}

// Assess runs one comparison between a customer document and a regulation
// document. Clauses are processed concurrently under the judgment
// ceiling; one clause's failure never aborts the others.
func (s *AssessmentService) Assess(ctx context.Context, sessionID string, req AssessRequest) (*AssessResult, error) {
	if s.store.GetDocument(sessionID, req.CustomerDocID) == nil ||
		s.store.GetDocument(sessionID, req.RegulationDocID) == nil {
		return nil, ErrDocumentNotFound
	}

	customerClauses := s.store.ClausesByDocument(sessionID, req.CustomerDocID)
	if len(customerClauses) == 0 {
		return nil, ErrNoCustomerClauses
	}

	assessment := s.store.AddAssessment(sessionID, req.CustomerDocID, req.RegulationDocID)
	log.Info().
		Str("session_id", sessionID).
		Int("assessment_id", assessment.ID).
		Int("clauses", len(customerClauses)).
		Msg("assessment started")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentJudgments)
	var mu sync.Mutex
	count := 0

	for _, clause := range customerClauses {
		wg.Add(1)
		go func(c *models.Clause) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if s.processClause(ctx, sessionID, assessment, c, req) {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}(clause)
	}
	wg.Wait()

	log.Info().
		Int("assessment_id", assessment.ID).
		Int("recorded", count).
		Int("dropped", len(customerClauses)-count).
		Msg("assessment finished")

	return &AssessResult{AssessmentID: assessment.ID, ResultsCount: count}, nil
}

// processClause runs the retrieve → resolve → judge → record sequence for
// one customer clause. Returns true when a result was persisted.
func (s *AssessmentService) processClause(ctx context.Context, sessionID string, assessment *models.Assessment, clause *models.Clause, req AssessRequest) bool {
	matches := s.retriever.Retrieve(ctx, sessionID, clause.Text, RetrieveOptions{
		UseKB:       req.UseKB,
		DocIDFilter: strconv.Itoa(req.RegulationDocID),
	})
	if len(matches) == 0 {
		return false
	}

	best := matches[0]
	regClause := s.store.ClauseByLabel(sessionID, req.RegulationDocID, best.Record.Metadata.ClauseID)
	if regClause == nil {
		// Known soft-failure mode: the matched label no longer resolves in
		// the target document. The clause is dropped and only shows up as a
		// smaller results count.
		log.Debug().
			Str("label", best.Record.Metadata.ClauseID).
			Int("regulation_doc_id", req.RegulationDocID).
			Msg("matched clause label unresolved, dropping")
		return false
	}

	verdict := s.judge.Evaluate(ctx, clause.Text, regClause.Text)

	s.store.AddResult(sessionID, models.AssessmentResult{
		AssessmentID:       assessment.ID,
		CustomerClauseID:   clause.ID,
		RegulationClauseID: regClause.ID,
		Status:             verdict.Status,
		Risk:               verdict.Risk,
		Reasoning:          verdict.Reasoning,
		EvidenceText:       verdict.EvidenceText,
		Confidence:         verdict.Confidence,
	})
	return true
}
