package store

import (
	"sync"
	"time"

	"compliance-backend/models"
)

// sessionState holds one session's documents, clauses, assessments and
// results, each keyed by an auto-incrementing id scoped to the session.
type sessionState struct {
	documents   map[int]*models.Document
	clauses     map[int]*models.Clause
	assessments map[int]*models.Assessment
	results     map[int]*models.AssessmentResult

	docCounter        int
	clauseCounter     int
	assessmentCounter int
	resultCounter     int
}

func newSessionState() *sessionState {
	return &sessionState{
		documents:   make(map[int]*models.Document),
		clauses:     make(map[int]*models.Clause),
		assessments: make(map[int]*models.Assessment),
		results:     make(map[int]*models.AssessmentResult),
	}
}

// SessionStore is an in-memory registry partitioned by session identifier.
// All methods are safe for concurrent use; id assignment and reads go
// through a single mutex so counter increment-and-read stays atomic.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionState),
	}
}

// session returns the state for a session id, creating it on first use.
// Callers must hold s.mu.
func (s *SessionStore) session(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = newSessionState()
		s.sessions[sessionID] = st
	}
	return st
}

// Reset clears all data for one session. Other sessions are untouched.
func (s *SessionStore) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// AddDocument registers a new document and assigns its session-scoped id
func (s *SessionStore) AddDocument(sessionID, filename string, fileType models.FileType, version string) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.docCounter++
	doc := &models.Document{
		ID:         st.docCounter,
		Filename:   filename,
		FileType:   fileType,
		Version:    version,
		UploadedAt: time.Now().UTC(),
	}
	st.documents[doc.ID] = doc
	return doc
}

// GetDocument returns a document by id, or nil if absent
func (s *SessionStore) GetDocument(sessionID string, docID int) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(sessionID).documents[docID]
}

// ListDocuments returns all documents for a session ordered by id
func (s *SessionStore) ListDocuments(sessionID string) []*models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	docs := make([]*models.Document, 0, len(st.documents))
	for id := 1; id <= st.docCounter; id++ {
		if doc, ok := st.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// UpdateDocumentType reclassifies a document. Returns false if the
// document does not exist.
func (s *SessionStore) UpdateDocumentType(sessionID string, docID int, fileType models.FileType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.session(sessionID).documents[docID]
	if !ok {
		return false
	}
	doc.FileType = fileType
	return true
}

// DeleteDocument removes a document and cascades to its clauses and to
// any assessment referencing it (including that assessment's results).
func (s *SessionStore) DeleteDocument(sessionID string, docID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	if _, ok := st.documents[docID]; !ok {
		return false
	}
	delete(st.documents, docID)

	for id, c := range st.clauses {
		if c.DocumentID == docID {
			delete(st.clauses, id)
		}
	}
	for id, a := range st.assessments {
		if a.CustomerDocID == docID || a.RegulationDocID == docID {
			s.deleteAssessmentLocked(st, id)
		}
	}
	return true
}

// AddClause records a clause for a document during ingestion
func (s *SessionStore) AddClause(sessionID string, documentID int, clauseID, text string, pageNumber int, severity models.Severity) *models.Clause {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.clauseCounter++
	clause := &models.Clause{
		ID:         st.clauseCounter,
		DocumentID: documentID,
		ClauseID:   clauseID,
		Text:       text,
		PageNumber: pageNumber,
		Severity:   severity,
	}
	st.clauses[clause.ID] = clause
	return clause
}

// GetClause returns a clause by its internal id, or nil if absent
func (s *SessionStore) GetClause(sessionID string, clauseID int) *models.Clause {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(sessionID).clauses[clauseID]
}

// ClausesByDocument returns a document's clauses in ingestion order
func (s *SessionStore) ClausesByDocument(sessionID string, docID int) []*models.Clause {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	clauses := make([]*models.Clause, 0)
	for id := 1; id <= st.clauseCounter; id++ {
		if c, ok := st.clauses[id]; ok && c.DocumentID == docID {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

// ClauseByLabel resolves a clause by its human label within one document.
// Label uniqueness is only guaranteed per (document, label).
func (s *SessionStore) ClauseByLabel(sessionID string, docID int, label string) *models.Clause {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.session(sessionID).clauses {
		if c.DocumentID == docID && c.ClauseID == label {
			return c
		}
	}
	return nil
}

// AddAssessment records a new comparison run
func (s *SessionStore) AddAssessment(sessionID string, customerDocID, regulationDocID int) *models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.assessmentCounter++
	assessment := &models.Assessment{
		ID:              st.assessmentCounter,
		CustomerDocID:   customerDocID,
		RegulationDocID: regulationDocID,
		CreatedAt:       time.Now().UTC(),
	}
	st.assessments[assessment.ID] = assessment
	return assessment
}

// GetAssessment returns an assessment by id, or nil if absent
func (s *SessionStore) GetAssessment(sessionID string, assessmentID int) *models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(sessionID).assessments[assessmentID]
}

// AssessmentsByDocument returns assessments referencing a document on
// either side of the comparison
func (s *SessionStore) AssessmentsByDocument(sessionID string, docID int) []*models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Assessment
	for _, a := range s.session(sessionID).assessments {
		if a.CustomerDocID == docID || a.RegulationDocID == docID {
			out = append(out, a)
		}
	}
	return out
}

// DeleteAssessment removes an assessment and all its results
func (s *SessionStore) DeleteAssessment(sessionID string, assessmentID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAssessmentLocked(s.session(sessionID), assessmentID)
}

func (s *SessionStore) deleteAssessmentLocked(st *sessionState, assessmentID int) {
	for id, r := range st.results {
		if r.AssessmentID == assessmentID {
			delete(st.results, id)
		}
	}
	delete(st.assessments, assessmentID)
}

// AddResult persists one judged clause pair
func (s *SessionStore) AddResult(sessionID string, result models.AssessmentResult) *models.AssessmentResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.resultCounter++
	result.ID = st.resultCounter
	st.results[result.ID] = &result
	return st.results[result.ID]
}

// ResultsByAssessment returns all results recorded for an assessment
func (s *SessionStore) ResultsByAssessment(sessionID string, assessmentID int) []*models.AssessmentResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	results := make([]*models.AssessmentResult, 0)
	for id := 1; id <= st.resultCounter; id++ {
		if r, ok := st.results[id]; ok && r.AssessmentID == assessmentID {
			results = append(results, r)
		}
	}
	return results
}
